package domain

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

const (
	TemplateTrainerApproved     = "trainer_approved"
	TemplateApplicationRejected = "application_rejected"
	TemplateComplianceReminder  = "compliance_reminder"
)

// Notification is a templated message handed to the dispatcher.
type Notification struct {
	Template string            `json:"template"`
	Channel  Channel           `json:"channel"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data,omitempty"`
}

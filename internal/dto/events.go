package dto

// TrainerApprovedEvent is the payload published on the events topic.
type TrainerApprovedEvent struct {
	TrainerID  uint   `json:"trainer_id"`
	IdentityID uint   `json:"identity_id"`
	Slug       string `json:"slug"`
	ApprovedAt string `json:"approved_at"`
}

// MailMessage is the payload the mailer consumes.
type MailMessage struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data,omitempty"`
}

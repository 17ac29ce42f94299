package dto

type DriftEntryResponse struct {
	IdentityID             uint   `json:"identity_id"`
	Email                  string `json:"email"`
	DisplayName            string `json:"display_name"`
	SuspectedApplicationID *uint  `json:"suspected_application_id,omitempty"`
}

package dto

type ApproveApplicationRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ApproveApplicationResponse struct {
	ApplicationID uint   `json:"application_id"`
	IdentityID    uint   `json:"identity_id"`
	TrainerID     uint   `json:"trainer_id"`
	Slug          string `json:"slug"`
	// IdentityCreated is true when approval created the login identity.
	IdentityCreated bool `json:"identity_created"`
	AlreadyApproved bool `json:"already_approved"`
}

type ListQuery struct {
	Status string `query:"status"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

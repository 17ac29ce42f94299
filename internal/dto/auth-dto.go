package dto

import "time"

type AuthResponse struct {
	UserID uint    `json:"user_id"`
	Email  string  `json:"email"`
	Iat    float64 `json:"iat"`
	Expiry float64 `json:"expiry"`
}

// ActionTokenRequest asks for a single-use token for one mutating admin call.
// Subject is the target id ("all" for bulk calls).
type ActionTokenRequest struct {
	Action  string `json:"action" validate:"required,oneof=approve reject activate deactivate suspend delete update_profile set_featured bulk_set_featured save_order auto_assign repair repair_all upload_photo"`
	Subject string `json:"subject" validate:"required,max=64"`
}

type ActionTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

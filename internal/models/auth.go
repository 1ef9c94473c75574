package models

// TokenRequest exchanges the operator key for a short-lived bearer token
type TokenRequest struct {
	OperatorKey string `json:"operatorKey" binding:"required"`
	Subject     string `json:"subject"` // who is operating, recorded in settings changes
}

// TokenResponse is returned by POST /auth/token
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

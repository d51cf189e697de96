// internal/models/api.go

package models

// APIResponse defines the standard structure for all API responses
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Info    interface{} `json:"info,omitempty"`
}

// Status message codes returned to callers
const (
	StatusChallengeIssued   = "CHALLENGE_ISSUED"
	StatusChallengeVerified = "CHALLENGE_VERIFIED"
	StatusNotificationSent  = "NOTIFICATION_SENT"
	StatusRequestInvalid    = "REQUEST_BODY_INVALID"
	StatusNotFound          = "OTP_NOT_FOUND"
	StatusExpired           = "OTP_EXPIRED"
	StatusConsumed          = "OTP_CONSUMED"
	StatusInvalid           = "OTP_INVALID"
	StatusAttempts          = "OTP_ATTEMPTS"
	StatusDeliveryFailed    = "DELIVERY_FAILED"
	StatusEntropy           = "ENTROPY_UNAVAILABLE"
	StatusStoreUnavailable  = "STORE_UNAVAILABLE"
	StatusRateLimited       = "RATE_LIMIT_EXCEEDED"
	StatusServiceHealth     = "SERVICE_HEALTH"
)

// IssueChallengeRequest is the body of POST /v1/challenge.
type IssueChallengeRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Recipient   string `json:"recipient" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required"`
}

// VerifyChallengeRequest is the body of POST /v1/challenge/verify.
type VerifyChallengeRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// NotificationRequest is the body of POST /v1/notifications.
type NotificationRequest struct {
	Recipient   string `json:"recipient" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required"`
	Method      string `json:"method" binding:"required"`
}

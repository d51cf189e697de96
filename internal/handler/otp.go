// internal/handler/otp.go

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twofactor-service/internal/domain"
	"twofactor-service/internal/metrics"
	"twofactor-service/internal/models"
)

type ChallengeHandler struct {
	service domain.ChallengeService
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewChallengeHandler creates the handler for the challenge lifecycle routes.
func NewChallengeHandler(service domain.ChallengeService, logger *logrus.Logger, m *metrics.Metrics) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// sendAPIResponse sends a standardized JSON API response
func (h *ChallengeHandler) sendAPIResponse(c *gin.Context, status int, message string, info interface{}) {
	c.JSON(status, models.APIResponse{
		Status:  status,
		Message: message,
		Info:    info,
	})
	h.logger.WithFields(logrus.Fields{
		"status":    status,
		"message":   message,
		"client_ip": c.ClientIP(),
	}).Info("API response sent")
}

// IssueChallenge handles POST /v1/challenge
func (h *ChallengeHandler) IssueChallenge(c *gin.Context) {
	var req models.IssueChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendAPIResponse(c, http.StatusBadRequest, models.StatusRequestInvalid, nil)
		return
	}

	result, err := h.service.Issue(c.Request.Context(), req.AccountID, req.Recipient, req.DisplayName)
	if err != nil {
		status, message := mapError(err)
		h.sendAPIResponse(c, status, message, nil)
		return
	}

	h.metrics.IncrementIssued()
	if result.Delivery == domain.DeliveryFailed {
		h.metrics.IncrementDeliveryFailures()
	}

	h.sendAPIResponse(c, http.StatusOK, models.StatusChallengeIssued, gin.H{
		"challenge_id": result.ChallengeID,
		"expires_at":   result.ExpiresAt,
		"delivery":     result.Delivery,
	})
}

// VerifyChallenge handles POST /v1/challenge/verify
func (h *ChallengeHandler) VerifyChallenge(c *gin.Context) {
	var req models.VerifyChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendAPIResponse(c, http.StatusBadRequest, models.StatusRequestInvalid, nil)
		return
	}

	if err := h.service.Verify(c.Request.Context(), req.AccountID, req.Code); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeInvalid):
			h.metrics.IncrementInvalid()
		case errors.Is(err, domain.ErrChallengeExpired):
			h.metrics.IncrementExpired()
		case errors.Is(err, domain.ErrTooManyAttempts):
			h.metrics.IncrementAttemptsExceeded()
		}
		status, message := mapError(err)
		h.sendAPIResponse(c, status, message, nil)
		return
	}

	h.metrics.IncrementVerified()
	h.sendAPIResponse(c, http.StatusOK, models.StatusChallengeVerified, nil)
}

// Notify handles POST /v1/notifications
func (h *ChallengeHandler) Notify(c *gin.Context) {
	var req models.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendAPIResponse(c, http.StatusBadRequest, models.StatusRequestInvalid, nil)
		return
	}

	event := domain.NotificationEvent{
		Recipient:   req.Recipient,
		DisplayName: req.DisplayName,
		Method:      domain.NotificationMethod(req.Method),
	}

	if err := h.service.NotifySecurityEvent(c.Request.Context(), event); err != nil {
		h.metrics.IncrementDeliveryFailures()
		status, message := mapError(err)
		h.sendAPIResponse(c, status, message, nil)
		return
	}

	h.metrics.IncrementNotificationsSent()
	h.sendAPIResponse(c, http.StatusOK, models.StatusNotificationSent, nil)
}

// mapError translates domain sentinels into HTTP status and message codes.
// Verification outcomes share 401 so a caller probing the API learns nothing
// beyond the enum it would get anyway.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound):
		return http.StatusNotFound, models.StatusNotFound
	case errors.Is(err, domain.ErrChallengeExpired):
		return http.StatusUnauthorized, models.StatusExpired
	case errors.Is(err, domain.ErrChallengeConsumed):
		return http.StatusUnauthorized, models.StatusConsumed
	case errors.Is(err, domain.ErrCodeInvalid):
		return http.StatusUnauthorized, models.StatusInvalid
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusUnauthorized, models.StatusAttempts
	case errors.Is(err, domain.ErrEntropyUnavailable):
		return http.StatusInternalServerError, models.StatusEntropy
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway, models.StatusDeliveryFailed
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, models.StatusStoreUnavailable
	default:
		return http.StatusInternalServerError, models.StatusStoreUnavailable
	}
}

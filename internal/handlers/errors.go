package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"market-chat/internal/apperr"
)

// statusFor maps a chat error to its HTTP status. Storage timeouts become
// 503 so clients treat them as retryable.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeInvalidParticipants, apperr.CodeEmptyMessage, apperr.CodeInvalidMessage:
		return http.StatusBadRequest
	case apperr.CodeNotAParticipant:
		return http.StatusForbidden
	case apperr.CodeResolveFailed, apperr.CodeAppendFailed:
		if apperr.IsTimeout(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	code := apperr.CodeOf(err)
	message := "internal error"
	if code != "" {
		// Storage causes stay in logs, clients only see the public message.
		message = publicMessage(err)
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

func publicMessage(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnauthenticated:
		return apperr.ErrUnauthenticated.Error()
	case apperr.CodeInvalidParticipants:
		return apperr.ErrInvalidParticipants.Error()
	case apperr.CodeNotAParticipant:
		return apperr.ErrNotAParticipant.Error()
	case apperr.CodeEmptyMessage:
		return apperr.ErrEmptyMessage.Error()
	case apperr.CodeInvalidMessage:
		return err.Error()
	case apperr.CodeResolveFailed:
		return apperr.ErrResolveFailed.Error()
	case apperr.CodeAppendFailed:
		return apperr.ErrAppendFailed.Error()
	default:
		return "internal error"
	}
}

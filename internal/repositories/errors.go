package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists")
	ErrNotParticipant       = errors.New("sender is not a participant")
	ErrUnknownUser          = errors.New("unknown user")
	ErrInvalidPair          = errors.New("invalid participant pair")
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

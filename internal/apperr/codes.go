package apperr

// Code classifies chat failures for callers and the HTTP layer.
type Code string

const (
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeInvalidParticipants Code = "INVALID_PARTICIPANTS"
	CodeNotAParticipant     Code = "NOT_A_PARTICIPANT"
	CodeEmptyMessage        Code = "EMPTY_MESSAGE"
	CodeInvalidMessage      Code = "INVALID_MESSAGE"
	CodeResolveFailed       Code = "RESOLVE_FAILED"
	CodeAppendFailed        Code = "APPEND_FAILED"
)

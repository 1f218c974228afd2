package core

// Error codes for domain errors surfaced over the protocol.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotInRoom   = "not_in_room"
	ErrCodeRateLimited = "rate_limited"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

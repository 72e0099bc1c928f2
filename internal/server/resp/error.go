package resp

// Shared client-facing error messages. Internal error details go to
// the log, not into these.
const (
	ErrBadRequest       = "invalid request"
	ErrInvalidJSON      = "request body must be valid JSON"
	ErrInvalidParam     = "invalid parameter"
	ErrResourceNotFound = "resource not found"
	ErrInternalServer   = "internal error"
	ErrUnauthorized     = "authentication failed"
)

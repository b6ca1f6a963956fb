package dto

// Error code constants
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed or invalid requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
)

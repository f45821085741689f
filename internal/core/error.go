package core

// Error codes
const (
	ErrPlayerNotFound      = "PLAYER_NOT_FOUND"
	ErrPuzzleNotFound      = "PUZZLE_NOT_FOUND"
	ErrInvalidRequest      = "INVALID_REQUEST"
	ErrInvalidContent      = "INVALID_CONTENT_TYPE"
	ErrRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrInternalError       = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON error envelope returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

package errors

// standardized error body; Error carries the human-readable message
type ErrorResponse struct {
	Error   string `json:"error"`             // user-facing message
	Code    string `json:"code,omitempty"`    // machine-readable code (e.g., "quota_exceeded")
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

// an error that knows how it should be rendered over HTTP
type HTTPError interface {
	error
	Status() int
	Message() string
	Code() string
}

type ErrorInfo struct {
	category  string
	sanitized string
}

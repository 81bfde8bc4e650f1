// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// CommitFailure is returned when an order commit is rejected. It lists every
// offending line so the client can fix the whole cart in one pass.
type CommitFailure struct {
	Detail string            `json:"detail"`
	Lines  []CommitLineError `json:"lines"`
}

// CommitLineError identifies one rejected line by its index in the request.
type CommitLineError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func NewCommitFailure(detail string, lines []CommitLineError) *CommitFailure {
	return &CommitFailure{Detail: detail, Lines: lines}
}

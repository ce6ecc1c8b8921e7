package dto

// FieldError describes one rejected input field.
type FieldError struct {
	Field      string  `json:"field"`
	Reason     string  `json:"reason"`
	MissingIDs []int64 `json:"missing_ids,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

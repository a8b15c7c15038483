package client

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits accepted by the summary service.
const (
	MaxTextLength    = 10000
	MinSummaryLength = 50
	MaxSummaryLength = 500
	DefaultMaxLength = 150
)

// SummaryRequest is the payload of POST /summarize.
type SummaryRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

// ValidationError reports a request field outside the accepted range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the request against the service limits. Text length is
// counted in characters, not bytes.
func (r SummaryRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return &ValidationError{Field: "text", Reason: "text cannot be empty"}
	}
	if n := utf8.RuneCountInString(r.Text); n > MaxTextLength {
		return &ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("text too long (%d characters, max %d)", n, MaxTextLength),
		}
	}
	if r.MaxLength < MinSummaryLength || r.MaxLength > MaxSummaryLength {
		return &ValidationError{
			Field:  "max_length",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinSummaryLength, MaxSummaryLength, r.MaxLength),
		}
	}
	return nil
}

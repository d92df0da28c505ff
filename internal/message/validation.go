package message

import (
	"fmt"
	"strings"
)

// Validation constants
const (
	MaxBodyLength       = 4000 // Maximum message body length in characters
	MaxTokenLength      = 128  // Maximum session token length
	MaxDescriptorLength = 512  // Maximum client descriptor length
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Validate checks a join payload before session resolution
func (p *JoinPayload) Validate() error {
	if strings.TrimSpace(p.Token) == "" {
		return &ValidationError{Field: "token", Message: "token is required"}
	}
	if len(p.Token) > MaxTokenLength {
		return &ValidationError{
			Field:   "token",
			Message: fmt.Sprintf("token exceeds maximum length of %d characters", MaxTokenLength),
		}
	}
	if len(p.ClientDescriptor) > MaxDescriptorLength {
		return &ValidationError{
			Field:   "clientDescriptor",
			Message: fmt.Sprintf("clientDescriptor exceeds maximum length of %d characters", MaxDescriptorLength),
		}
	}
	return nil
}

// Validate checks an inbound visitor message. A blank body is a validation
// failure: nothing is persisted and no event is emitted for it.
func (p *VisitorMessagePayload) Validate() error {
	if strings.TrimSpace(p.Body) == "" {
		return &ValidationError{Field: "body", Message: "body must not be empty"}
	}
	if len(p.Body) > MaxBodyLength {
		return &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("body exceeds maximum length of %d characters", MaxBodyLength),
		}
	}
	if len(p.Token) > MaxTokenLength {
		return &ValidationError{
			Field:   "token",
			Message: fmt.Sprintf("token exceeds maximum length of %d characters", MaxTokenLength),
		}
	}
	return nil
}

// Validate checks an operator reply payload
func (p *OperatorMessagePayload) Validate() error {
	if strings.TrimSpace(p.TargetSessionRef) == "" {
		return &ValidationError{Field: "targetSessionRef", Message: "targetSessionRef is required"}
	}
	if strings.TrimSpace(p.Body) == "" {
		return &ValidationError{Field: "body", Message: "body must not be empty"}
	}
	if len(p.Body) > MaxBodyLength {
		return &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("body exceeds maximum length of %d characters", MaxBodyLength),
		}
	}
	return nil
}

// Sanitize normalizes an inbound visitor payload in place
func (p *VisitorMessagePayload) Sanitize() {
	p.Token = sanitizeString(p.Token)
	p.Body = sanitizeString(p.Body)
}

// Sanitize normalizes an inbound operator payload in place
func (p *OperatorMessagePayload) Sanitize() {
	p.TargetSessionRef = sanitizeString(p.TargetSessionRef)
	p.Body = sanitizeString(p.Body)
}

// Sanitize normalizes a join payload in place
func (p *JoinPayload) Sanitize() {
	p.Token = sanitizeString(p.Token)
	p.ClientDescriptor = sanitizeString(p.ClientDescriptor)
}

// sanitizeString removes null bytes and trims whitespace.
// HTML escaping is NOT applied here — it belongs at render time only.
// Escaping at ingestion garbles content sent to the completion provider
// (e.g., "<" becomes "&lt;"), degrading responses.
func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	return s
}

package domain

import "fmt"

// ValidationError is returned when the request is unusable as given.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GenerationReason tells apart the ways a ticket document can fail to build.
type GenerationReason string

const (
	ReasonImageMalformed GenerationReason = "image_malformed"
	ReasonAssemblyFailed GenerationReason = "assembly_failed"
)

// GenerationError is returned by the ticket generator. No document bytes
// accompany it.
type GenerationError struct {
	Reason GenerationReason
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ticket generation failed: %s", e.Reason)
	}
	return fmt.Sprintf("ticket generation failed: %s: %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError wraps whatever the mail gateway returned.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

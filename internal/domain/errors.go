package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrStaleState              = errors.New("plan was modified concurrently")
	ErrInvalidGenerationOutput = errors.New("generation output is not a JSON object")
	ErrTokenInvalid            = errors.New("access token expired or invalid")
	ErrPlanReferenced          = errors.New("plan has published access records")
	ErrGenerationInFlight      = errors.New("a generation is already running for this client")
	ErrNotEditable             = errors.New("plan can no longer be customized")
	ErrInvalidCustomization    = errors.New("invalid customization")
	ErrProviderUnavailable     = errors.New("generation provider unavailable")
)

// InvalidTransitionError reports an event fired from a state that does not accept it
type InvalidTransitionError struct {
	From  PlanStatus
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a plan in status %q", e.Event, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// GenerationError is returned to callers when generation attempts are exhausted
type GenerationError struct {
	Kind    FailureKind
	Message string
	LogID   uuid.UUID
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether a fresh attempt may succeed. Transport and
// malformed-output failures are both transient.
func (e *GenerationError) Retryable() bool {
	return e.Kind == FailureTransport || e.Kind == FailureMalformed
}

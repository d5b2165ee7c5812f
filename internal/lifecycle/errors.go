package lifecycle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// InvalidTransitionError means the requested edge is not in the registry.
// Not retryable without changing the request.
type InvalidTransitionError struct {
	Kind Kind
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s: %s -> %s", e.Kind, e.From, e.To)
}

// TerminalStateError means the entity is closed and takes no further
// status changes.
type TerminalStateError struct {
	Kind   Kind
	ID     uuid.UUID
	Status Status
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s %s is in terminal status %s", e.Kind, e.ID, e.Status)
}

// PayloadValidationError reports every offending payload field at once so
// the caller can surface all of them in a single round trip.
type PayloadValidationError struct {
	Fields map[string]string
}

func (e *PayloadValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// HasField reports whether the named field failed validation.
func (e *PayloadValidationError) HasField(name string) bool {
	_, ok := e.Fields[name]
	return ok
}

// ConcurrentModificationError means the optimistic-concurrency check failed:
// another request moved the entity first. Retryable after reloading.
type ConcurrentModificationError struct {
	Kind Kind
	ID   uuid.UUID
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently, reload and retry", e.Kind, e.ID)
}

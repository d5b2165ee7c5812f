package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/grupoventia/crm-comercial/internal/audit"
)

// Engine validates and computes status transitions. It is a pure
// computation: no clock reads, no persistence, no side effects. The caller
// persists the updated entity and audit record atomically, then hands the
// intents to the dispatcher.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// NewEngine creates the engine with the static transition registry.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		registry: NewRegistry(),
		logger:   logger,
	}
}

// Registry exposes the transition table for read-only collaborators
// (handlers listing allowed next statuses, tests).
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Outcome is the result of a successful transition request.
type Outcome struct {
	Entity  Entity
	Audit   *audit.Record
	Intents []Intent
}

// RequestTransition is the single entry point for every status change,
// direct or triggered. On success the entity has been moved to target and
// the returned audit record and intents are ready for the caller to persist
// and dispatch. On failure the entity is untouched.
func (e *Engine) RequestTransition(entity Entity, target Status, p Payload, actor string, now time.Time) (*Outcome, error) {
	kind := entity.EntityKind()
	from := entity.CurrentStatus()

	if e.registry.IsTerminal(kind, from) {
		return nil, &TerminalStateError{Kind: kind, ID: entity.EntityID(), Status: from}
	}
	if !e.registry.IsAllowed(kind, from, target) {
		return nil, &InvalidTransitionError{Kind: kind, From: from, To: target}
	}
	if err := e.validatePayload(kind, target, p); err != nil {
		return nil, err
	}

	entity.ApplyTransition(target, now, p)

	rec := &audit.Record{
		ID:         uuid.New(),
		EntityKind: string(kind),
		EntityID:   entity.EntityID(),
		FromStatus: string(from),
		ToStatus:   string(target),
		Payload:    datatypes.JSONMap(p),
		Actor:      actor,
		OccurredAt: now,
	}

	intents := entity.TransitionIntents(target, rec.ID, now)

	e.logger.Info("Transition computed",
		zap.String("kind", string(kind)),
		zap.String("entity_id", entity.EntityID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actor),
		zap.Int("intents", len(intents)))

	return &Outcome{Entity: entity, Audit: rec, Intents: intents}, nil
}

// validatePayload checks every declared field and collects all failures so
// the caller can surface them at once.
func (e *Engine) validatePayload(kind Kind, target Status, p Payload) error {
	fields := e.registry.RequiredPayloadFields(kind, target)
	if len(fields) == 0 {
		return nil
	}

	failures := map[string]string{}
	for _, f := range fields {
		v, present := p[f.Name]
		if !present {
			if f.Required {
				failures[f.Name] = "required"
			}
			continue
		}
		if f.Validate != nil {
			if err := f.Validate(v); err != nil {
				failures[f.Name] = err.Error()
			}
		}
	}

	if len(failures) > 0 {
		return &PayloadValidationError{Fields: failures}
	}
	return nil
}

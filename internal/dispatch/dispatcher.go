// Package dispatch executes the side-effect intents emitted by the
// lifecycle engine against external collaborators. Delivery is at least
// once: every store is expected to dedupe on the intent's key, and a replay
// that finds its work already done counts as applied.
package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// ErrAlreadyApplied lets a collaborator report that a replayed intent had
// no work left to do. The dispatcher records it as applied.
var ErrAlreadyApplied = errors.New("intent already applied")

// TaskStore receives follow-up task intents, keyed by
// (related entity, transition) for idempotency.
type TaskStore interface {
	CreateFollowUpTask(ctx context.Context, intent lifecycle.CreateFollowUpTask) error
}

// InvoiceStore receives cascading invoice status updates.
type InvoiceStore interface {
	UpdateStatus(ctx context.Context, invoiceID uuid.UUID, status string) error
}

// Sender receives notify-contact signals. Composing and delivering the
// actual message is entirely its concern.
type Sender interface {
	Notify(ctx context.Context, intent lifecycle.NotifyContact) error
}

// CaseResolver drives the synthetic payment-confirmed transition for a
// collections case through the regular transition entry point.
type CaseResolver interface {
	ConfirmPayment(ctx context.Context, caseID, gestionID uuid.UUID) error
}

// OutcomeStatus is the per-intent result.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "APPLIED"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

// IntentOutcome records what happened to one intent.
type IntentOutcome struct {
	Intent lifecycle.Intent
	Status OutcomeStatus
	Reason string
}

// Report aggregates the outcomes of one Dispatch call so the caller can
// retry or log failures. A failed intent never rolls back the committed
// transition that produced it.
type Report struct {
	Outcomes []IntentOutcome
}

// Failed returns the outcomes that did not apply.
func (r Report) Failed() []IntentOutcome {
	var out []IntentOutcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}

// AllApplied reports whether every intent applied.
func (r Report) AllApplied() bool {
	return len(r.Failed()) == 0
}

// Dispatcher fans intents out to the collaborators. Stateless apart from
// its wiring, safe for concurrent use.
type Dispatcher struct {
	tasks    TaskStore
	invoices InvoiceStore
	sender   Sender
	resolver CaseResolver
	logger   *zap.Logger
}

// New creates a dispatcher. The case resolver is wired separately because
// the collections service both emits intents and resolves them.
func New(tasks TaskStore, invoices InvoiceStore, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:    tasks,
		invoices: invoices,
		sender:   sender,
		logger:   logger,
	}
}

// SetCaseResolver wires the collections service in after construction.
func (d *Dispatcher) SetCaseResolver(r CaseResolver) {
	d.resolver = r
}

// Dispatch executes each intent independently: one failure never blocks
// the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []lifecycle.Intent) Report {
	report := Report{Outcomes: make([]IntentOutcome, 0, len(intents))}

	for _, intent := range intents {
		err := d.execute(ctx, intent)
		if err != nil && !errors.Is(err, ErrAlreadyApplied) {
			d.logger.Warn("Intent dispatch failed",
				zap.String("intent", intent.IntentName()),
				zap.String("dedup_key", intent.DedupKey()),
				zap.Error(err))
			report.Outcomes = append(report.Outcomes, IntentOutcome{
				Intent: intent,
				Status: OutcomeFailed,
				Reason: err.Error(),
			})
			continue
		}
		report.Outcomes = append(report.Outcomes, IntentOutcome{
			Intent: intent,
			Status: OutcomeApplied,
		})
	}

	return report
}

func (d *Dispatcher) execute(ctx context.Context, intent lifecycle.Intent) error {
	switch i := intent.(type) {
	case lifecycle.CreateFollowUpTask:
		if d.tasks == nil {
			return errors.New("task store not configured")
		}
		return d.tasks.CreateFollowUpTask(ctx, i)
	case lifecycle.CascadeInvoiceStatus:
		if d.invoices == nil {
			return errors.New("invoice store not configured")
		}
		return d.invoices.UpdateStatus(ctx, i.InvoiceID, i.NewStatus)
	case lifecycle.NotifyContact:
		if d.sender == nil {
			return errors.New("notification sender not configured")
		}
		return d.sender.Notify(ctx, i)
	case lifecycle.ConfirmCasePayment:
		if d.resolver == nil {
			return errors.New("case resolver not configured")
		}
		return d.resolver.ConfirmPayment(ctx, i.CaseID, i.GestionID)
	default:
		return errors.New("unknown intent " + intent.IntentName())
	}
}

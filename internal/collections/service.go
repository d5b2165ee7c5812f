package collections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/aging"
	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/dispatch"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// SystemActor is recorded on synthetic transitions triggered by gestion
// records rather than a direct user request.
const SystemActor = "system"

// CreateCaseRequest opens a case in PENDING for an overdue invoice.
type CreateCaseRequest struct {
	InvoiceID           uuid.UUID  `json:"invoice_id"`
	ClientID            uuid.UUID  `json:"client_id"`
	AssignedCollectorID *uuid.UUID `json:"assigned_collector_id,omitempty"`
}

// GestionRequest logs one contact attempt.
type GestionRequest struct {
	Channel      string     `json:"channel"`
	Result       string     `json:"result"`
	Comment      string     `json:"comment"`
	NextActionAt *time.Time `json:"next_action_at,omitempty"`
}

// Service wires the collections store to the lifecycle engine and
// dispatcher. It is also the dispatcher's CaseResolver: the synthetic
// payment-confirmed transition re-enters through the same engine entry
// point as a direct request, so the audit trail stays complete.
type Service struct {
	repo       Repository
	engine     *lifecycle.Engine
	dispatcher *dispatch.Dispatcher
	history    audit.History
	classifier aging.Classifier
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService creates the collections service.
func NewService(repo Repository, engine *lifecycle.Engine, dispatcher *dispatch.Dispatcher, history audit.History, classifier aging.Classifier, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		engine:     engine,
		dispatcher: dispatcher,
		history:    history,
		classifier: classifier,
		clock:      time.Now,
		logger:     logger,
	}
}

// CreateCase opens a case in PENDING.
func (s *Service) CreateCase(ctx context.Context, req CreateCaseRequest) (*CollectionsCase, error) {
	if req.InvoiceID == uuid.Nil {
		return nil, errors.New("invoice_id is required")
	}
	if req.ClientID == uuid.Nil {
		return nil, errors.New("client_id is required")
	}

	cc := &CollectionsCase{
		InvoiceID:           req.InvoiceID,
		ClientID:            req.ClientID,
		AssignedCollectorID: req.AssignedCollectorID,
		Status:              lifecycle.CasePending,
		StatusChangedAt:     s.clock(),
		Version:             1,
	}
	if err := s.repo.Create(ctx, cc); err != nil {
		return nil, err
	}
	return cc, nil
}

// Transition requests a direct status change (start managing, write off,
// manual paid).
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.Status, payload lifecycle.Payload, actor string) (*CollectionsCase, dispatch.Report, error) {
	cc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dispatch.Report{}, err
	}
	report, err := s.apply(ctx, cc, target, payload, actor)
	if err != nil {
		return nil, dispatch.Report{}, err
	}
	return cc, report, nil
}

// AddGestion appends a contact attempt to the case log and dispatches its
// consequences: a follow-up task when a next action was agreed, and the
// synthetic PAID transition when the payment was confirmed.
func (s *Service) AddGestion(ctx context.Context, caseID uuid.UUID, req GestionRequest, actor string) (*GestionRecord, dispatch.Report, error) {
	if !validChannel(req.Channel) {
		return nil, dispatch.Report{}, fmt.Errorf("invalid channel %q", req.Channel)
	}
	if !validResult(req.Result) {
		return nil, dispatch.Report{}, fmt.Errorf("invalid result %q", req.Result)
	}

	cc, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, dispatch.Report{}, err
	}
	if s.engine.Registry().IsTerminal(lifecycle.KindCollectionsCase, cc.Status) {
		return nil, dispatch.Report{}, &lifecycle.TerminalStateError{
			Kind: lifecycle.KindCollectionsCase, ID: cc.ID, Status: cc.Status,
		}
	}

	g := &GestionRecord{
		ID:           uuid.New(),
		CaseID:       caseID,
		Channel:      req.Channel,
		Result:       req.Result,
		Comment:      req.Comment,
		NextActionAt: req.NextActionAt,
		CreatedBy:    actor,
		CreatedAt:    s.clock(),
	}
	if err := s.repo.AppendGestion(ctx, g); err != nil {
		return nil, dispatch.Report{}, err
	}

	var intents []lifecycle.Intent
	if req.NextActionAt != nil {
		intents = append(intents, lifecycle.CreateFollowUpTask{
			RelatedEntityKind: lifecycle.KindCollectionsCase,
			RelatedEntityID:   caseID,
			TransitionID:      g.ID,
			Assignee:          cc.AssignedCollectorID,
			DueDate:           *req.NextActionAt,
			Description:       "Next collection action for invoice " + cc.Invoice.Folio,
		})
	}
	if req.Result == ResultPaymentConfirmed {
		intents = append(intents, lifecycle.ConfirmCasePayment{CaseID: caseID, GestionID: g.ID})
	}

	report := s.dispatcher.Dispatch(ctx, intents)
	if !report.AllApplied() {
		s.logger.Warn("Gestion side effects partially failed",
			zap.String("case_id", caseID.String()),
			zap.Int("failed", len(report.Failed())))
	}
	return g, report, nil
}

// ConfirmPayment implements dispatch.CaseResolver. Replays against an
// already-paid case report ErrAlreadyApplied, so processing the same
// gestion record twice moves the case exactly once.
func (s *Service) ConfirmPayment(ctx context.Context, caseID, gestionID uuid.UUID) error {
	cc, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return err
	}

	switch cc.Status {
	case lifecycle.CasePaid:
		return dispatch.ErrAlreadyApplied
	case lifecycle.CaseUncollectible:
		return &lifecycle.TerminalStateError{
			Kind: lifecycle.KindCollectionsCase, ID: cc.ID, Status: cc.Status,
		}
	case lifecycle.CasePending:
		// A confirmed payment on an untouched case still passes through
		// MANAGING so every hop is audited.
		if _, err := s.apply(ctx, cc, lifecycle.CaseManaging, nil, SystemActor); err != nil {
			return err
		}
	}

	payload := lifecycle.Payload{"paymentReference": "gestion:" + gestionID.String()}
	if _, err := s.apply(ctx, cc, lifecycle.CasePaid, payload, SystemActor); err != nil {
		return err
	}
	return nil
}

// apply runs one transition through the engine, commits it, and dispatches
// its intents.
func (s *Service) apply(ctx context.Context, cc *CollectionsCase, target lifecycle.Status, payload lifecycle.Payload, actor string) (dispatch.Report, error) {
	out, err := s.engine.RequestTransition(cc, target, payload, actor, s.clock())
	if err != nil {
		return dispatch.Report{}, err
	}
	if err := s.repo.SaveWithAudit(ctx, cc, out.Audit); err != nil {
		return dispatch.Report{}, err
	}
	report := s.dispatcher.Dispatch(ctx, out.Intents)
	if !report.AllApplied() {
		s.logger.Warn("Case side effects partially failed",
			zap.String("case_id", cc.ID.String()),
			zap.Int("failed", len(report.Failed())))
	}
	return report, nil
}

// Get returns the case with aging derived against the current clock.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CaseView, error) {
	cc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(*cc, s.clock())
	return &view, nil
}

// List returns cases with aging derived against one clock reading.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]CaseView, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	views := make([]CaseView, len(list))
	for i, cc := range list {
		views[i] = s.view(cc, now)
	}
	return views, nil
}

// Gestiones returns the case's contact log, newest first.
func (s *Service) Gestiones(ctx context.Context, caseID uuid.UUID) ([]GestionRecord, error) {
	return s.repo.GestionesFor(ctx, caseID)
}

// History returns the case's transition audit trail, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]audit.Record, error) {
	return s.history.HistoryFor(ctx, id)
}

func (s *Service) view(cc CollectionsCase, now time.Time) CaseView {
	return CaseView{
		CollectionsCase: cc,
		DaysOverdue:     aging.DaysOverdue(cc.Invoice.DueDate, now),
		Urgency:         s.classifier.Classify(cc.Invoice.DueDate, now),
	}
}

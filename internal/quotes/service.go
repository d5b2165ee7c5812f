package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/dispatch"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// CreateQuoteRequest creates a quote in DRAFT. Creation itself is not a
// transition; the engine owns every status change after this point.
type CreateQuoteRequest struct {
	Folio          string    `json:"folio"`
	ClientID       uuid.UUID `json:"client_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Total          float64   `json:"total"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// QuoteView is a quote plus its read-time effective status.
type QuoteView struct {
	Quote
	EffectiveStatus lifecycle.Status `json:"effective_status"`
}

// Service wires the quote store to the lifecycle engine and dispatcher.
type Service struct {
	repo       Repository
	engine     *lifecycle.Engine
	dispatcher *dispatch.Dispatcher
	history    audit.History
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService creates the quote service.
func NewService(repo Repository, engine *lifecycle.Engine, dispatcher *dispatch.Dispatcher, history audit.History, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		engine:     engine,
		dispatcher: dispatcher,
		history:    history,
		clock:      time.Now,
		logger:     logger,
	}
}

// Create inserts a new quote in DRAFT.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest) (*Quote, error) {
	if req.Folio == "" {
		return nil, errors.New("folio is required")
	}
	if req.ClientID == uuid.Nil {
		return nil, errors.New("client_id is required")
	}
	if req.SellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	if req.ExpirationDate.IsZero() {
		return nil, errors.New("expiration_date is required")
	}

	now := s.clock()
	q := &Quote{
		Folio:           req.Folio,
		ClientID:        req.ClientID,
		SellerID:        req.SellerID,
		Total:           req.Total,
		Status:          lifecycle.QuoteDraft,
		StatusChangedAt: now,
		ExpirationDate:  req.ExpirationDate,
		Version:         1,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Transition requests a status change through the engine, persists it with
// its audit record, then dispatches the side-effect intents. A dispatch
// failure never rolls back the committed transition.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.Status, payload lifecycle.Payload, actor string) (*Quote, dispatch.Report, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dispatch.Report{}, err
	}

	out, err := s.engine.RequestTransition(q, target, payload, actor, s.clock())
	if err != nil {
		return nil, dispatch.Report{}, err
	}

	if err := s.repo.SaveWithAudit(ctx, q, out.Audit); err != nil {
		return nil, dispatch.Report{}, err
	}

	report := s.dispatcher.Dispatch(ctx, out.Intents)
	if !report.AllApplied() {
		s.logger.Warn("Quote side effects partially failed",
			zap.String("quote_id", q.ID.String()),
			zap.Int("failed", len(report.Failed())))
	}
	return q, report, nil
}

// Get returns the quote with its effective status derived at read time.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*QuoteView, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuoteView{Quote: *q, EffectiveStatus: q.EffectiveStatus(s.clock())}, nil
}

// List returns quotes with effective statuses derived against one clock
// reading, so a whole page classifies consistently.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]QuoteView, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	views := make([]QuoteView, len(list))
	for i, q := range list {
		views[i] = QuoteView{Quote: q, EffectiveStatus: q.EffectiveStatus(now)}
	}
	return views, nil
}

// History returns the quote's transition audit trail, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]audit.Record, error) {
	return s.history.HistoryFor(ctx, id)
}

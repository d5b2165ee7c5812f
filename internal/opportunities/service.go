package opportunities

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

// CreateOpportunityRequest creates an opportunity in PROSPECTING.
type CreateOpportunityRequest struct {
	Name            string    `json:"name"`
	ClientID        uuid.UUID `json:"client_id"`
	SellerID        uuid.UUID `json:"seller_id"`
	EstimatedAmount float64   `json:"estimated_amount"`
	ExpectedCloseAt time.Time `json:"expected_close_at"`
}

// Service wires the opportunity store to the lifecycle engine and
// dispatcher.
type Service struct {
	repo       Repository
	engine     *lifecycle.Engine
	dispatcher *dispatch.Dispatcher
	history    audit.History
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService creates the opportunity service.
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

// Create inserts a new opportunity in PROSPECTING.
func (s *Service) Create(ctx context.Context, req CreateOpportunityRequest) (*Opportunity, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.ClientID == uuid.Nil {
		return nil, errors.New("client_id is required")
	}
	if req.SellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	if req.EstimatedAmount < 0 {
		return nil, errors.New("estimated_amount must be >= 0")
	}

	o := &Opportunity{
		Name:            req.Name,
		ClientID:        req.ClientID,
		SellerID:        req.SellerID,
		EstimatedAmount: req.EstimatedAmount,
		Status:          lifecycle.OpportunityProspecting,
		StatusChangedAt: s.clock(),
		ExpectedCloseAt: req.ExpectedCloseAt,
		Version:         1,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Transition moves the opportunity forward through the engine and
// dispatches the resulting intents.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.Status, payload lifecycle.Payload, actor string) (*Opportunity, dispatch.Report, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, dispatch.Report{}, err
	}

	out, err := s.engine.RequestTransition(o, target, payload, actor, s.clock())
	if err != nil {
		return nil, dispatch.Report{}, err
	}

	if err := s.repo.SaveWithAudit(ctx, o, out.Audit); err != nil {
		return nil, dispatch.Report{}, err
	}

	report := s.dispatcher.Dispatch(ctx, out.Intents)
	if !report.AllApplied() {
		s.logger.Warn("Opportunity side effects partially failed",
			zap.String("opportunity_id", o.ID.String()),
			zap.Int("failed", len(report.Failed())))
	}
	return o, report, nil
}

// Get returns one opportunity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Opportunity, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the pipeline with optional filters.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Opportunity, error) {
	return s.repo.List(ctx, filter)
}

// History returns the opportunity's transition audit trail, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]audit.Record, error) {
	return s.history.HistoryFor(ctx, id)
}

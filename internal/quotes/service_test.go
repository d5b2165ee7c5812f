package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/dispatch"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// fakeRepository keeps quotes in memory and enforces the same version guard
// the SQL store does.
type fakeRepository struct {
	mu         sync.Mutex
	quotes     map[uuid.UUID]Quote
	records    []audit.Record
	beforeSave func()
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{quotes: map[uuid.UUID]Quote{}}
}

func (r *fakeRepository) Create(ctx context.Context, q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	r.quotes[q.ID] = *q
	return nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, errors.New("quote not found")
	}
	copied := q
	return &copied, nil
}

func (r *fakeRepository) List(ctx context.Context, filter ListFilter) ([]Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Quote
	for _, q := range r.quotes {
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *fakeRepository) SaveWithAudit(ctx context.Context, q *Quote, rec *audit.Record) error {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.quotes[q.ID]
	if !ok || stored.Version != q.Version {
		return &lifecycle.ConcurrentModificationError{Kind: lifecycle.KindQuote, ID: q.ID}
	}
	q.Version++
	r.quotes[q.ID] = *q
	r.records = append([]audit.Record{*rec}, r.records...)
	return nil
}

// HistoryFor returns the fake's records newest first, like the SQL read side.
func (r *fakeRepository) HistoryFor(ctx context.Context, entityID uuid.UUID) ([]audit.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Record
	for _, rec := range r.records {
		if rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []lifecycle.NotifyContact
}

func (s *fakeSender) Notify(ctx context.Context, intent lifecycle.NotifyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, intent)
	return nil
}

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks []lifecycle.CreateFollowUpTask
}

func (s *fakeTaskStore) CreateFollowUpTask(ctx context.Context, intent lifecycle.CreateFollowUpTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, intent)
	return nil
}

func newTestService(t *testing.T, now time.Time) (*Service, *fakeRepository, *fakeSender, *fakeTaskStore) {
	t.Helper()
	repo := newFakeRepository()
	sender := &fakeSender{}
	tasks := &fakeTaskStore{}
	engine := lifecycle.NewEngine(zap.NewNop())
	dispatcher := dispatch.New(tasks, nil, sender, zap.NewNop())
	svc := NewService(repo, engine, dispatcher, repo, zap.NewNop())
	svc.clock = func() time.Time { return now }
	return svc, repo, sender, tasks
}

func createQuote(t *testing.T, svc *Service, now time.Time) *Quote {
	t.Helper()
	q, err := svc.Create(context.Background(), CreateQuoteRequest{
		Folio:          "Q-2026-0144",
		ClientID:       uuid.New(),
		SellerID:       uuid.New(),
		Total:          185000,
		ExpirationDate: now.AddDate(0, 0, 15),
	})
	require.NoError(t, err)
	return q
}

func TestCreateStartsInDraft(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newTestService(t, now)

	q := createQuote(t, svc, now)

	assert.Equal(t, lifecycle.QuoteDraft, q.Status)
	assert.Equal(t, 1, q.Version)
	assert.Empty(t, repo.records, "creation is not a transition and must not be audited")
}

func TestCreateRejectsIncompleteRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(t, now)

	_, err := svc.Create(context.Background(), CreateQuoteRequest{ClientID: uuid.New()})
	assert.Error(t, err)
}

func TestQuoteSendThenRejectLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, sender, _ := newTestService(t, now)
	ctx := context.Background()
	q := createQuote(t, svc, now)

	sent, report, err := svc.Transition(ctx, q.ID, lifecycle.QuoteSent, nil, "ana@ventia.mx")
	require.NoError(t, err)
	assert.True(t, report.AllApplied())
	assert.Equal(t, lifecycle.QuoteSent, sent.Status)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "quote_sent", sender.sent[0].Reason)

	rejected, _, err := svc.Transition(ctx, q.ID, lifecycle.QuoteRejected,
		lifecycle.Payload{"rejectionReason": "Budget cut"}, "ana@ventia.mx")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QuoteRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Budget cut", *rejected.RejectionReason)

	// A rejected quote is terminal; nothing moves it again.
	_, _, err = svc.Transition(ctx, q.ID, lifecycle.QuoteAccepted, nil, "ana@ventia.mx")
	var terminal *lifecycle.TerminalStateError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, lifecycle.QuoteRejected, terminal.Status)

	history, err := svc.History(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(lifecycle.QuoteRejected), history[0].ToStatus)
	assert.Equal(t, string(lifecycle.QuoteSent), history[0].FromStatus)
	assert.Equal(t, string(lifecycle.QuoteSent), history[1].ToStatus)
	assert.Equal(t, string(lifecycle.QuoteDraft), history[1].FromStatus)
	assert.Equal(t, "ana@ventia.mx", history[0].Actor)
}

func TestRejectWithoutReasonFailsValidation(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newTestService(t, now)
	ctx := context.Background()
	q := createQuote(t, svc, now)

	_, _, err := svc.Transition(ctx, q.ID, lifecycle.QuoteSent, nil, "ana@ventia.mx")
	require.NoError(t, err)

	_, _, err = svc.Transition(ctx, q.ID, lifecycle.QuoteRejected, nil, "ana@ventia.mx")
	var invalid *lifecycle.PayloadValidationError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, invalid.HasField("rejectionReason"))

	stored, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QuoteSent, stored.Status, "failed validation must leave the quote untouched")
}

func TestUnlistedTransitionRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(t, now)
	q := createQuote(t, svc, now)

	// DRAFT cannot jump straight to ACCEPTED.
	_, _, err := svc.Transition(context.Background(), q.ID, lifecycle.QuoteAccepted, nil, "ana@ventia.mx")
	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, lifecycle.QuoteDraft, invalid.From)
	assert.Equal(t, lifecycle.QuoteAccepted, invalid.To)
}

func TestAcceptedQuoteOpensFollowUpTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _, tasks := newTestService(t, now)
	ctx := context.Background()
	q := createQuote(t, svc, now)

	_, _, err := svc.Transition(ctx, q.ID, lifecycle.QuoteSent, nil, "ana@ventia.mx")
	require.NoError(t, err)
	_, _, err = svc.Transition(ctx, q.ID, lifecycle.QuoteAccepted, nil, "ana@ventia.mx")
	require.NoError(t, err)

	require.Len(t, tasks.tasks, 1)
	task := tasks.tasks[0]
	assert.Equal(t, q.ID, task.RelatedEntityID)
	assert.Equal(t, now.AddDate(0, 0, 2), task.DueDate)
	require.NotNil(t, task.Assignee)
	assert.Equal(t, q.SellerID, *task.Assignee)
}

func TestGetDerivesExpiredView(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newTestService(t, now)
	ctx := context.Background()
	q := createQuote(t, svc, now)

	_, _, err := svc.Transition(ctx, q.ID, lifecycle.QuoteSent, nil, "ana@ventia.mx")
	require.NoError(t, err)

	// Move the clock past the expiration date without touching the store.
	svc.clock = func() time.Time { return now.AddDate(0, 0, 20) }

	view, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QuoteExpired, view.EffectiveStatus)

	stored, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.QuoteSent, stored.Status, "the derived view never writes back")
}

func TestConcurrentTransitionLosesOnVersion(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, repo, _, _ := newTestService(t, now)
	ctx := context.Background()
	q := createQuote(t, svc, now)

	// An interleaved writer commits between our load and our save.
	interleaved := false
	repo.beforeSave = func() {
		if interleaved {
			return
		}
		interleaved = true
		repo.mu.Lock()
		stored := repo.quotes[q.ID]
		stored.Version++
		repo.quotes[q.ID] = stored
		repo.mu.Unlock()
	}

	_, _, err := svc.Transition(ctx, q.ID, lifecycle.QuoteSent, nil, "ana@ventia.mx")
	var conflict *lifecycle.ConcurrentModificationError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, q.ID, conflict.ID)
}

package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) CreateFollowUpTask(ctx context.Context, intent lifecycle.CreateFollowUpTask) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) UpdateStatus(ctx context.Context, invoiceID uuid.UUID, status string) error {
	args := m.Called(ctx, invoiceID, status)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Notify(ctx context.Context, intent lifecycle.NotifyContact) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ConfirmPayment(ctx context.Context, caseID, gestionID uuid.UUID) error {
	args := m.Called(ctx, caseID, gestionID)
	return args.Error(0)
}

func taskIntent() lifecycle.CreateFollowUpTask {
	return lifecycle.CreateFollowUpTask{
		RelatedEntityKind: lifecycle.KindOpportunity,
		RelatedEntityID:   uuid.New(),
		TransitionID:      uuid.New(),
		DueDate:           time.Now().AddDate(0, 0, 3),
		Description:       "post-sale follow-up",
	}
}

func TestDispatchRoutesIntents(t *testing.T) {
	taskStore := new(MockTaskStore)
	invoiceStore := new(MockInvoiceStore)
	sender := new(MockSender)
	d := New(taskStore, invoiceStore, sender, zap.NewNop())

	cascade := lifecycle.CascadeInvoiceStatus{InvoiceID: uuid.New(), NewStatus: "PAID", TransitionID: uuid.New()}
	notify := lifecycle.NotifyContact{EntityKind: lifecycle.KindQuote, EntityID: uuid.New(), Reason: "quote_sent", Reference: "t"}
	task := taskIntent()

	taskStore.On("CreateFollowUpTask", mock.Anything, task).Return(nil)
	invoiceStore.On("UpdateStatus", mock.Anything, cascade.InvoiceID, "PAID").Return(nil)
	sender.On("Notify", mock.Anything, notify).Return(nil)

	report := d.Dispatch(context.Background(), []lifecycle.Intent{task, cascade, notify})

	assert.True(t, report.AllApplied())
	assert.Len(t, report.Outcomes, 3)
	taskStore.AssertExpectations(t)
	invoiceStore.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatchOneFailureDoesNotBlockOthers(t *testing.T) {
	taskStore := new(MockTaskStore)
	invoiceStore := new(MockInvoiceStore)
	sender := new(MockSender)
	d := New(taskStore, invoiceStore, sender, zap.NewNop())

	task := taskIntent()
	cascade := lifecycle.CascadeInvoiceStatus{InvoiceID: uuid.New(), NewStatus: "PAID", TransitionID: uuid.New()}

	taskStore.On("CreateFollowUpTask", mock.Anything, task).Return(errors.New("task store down"))
	invoiceStore.On("UpdateStatus", mock.Anything, cascade.InvoiceID, "PAID").Return(nil)

	report := d.Dispatch(context.Background(), []lifecycle.Intent{task, cascade})

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, OutcomeFailed, report.Outcomes[0].Status)
	assert.Equal(t, "task store down", report.Outcomes[0].Reason)
	assert.Equal(t, OutcomeApplied, report.Outcomes[1].Status)
	assert.False(t, report.AllApplied())
	assert.Len(t, report.Failed(), 1)
	invoiceStore.AssertExpectations(t)
}

func TestDispatchAlreadyAppliedCountsAsApplied(t *testing.T) {
	resolver := new(MockResolver)
	d := New(nil, nil, nil, zap.NewNop())
	d.SetCaseResolver(resolver)

	confirm := lifecycle.ConfirmCasePayment{CaseID: uuid.New(), GestionID: uuid.New()}
	resolver.On("ConfirmPayment", mock.Anything, confirm.CaseID, confirm.GestionID).Return(ErrAlreadyApplied)

	report := d.Dispatch(context.Background(), []lifecycle.Intent{confirm})

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, OutcomeApplied, report.Outcomes[0].Status)
}

func TestDispatchMissingCollaboratorFailsThatIntentOnly(t *testing.T) {
	sender := new(MockSender)
	d := New(nil, nil, sender, zap.NewNop())

	notify := lifecycle.NotifyContact{EntityKind: lifecycle.KindQuote, EntityID: uuid.New(), Reason: "quote_sent", Reference: "x"}
	sender.On("Notify", mock.Anything, notify).Return(nil)

	report := d.Dispatch(context.Background(), []lifecycle.Intent{taskIntent(), notify})

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, OutcomeFailed, report.Outcomes[0].Status)
	assert.Equal(t, OutcomeApplied, report.Outcomes[1].Status)
}

func TestDispatchEmptyIntents(t *testing.T) {
	d := New(nil, nil, nil, zap.NewNop())

	report := d.Dispatch(context.Background(), nil)

	assert.True(t, report.AllApplied())
	assert.Empty(t, report.Outcomes)
}

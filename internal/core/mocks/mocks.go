package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
)

// MockRiskStateRepository is a mock implementation of ports.RiskStateRepository
type MockRiskStateRepository struct {
	mock.Mock
}

func NewMockRiskStateRepository() *MockRiskStateRepository {
	return &MockRiskStateRepository{}
}

func (m *MockRiskStateRepository) Append(ctx context.Context, metrics *domain.SLAMetrics) error {
	args := m.Called(ctx, metrics)
	return args.Error(0)
}

func (m *MockRiskStateRepository) Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SLAMetrics), args.Error(1)
}

func (m *MockRiskStateRepository) History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error) {
	args := m.Called(ctx, ticketID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SLAMetrics), args.Error(1)
}

func (m *MockRiskStateRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Upsert(ctx context.Context, ticket *domain.TicketSnapshot) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, ticketID string) (*domain.TicketSnapshot, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketSnapshot), args.Error(1)
}

func (m *MockTicketRepository) ListActive(ctx context.Context, limit int) ([]*domain.TicketSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TicketSnapshot), args.Error(1)
}

func (m *MockTicketRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPredictor is a mock implementation of ports.Predictor
type MockPredictor struct {
	mock.Mock
}

func NewMockPredictor() *MockPredictor {
	return &MockPredictor{}
}

func (m *MockPredictor) Predict(ctx context.Context, features ports.Features) (float64, float64, error) {
	args := m.Called(ctx, features)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.OutputEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockActionExecutor is a mock implementation of ports.ActionExecutor
type MockActionExecutor struct {
	mock.Mock
}

func NewMockActionExecutor() *MockActionExecutor {
	return &MockActionExecutor{}
}

func (m *MockActionExecutor) Execute(ctx context.Context, ticket *domain.TicketSnapshot, prediction domain.Prediction) []domain.ActionRecord {
	args := m.Called(ctx, ticket, prediction)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ActionRecord)
}

// MockImpactValidator is a mock implementation of ports.ImpactValidator
type MockImpactValidator struct {
	mock.Mock
}

func NewMockImpactValidator() *MockImpactValidator {
	return &MockImpactValidator{}
}

func (m *MockImpactValidator) ValidateImpact(ctx context.Context, ticketID string, records []domain.ActionRecord) {
	m.Called(ctx, ticketID, records)
}

// MockEvaluationService is a mock implementation of ports.EvaluationService
type MockEvaluationService struct {
	mock.Mock
}

func NewMockEvaluationService() *MockEvaluationService {
	return &MockEvaluationService{}
}

func (m *MockEvaluationService) Evaluate(ctx context.Context, event ports.TicketEvent) (*domain.EvaluationOutcome, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EvaluationOutcome), args.Error(1)
}

func (m *MockEvaluationService) EvaluateTicket(ctx context.Context, ticket *domain.TicketSnapshot) (*domain.EvaluationOutcome, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EvaluationOutcome), args.Error(1)
}

func (m *MockEvaluationService) Sweep(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAdjustmentService is a mock implementation of ports.AdjustmentService
type MockAdjustmentService struct {
	mock.Mock
}

func NewMockAdjustmentService() *MockAdjustmentService {
	return &MockAdjustmentService{}
}

func (m *MockAdjustmentService) Apply(ctx context.Context, ticketID string, adjustment domain.AdjustmentEvent) (*domain.SLAMetrics, error) {
	args := m.Called(ctx, ticketID, adjustment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SLAMetrics), args.Error(1)
}

// MockRiskQueryService is a mock implementation of ports.RiskQueryService
type MockRiskQueryService struct {
	mock.Mock
}

func NewMockRiskQueryService() *MockRiskQueryService {
	return &MockRiskQueryService{}
}

func (m *MockRiskQueryService) Latest(ctx context.Context, ticketID string) (*domain.SLAMetrics, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SLAMetrics), args.Error(1)
}

func (m *MockRiskQueryService) History(ctx context.Context, ticketID string, limit int) ([]*domain.SLAMetrics, error) {
	args := m.Called(ctx, ticketID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SLAMetrics), args.Error(1)
}

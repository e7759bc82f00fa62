package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/ledger"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
)

// === Mock implementations ===

// MockSeatLedger implements ledger.Ledger
type MockSeatLedger struct {
	mock.Mock
}

func (m *MockSeatLedger) TryDecrement(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatLedger) Increment(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockSeatLedger) Remaining(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Insert(ctx context.Context, r *reservation.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) Delete(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

// MockCompensationEnqueuer implements CompensationEnqueuer
type MockCompensationEnqueuer struct {
	mock.Mock
}

func (m *MockCompensationEnqueuer) EnqueueCredit(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// MockCacheInvalidator implements CacheInvalidator
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) Invalidate(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func newTestService(sl *MockSeatLedger, rr *MockReservationRepository, ce *MockCompensationEnqueuer) *ReservationService {
	cache := new(MockCacheInvalidator)
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewReservationService(sl, rr, ce, cache)
}

// === AttemptReservation ===

func TestAttemptReservation_Committed(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "event-1").Return(true, nil)
	rr.On("Insert", mock.Anything, mock.MatchedBy(func(r *reservation.Reservation) bool {
		return r.EventID == "event-1" && r.UserID == "user-1"
	})).Return(nil)

	res, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "event-1", res.EventID)
	assert.Equal(t, "user-1", res.UserID)
	sl.AssertExpectations(t)
	rr.AssertExpectations(t)
	// 成功パスでは補償は発生しない
	ce.AssertNotCalled(t, "EnqueueCredit", mock.Anything, mock.Anything)
	sl.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}

func TestAttemptReservation_SoldOut(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "event-1").Return(false, nil)

	_, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	assert.ErrorIs(t, err, reservation.ErrSoldOut)
	// 満席の高速リジェクトでは予約ストアに一切触れない
	rr.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	sl.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}

func TestAttemptReservation_EventNotFound(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "missing").Return(false, event.ErrEventNotFound)

	_, err := svc.AttemptReservation(context.Background(), "missing", "user-1")

	assert.ErrorIs(t, err, event.ErrEventNotFound)
	rr.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAttemptReservation_LedgerUnavailable(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "event-1").Return(false, ledger.ErrUnavailable)

	_, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	// 内部エラーの詳細は漏らさない
	assert.ErrorIs(t, err, reservation.ErrReservationFailed)
	rr.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAttemptReservation_Duplicate_CompensatesSeat(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "event-1").Return(true, nil)
	rr.On("Insert", mock.Anything, mock.Anything).Return(reservation.ErrDuplicateReservation)
	// 重複検出時は確保済みの席を返す
	sl.On("Increment", mock.Anything, "event-1").Return(nil)

	_, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	assert.ErrorIs(t, err, reservation.ErrDuplicateReservation)
	sl.AssertCalled(t, "Increment", mock.Anything, "event-1")
	ce.AssertNotCalled(t, "EnqueueCredit", mock.Anything, mock.Anything)
}

func TestAttemptReservation_InsertFailure_CompensatesAndHidesDetails(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	storageErr := errors.New("connection reset by peer")
	sl.On("TryDecrement", mock.Anything, "event-1").Return(true, nil)
	rr.On("Insert", mock.Anything, mock.Anything).Return(storageErr)
	sl.On("Increment", mock.Anything, "event-1").Return(nil)

	_, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	assert.ErrorIs(t, err, reservation.ErrReservationFailed)
	// ストレージの生エラーは呼び出し側に露出しない
	assert.NotContains(t, err.Error(), "connection reset")
	sl.AssertCalled(t, "Increment", mock.Anything, "event-1")
}

func TestAttemptReservation_CompensationFailure_EnqueuesDurableRetry(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	sl.On("TryDecrement", mock.Anything, "event-1").Return(true, nil)
	rr.On("Insert", mock.Anything, mock.Anything).Return(reservation.ErrDuplicateReservation)
	// 補償のIncrementまで失敗 → 耐久リトライキューへ
	sl.On("Increment", mock.Anything, "event-1").Return(ledger.ErrUnavailable)
	ce.On("EnqueueCredit", mock.Anything, "event-1").Return(nil)

	_, err := svc.AttemptReservation(context.Background(), "event-1", "user-1")

	assert.ErrorIs(t, err, reservation.ErrDuplicateReservation)
	ce.AssertCalled(t, "EnqueueCredit", mock.Anything, "event-1")
}

func TestAttemptReservation_ValidatesInput(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	_, err := svc.AttemptReservation(context.Background(), "", "user-1")
	assert.ErrorIs(t, err, reservation.ErrEventIDRequired)

	_, err = svc.AttemptReservation(context.Background(), "event-1", "")
	assert.ErrorIs(t, err, reservation.ErrUserIDRequired)

	// 不正な入力では台帳に触れない
	sl.AssertNotCalled(t, "TryDecrement", mock.Anything, mock.Anything)
}

// === CancelReservation ===

func TestCancelReservation_CreditsSeat(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("Delete", mock.Anything, "res-1").Return("event-1", nil)
	sl.On("Increment", mock.Anything, "event-1").Return(nil)

	err := svc.CancelReservation(context.Background(), "res-1")

	require.NoError(t, err)
	sl.AssertCalled(t, "Increment", mock.Anything, "event-1")
}

func TestCancelReservation_Idempotent(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("Delete", mock.Anything, "res-1").Return("", reservation.ErrReservationNotFound)

	// 二重キャンセルはエラーではなく、席を二重に返すこともない
	err := svc.CancelReservation(context.Background(), "res-1")

	require.NoError(t, err)
	sl.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}

func TestCancelReservation_DeleteFailure(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("Delete", mock.Anything, "res-1").Return("", errors.New("disk full"))

	err := svc.CancelReservation(context.Background(), "res-1")

	assert.ErrorIs(t, err, reservation.ErrReservationFailed)
	assert.NotContains(t, err.Error(), "disk full")
	sl.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}

func TestCancelReservation_CreditFailure_EnqueuesDurableRetry(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("Delete", mock.Anything, "res-1").Return("event-1", nil)
	sl.On("Increment", mock.Anything, "event-1").Return(ledger.ErrUnavailable)
	ce.On("EnqueueCredit", mock.Anything, "event-1").Return(nil)

	// 削除は永続化済みなので呼び出し側には成功を返し、クレジットはキューでやり直す
	err := svc.CancelReservation(context.Background(), "res-1")

	require.NoError(t, err)
	ce.AssertCalled(t, "EnqueueCredit", mock.Anything, "event-1")
}

func TestCancelReservation_InvariantViolation_NotRetried(t *testing.T) {
	// DPanicは開発ロガーではパニックするため、このテストではNopロガーに差し替える
	prev := logger.Get()
	logger.Set(zap.NewNop())
	defer logger.Set(prev)

	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("Delete", mock.Anything, "res-1").Return("event-1", nil)
	sl.On("Increment", mock.Anything, "event-1").Return(ledger.ErrInvariantViolation)

	err := svc.CancelReservation(context.Background(), "res-1")

	// 不変条件違反は再試行しても直らないため、キューには積まない
	require.NoError(t, err)
	ce.AssertNotCalled(t, "EnqueueCredit", mock.Anything, mock.Anything)
}

// === Read operations ===

func TestGetUserReservations_LimitDefaults(t *testing.T) {
	sl := new(MockSeatLedger)
	rr := new(MockReservationRepository)
	ce := new(MockCompensationEnqueuer)
	svc := newTestService(sl, rr, ce)

	rr.On("GetByUserID", mock.Anything, "user-1", 20, 0).Return([]*reservation.Reservation{}, nil)

	_, err := svc.GetUserReservations(context.Background(), "user-1", 0, -5)

	require.NoError(t, err)
	rr.AssertCalled(t, "GetByUserID", mock.Anything, "user-1", 20, 0)
}

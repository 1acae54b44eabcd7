package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context, level transaction.IsolationLevel) (transaction.Tx, error) {
	args := m.Called(ctx, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) EffectiveIsolation(ctx context.Context) (transaction.IsolationLevel, error) {
	args := m.Called(ctx)
	return args.Get(0).(transaction.IsolationLevel), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) Get(ctx context.Context, tx transaction.Tx, id string) (*seat.Seat, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) MarkReserving(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, id, sessionID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeatRepository) MarkBooked(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, id, sessionID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeatRepository) Reset(ctx context.Context, tx transaction.Tx, id string) (int64, error) {
	args := m.Called(ctx, tx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccountRepository implements account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	args := m.Called(ctx, tx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	args := m.Called(ctx, tx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// MockSnapshotCache implements SnapshotCache
type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) GetSnapshot(ctx context.Context, seatID string) (*seat.Seat, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSnapshotCache) SetSnapshot(ctx context.Context, s *seat.Seat, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockSnapshotCache) Invalidate(ctx context.Context, seatID string) error {
	args := m.Called(ctx, seatID)
	return args.Error(0)
}

// MockDatabaseProbe implements DatabaseProbe
type MockDatabaseProbe struct {
	mock.Mock
}

func (m *MockDatabaseProbe) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatabaseProbe) Version(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// expectTx は Begin から EffectiveIsolation までの共通の期待値を設定する
func expectTx(tm *MockTxManager, tx *MockTx, requested, effective transaction.IsolationLevel) {
	tm.On("Begin", mock.Anything, requested).Return(tx, nil)
	tx.On("EffectiveIsolation", mock.Anything).Return(effective, nil)
}

package handler_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Book(ctx context.Context, input application.BookInput) (*application.BookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.BookingResult), args.Error(1)
}

func (m *MockBookingService) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTransferService はTransferServiceInterfaceのモック
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, input application.TransferInput) (*application.TransferResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.TransferResult), args.Error(1)
}

func (m *MockTransferService) ExecuteTransfer(ctx context.Context) (*application.TransferResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.TransferResult), args.Error(1)
}

// MockStatusService はStatusServiceInterfaceのモック
type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) SeatSnapshot(ctx context.Context) (*seat.Seat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockStatusService) Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockStatusService) DatabaseVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

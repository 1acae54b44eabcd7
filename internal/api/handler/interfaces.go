package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
)

// BookingServiceInterface は座席予約サービスのインターフェース
type BookingServiceInterface interface {
	Book(ctx context.Context, input application.BookInput) (*application.BookingResult, error)
	Reset(ctx context.Context) error
}

// TransferServiceInterface は送金サービスのインターフェース
type TransferServiceInterface interface {
	Transfer(ctx context.Context, input application.TransferInput) (*application.TransferResult, error)
	ExecuteTransfer(ctx context.Context) (*application.TransferResult, error)
}

// StatusServiceInterface は状態参照サービスのインターフェース
type StatusServiceInterface interface {
	SeatSnapshot(ctx context.Context) (*seat.Seat, error)
	Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
	DatabaseVersion(ctx context.Context) (string, error)
}

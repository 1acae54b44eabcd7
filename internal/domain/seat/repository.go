package seat

import (
	"context"
	"time"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
// 条件付き更新は影響行数を返し、判定は呼び出し側（transaction.DetectWrite）が行う
type Repository interface {
	// GetByID はトランザクション外のスナップショット読み取り
	GetByID(ctx context.Context, id string) (*Seat, error)

	// Get はトランザクション内で座席を読む（存在しなければ ErrSeatNotFound）
	Get(ctx context.Context, tx transaction.Tx, id string) (*Seat, error)

	// MarkReserving は status = 'available' を前提に reserving へ更新する
	MarkReserving(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error)

	// MarkBooked は reserved_by = sessionID を前提に booked へ更新する
	MarkBooked(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error)

	// Reset は座席を available に戻す（トランザクション必須）
	Reset(ctx context.Context, tx transaction.Tx, id string) (int64, error)
}

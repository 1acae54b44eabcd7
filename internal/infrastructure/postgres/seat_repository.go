package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

const seatColumns = `seat_id, status, price, reserved_by, reserved_at, booked_by, booked_at`

type seatRow struct {
	ID         string          `db:"seat_id"`
	Status     string          `db:"status"`
	Price      decimal.Decimal `db:"price"`
	ReservedBy *string         `db:"reserved_by"`
	ReservedAt *time.Time      `db:"reserved_at"`
	BookedBy   *string         `db:"booked_by"`
	BookedAt   *time.Time      `db:"booked_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, Status: seat.Status(r.Status), Price: r.Price,
		ReservedBy: r.ReservedBy, ReservedAt: r.ReservedAt,
		BookedBy: r.BookedBy, BookedAt: r.BookedAt,
	}
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	return r.get(ctx, r.db, id)
}

func (r *SeatRepository) Get(ctx context.Context, tx transaction.Tx, id string) (*seat.Seat, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlTx, id)
}

func (r *SeatRepository) get(ctx context.Context, q sqlx.QueryerContext, id string) (*seat.Seat, error) {
	var row seatRow
	query := `SELECT ` + seatColumns + ` FROM seats WHERE seat_id = $1`
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", translateError(err))
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) MarkReserving(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	query := `UPDATE seats SET status = 'reserving', reserved_by = $1, reserved_at = $2 WHERE seat_id = $3 AND status = 'available'`
	return r.exec(ctx, tx, "座席確保に失敗", query, sessionID, at, id)
}

func (r *SeatRepository) MarkBooked(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	query := `UPDATE seats SET status = 'booked', booked_by = $1, booked_at = $2, reserved_by = NULL, reserved_at = NULL WHERE seat_id = $3 AND reserved_by = $1`
	return r.exec(ctx, tx, "座席確定に失敗", query, sessionID, at, id)
}

func (r *SeatRepository) Reset(ctx context.Context, tx transaction.Tx, id string) (int64, error) {
	query := `UPDATE seats SET status = 'available', booked_by = NULL, reserved_by = NULL, booked_at = NULL, reserved_at = NULL WHERE seat_id = $1`
	return r.exec(ctx, tx, "座席リセットに失敗", query, id)
}

func (r *SeatRepository) exec(ctx context.Context, tx transaction.Tx, op, query string, args ...interface{}) (int64, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	result, err := sqlTx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

var _ seat.Repository = (*SeatRepository)(nil)

//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-isolation-booking/internal/config"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	cfg := config.Load()

	db, err := NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}
	if _, err := RunMigrations(db.DB, "../../../migrations"); err != nil {
		db.Close()
		t.Fatalf("マイグレーション失敗: %v", err)
	}

	resetFixtures(t, db)
	t.Cleanup(func() {
		resetFixtures(t, db)
		db.Close()
	})
	return db
}

func resetFixtures(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`UPDATE seats SET status = 'available', reserved_by = NULL, reserved_at = NULL, booked_by = NULL, booked_at = NULL WHERE seat_id = 'A1'`)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE accounts SET balance = CASE account_id WHEN 'Virat' THEN 200.00 WHEN 'Rohit' THEN 10.00 END WHERE account_id IN ('Virat', 'Rohit')`)
	require.NoError(t, err)
}

func TestTxManager_EffectiveIsolation(t *testing.T) {
	db := setupTestDB(t)
	m := NewTxManager(db)
	ctx := context.Background()

	tests := []struct {
		requested transaction.IsolationLevel
		effective transaction.IsolationLevel
	}{
		{transaction.ReadUncommitted, transaction.ReadCommitted},
		{transaction.ReadCommitted, transaction.ReadCommitted},
		{transaction.RepeatableRead, transaction.RepeatableRead},
		{transaction.Serializable, transaction.Serializable},
	}

	for _, tt := range tests {
		t.Run(tt.requested.String(), func(t *testing.T) {
			tx, err := m.Begin(ctx, tt.requested)
			require.NoError(t, err)
			defer tx.Rollback()

			got, err := tx.EffectiveIsolation(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.effective, got)
			assert.Equal(t, tt.requested, tx.(*TxWrapper).Requested())
		})
	}
}

func TestSeatRepository_StateTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSeatRepository(db)
	m := NewTxManager(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	tx, err := m.Begin(ctx, transaction.ReadCommitted)
	require.NoError(t, err)
	defer tx.Rollback()

	current, err := repo.Get(ctx, tx, "A1")
	require.NoError(t, err)
	assert.Equal(t, seat.StatusAvailable, current.Status)
	assert.True(t, decimal.RequireFromString("25.00").Equal(current.Price))

	rows, err := repo.MarkReserving(ctx, tx, "A1", "s1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.MarkReserving(ctx, tx, "A1", "s2", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "reserving の座席は再確保できない")

	rows, err = repo.MarkBooked(ctx, tx, "A1", "s2", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "reserved_by が違えば確定できない")

	rows, err = repo.MarkBooked(ctx, tx, "A1", "s1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NoError(t, tx.Commit())

	booked, err := repo.GetByID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, seat.StatusBooked, booked.Status)
	assert.Equal(t, "s1", *booked.BookedBy)
	assert.Nil(t, booked.ReservedBy)
	assert.NoError(t, booked.CheckInvariant())

	tx, err = m.Begin(ctx, transaction.ReadCommitted)
	require.NoError(t, err)
	rows, err = repo.Reset(ctx, tx, "A1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NoError(t, tx.Commit())

	reset, err := repo.GetByID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, seat.StatusAvailable, reset.Status)
	assert.NoError(t, reset.CheckInvariant())

	_, err = repo.GetByID(ctx, "Z9")
	assert.ErrorIs(t, err, seat.ErrSeatNotFound)
}

func TestSeatRepository_RepeatableReadConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSeatRepository(db)
	m := NewTxManager(db)
	ctx := context.Background()

	tx1, err := m.Begin(ctx, transaction.RepeatableRead)
	require.NoError(t, err)
	defer tx1.Rollback()
	tx2, err := m.Begin(ctx, transaction.RepeatableRead)
	require.NoError(t, err)
	defer tx2.Rollback()

	// 両方がスナップショットを取る
	_, err = repo.Get(ctx, tx1, "A1")
	require.NoError(t, err)
	_, err = repo.Get(ctx, tx2, "A1")
	require.NoError(t, err)

	rows, err := repo.MarkReserving(ctx, tx1, "A1", "s1", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
	require.NoError(t, tx1.Commit())

	_, err = repo.MarkReserving(ctx, tx2, "A1", "s2", time.Now())
	assert.ErrorIs(t, err, transaction.ErrSerializationFailure)
}

func TestAccountRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	m := NewTxManager(db)
	ctx := context.Background()

	balances, err := repo.Balances(ctx, []string{"Virat", "Rohit", "Nobody"})
	require.NoError(t, err)
	assert.Len(t, balances, 2)
	assert.True(t, decimal.RequireFromString("200.00").Equal(balances["Virat"]))

	tx, err := m.Begin(ctx, transaction.ReadCommitted)
	require.NoError(t, err)
	defer tx.Rollback()

	rows, err := repo.Debit(ctx, tx, "Rohit", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "残高不足の出金は0行")

	rows, err = repo.Debit(ctx, tx, "Virat", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.Credit(ctx, tx, "Nobody", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	got, err := repo.Get(ctx, tx, "Virat")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.00").Equal(got.Balance))
	require.NoError(t, tx.Rollback())

	// ロールバック後は元の残高
	balances, err = repo.Balances(ctx, []string{"Virat"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("200.00").Equal(balances["Virat"]))
}

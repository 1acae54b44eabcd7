package application

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

func newAuditFixture() (*AuditService, *fakeStore, *metrics.Metrics) {
	store := newFakeStore()
	store.accounts["Virat"] = dec("200.00")
	store.accounts["Rohit"] = dec("10.00")
	m := metrics.NewNop()
	service := NewAuditService(&fakeSeatRepo{store: store}, &fakeAccountRepo{store: store}, m, "A1", []string{"Virat", "Rohit"})
	return service, store, m
}

func TestAuditService_Audit(t *testing.T) {
	ctx := context.Background()

	t.Run("送金後も合計は変わらない", func(t *testing.T) {
		audit, store, m := newAuditFixture()

		first, err := audit.Audit(ctx)
		require.NoError(t, err)
		assert.True(t, first.Healthy())
		assert.True(t, dec("210.00").Equal(first.Baseline))

		transfer := NewTransferService(NewTxCoordinator(store, m, 0), &fakeAccountRepo{store: store}, m,
			TransferDefaults{From: "Virat", To: "Rohit", Amount: dec("100")})
		_, err = transfer.ExecuteTransfer(ctx)
		require.NoError(t, err)

		second, err := audit.Audit(ctx)
		require.NoError(t, err)
		assert.True(t, second.Healthy())
		assert.Equal(t, 0.0, testutil.ToFloat64(m.InvariantViolations.WithLabelValues("balance_sum")))
	})

	t.Run("合計が変わると違反になる", func(t *testing.T) {
		audit, store, m := newAuditFixture()
		_, err := audit.Audit(ctx)
		require.NoError(t, err)

		store.accounts["Rohit"] = dec("110.00")

		report, err := audit.Audit(ctx)
		require.NoError(t, err)
		assert.True(t, report.SumMismatch)
		assert.False(t, report.Healthy())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.InvariantViolations.WithLabelValues("balance_sum")))

		audit.ResetBaseline()
		report, err = audit.Audit(ctx)
		require.NoError(t, err)
		assert.False(t, report.SumMismatch)
	})

	t.Run("座席の状態と所有者が食い違うと違反になる", func(t *testing.T) {
		audit, store, m := newAuditFixture()
		broken := store.seats["A1"]
		broken.Status = seat.StatusBooked
		store.seats["A1"] = broken

		report, err := audit.Audit(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, report.SeatError, seat.ErrInvariantBroken)
		assert.Equal(t, seat.StatusBooked, report.SeatStatus)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.InvariantViolations.WithLabelValues("seat")))
	})

	t.Run("読み取りエラー", func(t *testing.T) {
		repo := new(MockSeatRepository)
		repo.On("GetByID", ctx, "A1").Return(nil, errors.New("connection refused"))
		audit := NewAuditService(repo, new(MockAccountRepository), metrics.NewNop(), "A1", nil)

		_, err := audit.Audit(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "座席の監査に失敗")
	})
}

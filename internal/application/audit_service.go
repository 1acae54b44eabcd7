package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

const (
	violationSeat       = "seat"
	violationBalanceSum = "balance_sum"
)

// AuditReport は監査1回分の結果
type AuditReport struct {
	SeatStatus  seat.Status
	SeatError   error
	BalanceSum  decimal.Decimal
	Baseline    decimal.Decimal
	SumMismatch bool
}

// Healthy は違反がなかったかを返す
func (r *AuditReport) Healthy() bool {
	return r.SeatError == nil && !r.SumMismatch
}

// AuditService は座席の状態と口座残高の合計を外から検査する
// 送金は残高の合計を変えないので、合計が変われば原子性が破れている
type AuditService struct {
	seatRepo    seat.Repository
	accountRepo account.Repository
	metrics     *metrics.Metrics
	seatID      string
	accountIDs  []string

	mu       sync.Mutex
	baseline *decimal.Decimal
}

func NewAuditService(sr seat.Repository, ar account.Repository, m *metrics.Metrics, seatID string, accountIDs []string) *AuditService {
	return &AuditService{seatRepo: sr, accountRepo: ar, metrics: m, seatID: seatID, accountIDs: accountIDs}
}

// Audit は不変条件を検査してメトリクスを更新する
func (s *AuditService) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{}

	current, err := s.seatRepo.GetByID(ctx, s.seatID)
	if err != nil {
		return nil, fmt.Errorf("座席の監査に失敗: %w", err)
	}
	report.SeatStatus = current.Status
	report.SeatError = current.CheckInvariant()

	balances, err := s.accountRepo.Balances(ctx, s.accountIDs)
	if err != nil {
		return nil, fmt.Errorf("残高の監査に失敗: %w", err)
	}
	report.BalanceSum = account.Sum(balances)

	s.mu.Lock()
	if s.baseline == nil {
		sum := report.BalanceSum
		s.baseline = &sum
	}
	report.Baseline = *s.baseline
	s.mu.Unlock()
	report.SumMismatch = !report.BalanceSum.Equal(report.Baseline)

	s.metrics.InvariantViolations.WithLabelValues(violationSeat).Set(flag(report.SeatError != nil))
	s.metrics.InvariantViolations.WithLabelValues(violationBalanceSum).Set(flag(report.SumMismatch))

	if report.SeatError != nil {
		logger.Error("座席の不変条件違反を検出", zap.String("seat_id", s.seatID), zap.Error(report.SeatError))
	}
	if report.SumMismatch {
		logger.Error("残高合計が変化しました",
			zap.Stringer("sum", report.BalanceSum),
			zap.Stringer("baseline", report.Baseline),
		)
	}
	return report, nil
}

// ResetBaseline は次回の監査で残高合計の基準を取り直す
func (s *AuditService) ResetBaseline() {
	s.mu.Lock()
	s.baseline = nil
	s.mu.Unlock()
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

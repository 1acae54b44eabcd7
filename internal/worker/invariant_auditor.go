package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
)

// Auditor は不変条件を検査するインターフェース
type Auditor interface {
	Audit(ctx context.Context) (*application.AuditReport, error)
}

// Guard は複数インスタンスのうち1つだけが処理を実行するための排他
type Guard interface {
	RunExclusive(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error)
}

const auditLockKey = "invariant-audit"

// InvariantAuditor は座席と口座残高の不変条件を定期的に検査するワーカー
type InvariantAuditor struct {
	auditor  Auditor
	guard    Guard
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewInvariantAuditor は新しい監査ワーカーを作成
func NewInvariantAuditor(a Auditor, interval time.Duration) *InvariantAuditor {
	return &InvariantAuditor{
		auditor:  a,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// WithGuard は監査をインスタンス間で排他にする
func (w *InvariantAuditor) WithGuard(g Guard) *InvariantAuditor {
	w.guard = g
	return w
}

// Start は監査を開始
func (w *InvariantAuditor) Start(ctx context.Context) {
	logger.Info("不変条件の監査開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("不変条件の監査停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("不変条件の監査停止（シグナル受信）")
			return
		case <-ticker.C:
			w.audit(ctx)
		}
	}
}

// Stop は監査を停止
func (w *InvariantAuditor) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *InvariantAuditor) audit(ctx context.Context) {
	if w.guard == nil {
		w.runAudit(ctx)
		return
	}

	ran, err := w.guard.RunExclusive(ctx, auditLockKey, w.interval, func(ctx context.Context) error {
		w.runAudit(ctx)
		return nil
	})
	if err != nil {
		logger.Warn("監査ロックの操作に失敗", zap.Error(err))
		return
	}
	if !ran {
		logger.Debug("他のインスタンスが監査中のためスキップ")
	}
}

func (w *InvariantAuditor) runAudit(ctx context.Context) {
	log := logger.Get()

	report, err := w.auditor.Audit(ctx)
	if err != nil {
		log.Error("不変条件の監査失敗", zap.Error(err))
		return
	}

	if report.Healthy() {
		log.Debug("不変条件違反なし",
			zap.String("seat_status", string(report.SeatStatus)),
			zap.Stringer("balance_sum", report.BalanceSum),
		)
	}
}

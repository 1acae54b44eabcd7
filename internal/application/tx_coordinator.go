package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

// RunOptions はトランザクション1回分の設定
type RunOptions struct {
	Operation string
	SessionID string
	Isolation transaction.IsolationLevel
}

// TxCoordinator はトランザクションの開始から commit / rollback までを一か所で管理する
type TxCoordinator struct {
	txManager transaction.Manager
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// NewTxCoordinator は TxCoordinator を作成する。timeout が0なら上限なし
func NewTxCoordinator(tm transaction.Manager, m *metrics.Metrics, timeout time.Duration) *TxCoordinator {
	return &TxCoordinator{txManager: tm, metrics: m, timeout: timeout}
}

// Run は指定した分離レベルでトランザクションを開き body を実行する
// body が nil を返せば commit、エラーまたは panic なら rollback する。
// 戻り値はストアが実際に適用した分離レベル。
func (c *TxCoordinator) Run(ctx context.Context, opts RunOptions, body func(ctx context.Context, tx transaction.Tx) error) (effective transaction.IsolationLevel, err error) {
	if !opts.Isolation.IsValid() {
		return 0, fmt.Errorf("%w: %s", transaction.ErrUnknownIsolationLevel, opts.Isolation)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := logger.ForSession(opts.SessionID,
		zap.String("operation", opts.Operation),
		zap.Stringer("requested_isolation", opts.Isolation),
	)

	start := time.Now()
	tx, err := c.txManager.Begin(ctx, opts.Isolation)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}

	finished := false
	defer func() {
		result := "commit"
		if !finished {
			result = "rollback"
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn("ロールバックに失敗", zap.Error(rbErr))
			} else {
				log.Debug("ロールバック完了")
			}
		} else if err != nil {
			result = "commit_failed"
		}
		c.metrics.TransactionDuration.
			WithLabelValues(opts.Operation, opts.Isolation.String(), result).
			Observe(time.Since(start).Seconds())
	}()

	effective, err = tx.EffectiveIsolation(ctx)
	if err != nil {
		return 0, err
	}
	log = log.With(zap.Stringer("effective_isolation", effective))
	if effective != opts.Isolation {
		log.Warn("要求した分離レベルはこのストアでは別のレベルとして動作します")
	} else {
		log.Info("トランザクション開始")
	}

	if err = body(ctx, tx); err != nil {
		return effective, err
	}

	// database/sql では Commit が失敗してもトランザクションは閉じられる
	finished = true
	if err = tx.Commit(); err != nil {
		return effective, fmt.Errorf("コミットに失敗: %w", err)
	}
	log.Debug("コミット完了", zap.Duration("elapsed", time.Since(start)))
	return effective, nil
}

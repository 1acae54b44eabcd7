package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

type TransferInput struct {
	From      string
	To        string
	Amount    decimal.Decimal
	Isolation transaction.IsolationLevel
}

type TransferResult struct {
	Outcome   Outcome
	Message   string
	From      string
	To        string
	Amount    decimal.Decimal
	Effective transaction.IsolationLevel
}

// TransferDefaults は ExecuteTransfer が使う固定の送金内容
type TransferDefaults struct {
	From   string
	To     string
	Amount decimal.Decimal
}

type TransferService struct {
	coordinator *TxCoordinator
	accountRepo account.Repository
	metrics     *metrics.Metrics
	defaults    TransferDefaults
}

func NewTransferService(c *TxCoordinator, ar account.Repository, m *metrics.Metrics, defaults TransferDefaults) *TransferService {
	return &TransferService{coordinator: c, accountRepo: ar, metrics: m, defaults: defaults}
}

// ExecuteTransfer は設定済みの口座ペアと金額で送金する
func (s *TransferService) ExecuteTransfer(ctx context.Context) (*TransferResult, error) {
	return s.Transfer(ctx, TransferInput{
		From:   s.defaults.From,
		To:     s.defaults.To,
		Amount: s.defaults.Amount,
	})
}

// Transfer は出金と入金を1つのトランザクションで行う。途中で失敗すれば両方とも取り消される
func (s *TransferService) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	level := input.Isolation
	if level == 0 {
		level = transaction.DefaultIsolation
	}
	res := &TransferResult{From: input.From, To: input.To, Amount: input.Amount}

	t := account.NewTransfer(input.From, input.To, input.Amount)
	if err := t.Validate(); err != nil {
		res.Outcome = OutcomeInvalidInput
		res.Message = err.Error()
		s.metrics.TransfersTotal.WithLabelValues(string(OutcomeInvalidInput)).Inc()
		return res, nil
	}

	sessionID := NewSessionID()
	log := logger.ForSession(sessionID,
		zap.String("from", t.From),
		zap.String("to", t.To),
		zap.Stringer("amount", t.Amount),
	)

	effective, err := s.coordinator.Run(ctx, RunOptions{
		Operation: "transfer",
		SessionID: sessionID,
		Isolation: level,
	}, func(ctx context.Context, tx transaction.Tx) error {
		return s.move(ctx, tx, t)
	})
	res.Effective = effective

	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			s.metrics.TransfersTotal.WithLabelValues("error").Inc()
			log.Error("送金に失敗（インフラエラー）", zap.Error(err))
			return nil, fmt.Errorf("送金に失敗: %w", err)
		}
		res.Outcome = outcome
		res.Message = err.Error()
		s.metrics.TransfersTotal.WithLabelValues(string(outcome)).Inc()
		log.Warn("送金はロールバックされました", zap.String("outcome", string(outcome)), zap.Error(err))
		return res, nil
	}

	res.Outcome = OutcomeTransferred
	res.Message = fmt.Sprintf("%s から %s へ %s を送金しました", t.From, t.To, t.Amount.StringFixed(2))
	s.metrics.TransfersTotal.WithLabelValues(string(OutcomeTransferred)).Inc()
	log.Info("送金完了")
	return res, nil
}

func (s *TransferService) move(ctx context.Context, tx transaction.Tx, t *account.Transfer) error {
	from, err := s.accountRepo.Get(ctx, tx, t.From)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return fmt.Errorf("%w: %s", account.ErrAccountNotFound, t.From)
		}
		return err
	}
	if !from.CanCover(t.Amount) {
		return fmt.Errorf("%w: 残高 %s, 送金額 %s", account.ErrInsufficientFunds,
			from.Balance.StringFixed(2), t.Amount.StringFixed(2))
	}

	rows, err := s.accountRepo.Debit(ctx, tx, t.From, t.Amount)
	if err != nil {
		return err
	}
	if written, err := transaction.DetectWrite(rows); err != nil {
		return err
	} else if written == transaction.WriteNoMatch {
		return fmt.Errorf("%w: %s", account.ErrDebitFailed, t.From)
	}

	rows, err = s.accountRepo.Credit(ctx, tx, t.To, t.Amount)
	if err != nil {
		return err
	}
	if written, err := transaction.DetectWrite(rows); err != nil {
		return err
	} else if written == transaction.WriteNoMatch {
		return fmt.Errorf("%w: %s", account.ErrCreditFailed, t.To)
	}
	return nil
}

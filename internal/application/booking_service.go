package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

// Phase は予約プロトコルの各段階
type Phase string

const (
	PhaseCheckAvailability Phase = "check_availability"
	PhaseReserve           Phase = "reserve"
	PhaseProcessingDelay   Phase = "processing_delay"
	PhaseRecheck           Phase = "recheck"
	PhaseFinalize          Phase = "finalize"
	PhaseCommit            Phase = "commit"
)

// PhaseObserver は各段階に入ったことを通知される
type PhaseObserver func(sessionID string, phase Phase)

// SnapshotInvalidator は状態変更後に表示用キャッシュを捨てる
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, seatID string) error
}

type BookInput struct {
	SessionID string
	Isolation transaction.IsolationLevel
}

// BookingResult は予約1回分の結果
// Initial / Recheck はトランザクション内で見えた座席の状態（観測用）
type BookingResult struct {
	Outcome   Outcome
	Message   string
	Owner     string
	SessionID string
	SeatID    string
	Requested transaction.IsolationLevel
	Effective transaction.IsolationLevel
	Initial   *seat.Seat
	Recheck   *seat.Seat
}

type BookingService struct {
	coordinator *TxCoordinator
	seatRepo    seat.Repository
	cache       SnapshotInvalidator
	pauser      Pauser
	metrics     *metrics.Metrics
	seatID      string
	observer    PhaseObserver
	now         func() time.Time
}

func NewBookingService(c *TxCoordinator, sr seat.Repository, cache SnapshotInvalidator, p Pauser, m *metrics.Metrics, seatID string) *BookingService {
	if p == nil {
		p = SleepPauser{}
	}
	return &BookingService{
		coordinator: c, seatRepo: sr, cache: cache, pauser: p, metrics: m,
		seatID: seatID, now: time.Now,
	}
}

// SetPhaseObserver は段階通知先を設定する
func (s *BookingService) SetPhaseObserver(o PhaseObserver) {
	s.observer = o
}

// SeatID は予約対象の座席IDを返す
func (s *BookingService) SeatID() string {
	return s.seatID
}

// Book は available → reserving → booked の予約プロトコルを1つのトランザクションで実行する
func (s *BookingService) Book(ctx context.Context, input BookInput) (*BookingResult, error) {
	if input.SessionID == "" {
		return nil, seat.ErrSessionIDMissing
	}
	level := input.Isolation
	if level == 0 {
		level = transaction.DefaultIsolation
	}
	if !level.IsValid() {
		return nil, fmt.Errorf("%w: %s", transaction.ErrUnknownIsolationLevel, level)
	}

	res := &BookingResult{SessionID: input.SessionID, SeatID: s.seatID, Requested: level}
	log := logger.ForSession(input.SessionID, zap.String("seat_id", s.seatID), zap.Stringer("isolation", level))
	log.Info("予約開始")

	effective, err := s.coordinator.Run(ctx, RunOptions{
		Operation: "book_seat",
		SessionID: input.SessionID,
		Isolation: level,
	}, func(ctx context.Context, tx transaction.Tx) error {
		return s.runProtocol(ctx, tx, res, log)
	})
	res.Effective = effective

	if err != nil {
		outcome, ok := classify(err)
		if !ok {
			s.metrics.BookingAttemptsTotal.WithLabelValues(level.String(), "error").Inc()
			log.Error("予約に失敗（インフラエラー）", zap.Error(err))
			return nil, fmt.Errorf("座席予約に失敗: %w", err)
		}
		var conflict *seat.ConflictError
		if errors.As(err, &conflict) {
			res.Owner = conflict.Owner
		}
		res.Outcome = outcome
		res.Message = bookingMessage(res)
		s.metrics.BookingAttemptsTotal.WithLabelValues(level.String(), string(outcome)).Inc()
		if outcome == OutcomeIntegrityViolation || outcome == OutcomeNotFound {
			log.Error("予約でデータ整合性の異常を検出", zap.String("outcome", string(outcome)), zap.Error(err))
		} else {
			log.Warn("予約はロールバックされました", zap.String("outcome", string(outcome)), zap.Error(err))
		}
		return res, nil
	}

	s.notify(input.SessionID, PhaseCommit)
	s.invalidate(ctx)
	res.Outcome = OutcomeBooked
	res.Owner = input.SessionID
	res.Message = bookingMessage(res)
	s.metrics.BookingAttemptsTotal.WithLabelValues(level.String(), string(OutcomeBooked)).Inc()
	log.Info("予約確定", zap.Stringer("effective_isolation", effective))
	return res, nil
}

func (s *BookingService) runProtocol(ctx context.Context, tx transaction.Tx, res *BookingResult, log *zap.Logger) error {
	sessionID := res.SessionID

	// 1. 空き確認
	s.notify(sessionID, PhaseCheckAvailability)
	current, err := s.seatRepo.Get(ctx, tx, s.seatID)
	if err != nil {
		return err
	}
	res.Initial = current
	log.Info("初回読み取り", seatFields(PhaseCheckAvailability, current)...)
	if !current.IsAvailable() {
		return seat.NewConflictError(current)
	}

	// 2. 条件付きで reserving へ。ここが楽観的並行制御の判定点
	s.notify(sessionID, PhaseReserve)
	rows, err := s.seatRepo.MarkReserving(ctx, tx, s.seatID, sessionID, s.now())
	if err != nil {
		return err
	}
	if written, err := transaction.DetectWrite(rows); err != nil {
		return err
	} else if written == transaction.WriteNoMatch {
		return seat.ErrLostRace
	}
	log.Info("座席を reserving に更新", zap.String("phase", string(PhaseReserve)))

	// 3. 決済処理を模した待機（トランザクションは開いたまま）
	s.notify(sessionID, PhaseProcessingDelay)
	if err := s.pauser.Pause(ctx, sessionID); err != nil {
		return fmt.Errorf("処理待機が中断されました: %w", err)
	}

	// 4. 再読み取り。結果には影響しない
	s.notify(sessionID, PhaseRecheck)
	if again, err := s.seatRepo.Get(ctx, tx, s.seatID); err != nil {
		log.Warn("再読み取りに失敗", zap.String("phase", string(PhaseRecheck)), zap.Error(err))
	} else {
		res.Recheck = again
		log.Info("再読み取り", seatFields(PhaseRecheck, again)...)
	}

	// 5. 自分が reserved_by のときだけ booked へ
	s.notify(sessionID, PhaseFinalize)
	rows, err = s.seatRepo.MarkBooked(ctx, tx, s.seatID, sessionID, s.now())
	if err != nil {
		return err
	}
	if written, err := transaction.DetectWrite(rows); err != nil {
		return err
	} else if written == transaction.WriteNoMatch {
		return seat.ErrReservationLost
	}
	return nil
}

// Reset は座席を available に戻す。何度呼んでも同じ結果になる
func (s *BookingService) Reset(ctx context.Context) error {
	sessionID := NewSessionID()
	_, err := s.coordinator.Run(ctx, RunOptions{
		Operation: "reset_seat",
		SessionID: sessionID,
		Isolation: transaction.ReadCommitted,
	}, func(ctx context.Context, tx transaction.Tx) error {
		rows, err := s.seatRepo.Reset(ctx, tx, s.seatID)
		if err != nil {
			return err
		}
		written, err := transaction.DetectWrite(rows)
		if err != nil {
			return err
		}
		if written == transaction.WriteNoMatch {
			return seat.ErrSeatNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("座席リセットに失敗: %w", err)
	}
	s.invalidate(ctx)
	logger.ForSession(sessionID, zap.String("seat_id", s.seatID)).Info("座席をリセット")
	return nil
}

func (s *BookingService) notify(sessionID string, phase Phase) {
	if s.observer != nil {
		s.observer(sessionID, phase)
	}
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, s.seatID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("seat_id", s.seatID), zap.Error(err))
	}
}

func bookingMessage(res *BookingResult) string {
	switch res.Outcome {
	case OutcomeBooked:
		return fmt.Sprintf("座席 %s をセッション %s で予約しました（分離レベル: %s）", res.SeatID, res.SessionID, res.Requested)
	case OutcomeNotFound:
		return fmt.Sprintf("座席 %s が見つかりません（データ不整合）", res.SeatID)
	case OutcomeConflict:
		if res.Initial != nil && res.Owner != "" {
			return fmt.Sprintf("座席は %s です（所有者: %s）", res.Initial.Status, res.Owner)
		}
		return "座席は既に確保されています"
	case OutcomeLostRace:
		return "確認の間に他のセッションが座席を確保しました。再試行できます"
	case OutcomeReservationLost:
		return "確保した予約が確定前に失われました（分離レベルまたは同時リセットによる異常）"
	case OutcomeSerializationFailure:
		return fmt.Sprintf("ストアが同時アクセスの競合を検出しました。%s では想定内の動作です。再試行できます", res.Requested)
	case OutcomeIntegrityViolation:
		return "条件付き更新が複数行に一致しました（整合性違反）"
	}
	return "予約に失敗しました。もう一度お試しください"
}

func seatFields(phase Phase, s *seat.Seat) []zap.Field {
	return []zap.Field{
		zap.String("phase", string(phase)),
		zap.String("status", string(s.Status)),
		zap.Stringp("reserved_by", s.ReservedBy),
		zap.Stringp("booked_by", s.BookedBy),
	}
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
)

// SnapshotCache は座席スナップショットの表示用キャッシュ
type SnapshotCache interface {
	SnapshotInvalidator
	GetSnapshot(ctx context.Context, seatID string) (*seat.Seat, error)
	SetSnapshot(ctx context.Context, s *seat.Seat, ttl time.Duration) error
}

// DatabaseProbe はDBの疎通確認
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// StatusService はポーリング向けの読み取り専用の状態を返す
// ここで返す値に一貫性の保証はない
type StatusService struct {
	seatRepo    seat.Repository
	accountRepo account.Repository
	cache       SnapshotCache
	probe       DatabaseProbe
	seatID      string
	cacheTTL    time.Duration
}

func NewStatusService(sr seat.Repository, ar account.Repository, probe DatabaseProbe, seatID string) *StatusService {
	return &StatusService{seatRepo: sr, accountRepo: ar, probe: probe, seatID: seatID}
}

// WithCache はスナップショットキャッシュを有効にする
func (s *StatusService) WithCache(cache SnapshotCache, ttl time.Duration) *StatusService {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// SeatSnapshot は座席の現在の状態を返す
func (s *StatusService) SeatSnapshot(ctx context.Context) (*seat.Seat, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSnapshot(ctx, s.seatID)
		if err == nil {
			return cached, nil
		}
		logger.Debug("スナップショットキャッシュを使用しません", zap.String("seat_id", s.seatID), zap.Error(err))
	}

	current, err := s.seatRepo.GetByID(ctx, s.seatID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, current, s.cacheTTL); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.String("seat_id", s.seatID), zap.Error(err))
		}
	}
	return current, nil
}

// Balances は指定口座の残高を返す。存在しない口座は結果に含まれない
func (s *StatusService) Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	return s.accountRepo.Balances(ctx, ids)
}

// DatabaseVersion はDBに接続できることを確認し、サーバーのバージョン文字列を返す
func (s *StatusService) DatabaseVersion(ctx context.Context) (string, error) {
	if err := s.probe.Ping(ctx); err != nil {
		return "", fmt.Errorf("データベースに接続できません: %w", err)
	}
	return s.probe.Version(ctx)
}

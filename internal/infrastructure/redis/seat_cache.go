package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

type cachedSeat struct {
	ID         string          `json:"seat_id"`
	Status     string          `json:"status"`
	Price      decimal.Decimal `json:"price"`
	ReservedBy *string         `json:"reserved_by,omitempty"`
	ReservedAt *time.Time      `json:"reserved_at,omitempty"`
	BookedBy   *string         `json:"booked_by,omitempty"`
	BookedAt   *time.Time      `json:"booked_at,omitempty"`
}

// SeatCache はポーリング用の座席スナップショットをキャッシュする
// 値は読み取り専用の表示用で、予約の判定には使わない
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetSnapshot は座席スナップショットをキャッシュから取得する
func (c *SeatCache) GetSnapshot(ctx context.Context, seatID string) (*seat.Seat, error) {
	raw, err := c.client.Get(ctx, c.snapshotKey(seatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var cs cachedSeat
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("キャッシュ復元に失敗: %w", err)
	}
	return &seat.Seat{
		ID: cs.ID, Status: seat.Status(cs.Status), Price: cs.Price,
		ReservedBy: cs.ReservedBy, ReservedAt: cs.ReservedAt,
		BookedBy: cs.BookedBy, BookedAt: cs.BookedAt,
	}, nil
}

// SetSnapshot は座席スナップショットをキャッシュに保存する
func (c *SeatCache) SetSnapshot(ctx context.Context, s *seat.Seat, ttl time.Duration) error {
	raw, err := json.Marshal(cachedSeat{
		ID: s.ID, Status: string(s.Status), Price: s.Price,
		ReservedBy: s.ReservedBy, ReservedAt: s.ReservedAt,
		BookedBy: s.BookedBy, BookedAt: s.BookedAt,
	})
	if err != nil {
		return fmt.Errorf("キャッシュ変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.snapshotKey(s.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は座席のキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, seatID string) error {
	err := c.client.Del(ctx, c.snapshotKey(seatID)).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) snapshotKey(seatID string) string {
	return fmt.Sprintf("seat:snapshot:%s", seatID)
}

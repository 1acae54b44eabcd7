package seat

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserving Status = "reserving"
	StatusBooked    Status = "booked"
)

// IsValid は定義済みの状態かを返す
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserving, StatusBooked:
		return true
	}
	return false
}

// Seat は座席エンティティを表す
// ReservedBy / BookedBy にはセッションIDが入る（永続的なユーザーIDではない）
type Seat struct {
	ID         string
	Status     Status
	Price      decimal.Decimal
	ReservedBy *string
	ReservedAt *time.Time
	BookedBy   *string
	BookedAt   *time.Time
}

// NewSeat は利用可能な状態の座席を作成する
func NewSeat(id string, price decimal.Decimal) *Seat {
	return &Seat{
		ID:     id,
		Status: StatusAvailable,
		Price:  price,
	}
}

// IsAvailable は座席が予約可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Owner は現在の所有セッション（予約中または確定済み）を返す
func (s *Seat) Owner() string {
	switch {
	case s.BookedBy != nil:
		return *s.BookedBy
	case s.ReservedBy != nil:
		return *s.ReservedBy
	}
	return ""
}

// Reset は座席を初期状態に戻す
func (s *Seat) Reset() {
	s.Status = StatusAvailable
	s.ReservedBy = nil
	s.ReservedAt = nil
	s.BookedBy = nil
	s.BookedAt = nil
}

// CheckInvariant は状態と所有者フィールドの整合性を検証する
func (s *Seat) CheckInvariant() error {
	reserved := s.ReservedBy != nil
	booked := s.BookedBy != nil
	if reserved != (s.ReservedAt != nil) || booked != (s.BookedAt != nil) {
		return fmt.Errorf("%w: 所有者と時刻の組が揃っていません (seat=%s)", ErrInvariantBroken, s.ID)
	}

	switch s.Status {
	case StatusAvailable:
		if reserved || booked {
			return fmt.Errorf("%w: available なのに所有者があります (seat=%s)", ErrInvariantBroken, s.ID)
		}
	case StatusReserving:
		if !reserved || booked {
			return fmt.Errorf("%w: reserving は reserved_by のみ設定されている必要があります (seat=%s)", ErrInvariantBroken, s.ID)
		}
	case StatusBooked:
		if !booked || reserved {
			return fmt.Errorf("%w: booked は booked_by のみ設定されている必要があります (seat=%s)", ErrInvariantBroken, s.ID)
		}
	default:
		return fmt.Errorf("%w: 不明な状態 %q (seat=%s)", ErrInvariantBroken, s.Status, s.ID)
	}
	return nil
}

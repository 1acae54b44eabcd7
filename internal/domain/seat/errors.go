package seat

import (
	"errors"
	"fmt"
)

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound     = errors.New("座席が見つかりません")
	ErrSeatConflict     = errors.New("座席は既に確保されています")
	ErrLostRace         = errors.New("座席の確保競争に負けました")
	ErrReservationLost  = errors.New("確保済みの予約が失われました")
	ErrInvariantBroken  = errors.New("座席の不変条件が破れています")
	ErrSessionIDMissing = errors.New("セッションIDは必須です")
)

// ConflictError は読み取り時点で座席が利用不可だったことを表す
type ConflictError struct {
	SeatID string
	Status Status
	Owner  string
}

func (e *ConflictError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("座席 %s は %s です", e.SeatID, e.Status)
	}
	return fmt.Sprintf("座席 %s は %s です (所有者: %s)", e.SeatID, e.Status, e.Owner)
}

// Is は errors.Is(err, ErrSeatConflict) を成立させる
func (e *ConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

// NewConflictError は現在の座席状態から ConflictError を作る
func NewConflictError(s *Seat) *ConflictError {
	return &ConflictError{SeatID: s.ID, Status: s.Status, Owner: s.Owner()}
}

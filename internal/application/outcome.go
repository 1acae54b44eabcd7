package application

import (
	"errors"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// Outcome は予約・送金の結果種別
// ドメイン上の失敗は Outcome で返し、error はインフラ障害（接続断など）にだけ使う
type Outcome string

const (
	OutcomeBooked               Outcome = "booked"
	OutcomeTransferred          Outcome = "transferred"
	OutcomeNotFound             Outcome = "not_found"
	OutcomeConflict             Outcome = "conflict"
	OutcomeLostRace             Outcome = "lost_race"
	OutcomeReservationLost      Outcome = "reservation_lost"
	OutcomeSerializationFailure Outcome = "serialization_failure"
	OutcomeIntegrityViolation   Outcome = "integrity_violation"
	OutcomeInsufficientFunds    Outcome = "insufficient_funds"
	OutcomeDebitFailed          Outcome = "debit_failed"
	OutcomeCreditFailed         Outcome = "credit_failed"
	OutcomeInvalidInput         Outcome = "invalid_input"
)

// Succeeded は操作がコミットされたかを返す
func (o Outcome) Succeeded() bool {
	return o == OutcomeBooked || o == OutcomeTransferred
}

// Retryable は呼び出し側が再試行してよい失敗かを返す
func (o Outcome) Retryable() bool {
	switch o {
	case OutcomeLostRace, OutcomeReservationLost, OutcomeSerializationFailure:
		return true
	}
	return false
}

// classify はトランザクション本体のエラーを Outcome に変換する
// 既知のドメインエラーでなければ ok=false（インフラ障害）
func classify(err error) (outcome Outcome, ok bool) {
	var conflict *seat.ConflictError
	switch {
	case errors.Is(err, transaction.ErrIntegrityViolation):
		return OutcomeIntegrityViolation, true
	case errors.Is(err, transaction.ErrSerializationFailure):
		return OutcomeSerializationFailure, true
	case errors.Is(err, seat.ErrSeatNotFound), errors.Is(err, account.ErrAccountNotFound):
		return OutcomeNotFound, true
	case errors.As(err, &conflict):
		return OutcomeConflict, true
	case errors.Is(err, seat.ErrLostRace):
		return OutcomeLostRace, true
	case errors.Is(err, seat.ErrReservationLost):
		return OutcomeReservationLost, true
	case errors.Is(err, account.ErrInsufficientFunds):
		return OutcomeInsufficientFunds, true
	case errors.Is(err, account.ErrDebitFailed):
		return OutcomeDebitFailed, true
	case errors.Is(err, account.ErrCreditFailed):
		return OutcomeCreditFailed, true
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrSameAccount),
		errors.Is(err, account.ErrAccountIDRequired):
		return OutcomeInvalidInput, true
	}
	return "", false
}

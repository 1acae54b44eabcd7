package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// PostgreSQL の SQLSTATE
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// translateError はエンジンが検出した分離レベル競合を transaction.ErrSerializationFailure に包む
// それ以外のエラーはそのまま返す
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s (%s)", transaction.ErrSerializationFailure, pqErr.Message, pqErr.Code)
		}
	}
	return err
}

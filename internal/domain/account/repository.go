package account

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// Repository は口座リポジトリのインターフェース
type Repository interface {
	// Get はトランザクション内で口座を読む（存在しなければ ErrAccountNotFound）
	Get(ctx context.Context, tx transaction.Tx, id string) (*Account, error)

	// Debit は balance >= amount を前提に出金し、影響行数を返す
	Debit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error)

	// Credit は入金し、影響行数を返す
	Credit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error)

	// Balances はトランザクション外で複数口座の残高を取得する
	Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

type accountRow struct {
	ID      string          `db:"account_id"`
	Balance decimal.Decimal `db:"balance"`
}

type AccountRepository struct{ db *sqlx.DB }

func NewAccountRepository(db *sqlx.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Get(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row accountRow
	if err := sqlTx.GetContext(ctx, &row, `SELECT account_id, balance FROM accounts WHERE account_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("口座取得に失敗: %w", translateError(err))
	}
	return &account.Account{ID: row.ID, Balance: row.Balance}, nil
}

func (r *AccountRepository) Debit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	query := `UPDATE accounts SET balance = balance - $1 WHERE account_id = $2 AND balance >= $1`
	return r.exec(ctx, tx, "出金に失敗", query, amount, id)
}

func (r *AccountRepository) Credit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	query := `UPDATE accounts SET balance = balance + $1 WHERE account_id = $2`
	return r.exec(ctx, tx, "入金に失敗", query, amount, id)
}

func (r *AccountRepository) Balances(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return balances, nil
	}
	var rows []accountRow
	query := `SELECT account_id, balance FROM accounts WHERE account_id = ANY($1) ORDER BY account_id`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("残高取得に失敗: %w", err)
	}
	for _, row := range rows {
		balances[row.ID] = row.Balance
	}
	return balances, nil
}

func (r *AccountRepository) exec(ctx context.Context, tx transaction.Tx, op, query string, args ...interface{}) (int64, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	result, err := sqlTx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

var _ account.Repository = (*AccountRepository)(nil)

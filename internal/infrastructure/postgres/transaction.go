package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

var errNotPostgresTx = errors.New("postgres のトランザクションではありません")

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
	requested transaction.IsolationLevel
}

// Commit はトランザクションをコミットする
// SERIALIZABLE では COMMIT 時に 40001 が返ることがあるので分類してから返す
func (t *TxWrapper) Commit() error {
	return translateError(t.Tx.Commit())
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// EffectiveIsolation はサーバーが報告する分離レベルを返す
// PostgreSQL は READ UNCOMMITTED を受け付けるが READ COMMITTED として動作する
func (t *TxWrapper) EffectiveIsolation(ctx context.Context) (transaction.IsolationLevel, error) {
	var reported string
	if err := t.Tx.GetContext(ctx, &reported, `SHOW transaction_isolation`); err != nil {
		return 0, fmt.Errorf("分離レベルの取得に失敗: %w", translateError(err))
	}
	level, err := transaction.ParseIsolationLevel(reported)
	if err != nil {
		return 0, err
	}
	if level == transaction.ReadUncommitted {
		return transaction.ReadCommitted, nil
	}
	return level, nil
}

// Requested は開始時に要求した分離レベルを返す
func (t *TxWrapper) Requested() transaction.IsolationLevel {
	return t.requested
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin は指定した分離レベルで新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context, level transaction.IsolationLevel) (transaction.Tx, error) {
	if !level.IsValid() {
		return nil, fmt.Errorf("%w: %s", transaction.ErrUnknownIsolationLevel, level)
	}
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: level.SQLLevel()})
	if err != nil {
		return nil, translateError(err)
	}
	return &TxWrapper{Tx: tx, requested: level}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if wrapper, ok := tx.(*TxWrapper); ok && wrapper.Tx != nil {
		return wrapper.Tx, nil
	}
	return nil, errNotPostgresTx
}

var _ transaction.Manager = (*TxManager)(nil)
var _ transaction.Tx = (*TxWrapper)(nil)

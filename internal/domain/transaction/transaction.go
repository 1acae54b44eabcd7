package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
	// EffectiveIsolation はストアが実際に適用している分離レベルを返す
	EffectiveIsolation(ctx context.Context) (IsolationLevel, error)
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は指定した分離レベルで新しいトランザクションを開始する
	Begin(ctx context.Context, level IsolationLevel) (Tx, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sanosuguru/go-isolation-booking/internal/config"
)

// NewConnection はPostgreSQLへの接続を作成する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続プール設定
	// 予約はトランザクションを開いたまま待機するので、同時デモ数ぶんの接続が必要
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	return db, nil
}

// Ping はデータベース接続を確認する
func Ping(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}

// ServerVersion は SELECT version() の結果を返す
func ServerVersion(ctx context.Context, db *sqlx.DB) (string, error) {
	var version string
	if err := db.GetContext(ctx, &version, `SELECT version()`); err != nil {
		return "", fmt.Errorf("バージョン取得に失敗: %w", err)
	}
	return version, nil
}

// Probe はヘルスチェック用にDBの疎通とバージョンを確認する
type Probe struct{ db *sqlx.DB }

func NewProbe(db *sqlx.DB) *Probe { return &Probe{db: db} }

func (p *Probe) Ping(ctx context.Context) error { return Ping(ctx, p.db) }

func (p *Probe) Version(ctx context.Context) (string, error) { return ServerVersion(ctx, p.db) }

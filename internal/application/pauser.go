package application

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pauser は reserving 状態でトランザクションを保持したまま待機する地点
// 本番はゼロ待機、デモは固定時間、テストはバリアを差し込む
type Pauser interface {
	Pause(ctx context.Context, sessionID string) error
}

// PauseFunc は関数を Pauser として扱うアダプタ
type PauseFunc func(ctx context.Context, sessionID string) error

func (f PauseFunc) Pause(ctx context.Context, sessionID string) error {
	return f(ctx, sessionID)
}

// SleepPauser は固定時間待機する。Delay が0以下なら即座に戻る
type SleepPauser struct {
	Delay time.Duration
}

func (p SleepPauser) Pause(ctx context.Context, _ string) error {
	if p.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewSessionID はリクエストごとの短いセッションIDを生成する
func NewSessionID() string {
	return uuid.NewString()[:8]
}

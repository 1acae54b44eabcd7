package transaction

import "errors"

// トランザクション層のエラー定義
var (
	ErrUnknownIsolationLevel = errors.New("未知の分離レベルです")
	ErrSerializationFailure  = errors.New("ストアが分離レベルの競合を検出しました")
	ErrIntegrityViolation    = errors.New("条件付き更新が複数行に一致しました")
)

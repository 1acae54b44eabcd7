package account

import "errors"

// Account ドメインのエラー定義
var (
	ErrAccountNotFound   = errors.New("口座が見つかりません")
	ErrInsufficientFunds = errors.New("残高が不足しています")
	ErrDebitFailed       = errors.New("出金に失敗しました")
	ErrCreditFailed      = errors.New("入金に失敗しました")
	ErrInvalidAmount     = errors.New("送金額は0より大きい必要があります")
	ErrSameAccount       = errors.New("送金元と送金先が同じです")
	ErrAccountIDRequired = errors.New("口座IDは必須です")
)

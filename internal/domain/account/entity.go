package account

import (
	"github.com/shopspring/decimal"
)

// Account は口座エンティティを表す
type Account struct {
	ID      string
	Balance decimal.Decimal
}

// Transfer は2口座間の送金指示
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// NewTransfer は送金指示を作成する
func NewTransfer(from, to string, amount decimal.Decimal) *Transfer {
	return &Transfer{From: from, To: to, Amount: amount}
}

// Validate は送金指示の検証を行う
func (t *Transfer) Validate() error {
	if t.From == "" || t.To == "" {
		return ErrAccountIDRequired
	}
	if t.From == t.To {
		return ErrSameAccount
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// CanCover は残高が金額以上あるかを返す
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Sum は口座残高の合計を返す
func Sum(balances map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	return total
}

package transaction

import "fmt"

// WriteResult は条件付き更新の判定結果
type WriteResult int

const (
	// WriteApplied は1行だけ更新された
	WriteApplied WriteResult = iota
	// WriteNoMatch は前提条件が成立せず何も更新されなかった
	WriteNoMatch
)

func (r WriteResult) String() string {
	if r == WriteApplied {
		return "applied"
	}
	return "no_match"
}

// DetectWrite は条件付き更新の影響行数から結果を判定する
// 一意キーに対する更新なので2行以上は起こり得ない。起きた場合は ErrIntegrityViolation。
func DetectWrite(affected int64) (WriteResult, error) {
	switch {
	case affected == 1:
		return WriteApplied, nil
	case affected == 0:
		return WriteNoMatch, nil
	default:
		return WriteNoMatch, fmt.Errorf("%w: affected=%d", ErrIntegrityViolation, affected)
	}
}

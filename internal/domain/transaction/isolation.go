package transaction

import (
	"database/sql"
	"fmt"
	"strings"
)

// IsolationLevel はトランザクション分離レベル
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota + 1
	ReadCommitted
	RepeatableRead
	Serializable
)

// DefaultIsolation は入力が空のときに使う分離レベル
const DefaultIsolation = ReadCommitted

var isolationNames = map[IsolationLevel]string{
	ReadUncommitted: "ReadUncommitted",
	ReadCommitted:   "ReadCommitted",
	RepeatableRead:  "RepeatableRead",
	Serializable:    "Serializable",
}

// AllIsolationLevels は定義済みの分離レベルを弱い順に返す
func AllIsolationLevels() []IsolationLevel {
	return []IsolationLevel{ReadUncommitted, ReadCommitted, RepeatableRead, Serializable}
}

func (l IsolationLevel) String() string {
	if name, ok := isolationNames[l]; ok {
		return name
	}
	return fmt.Sprintf("IsolationLevel(%d)", int(l))
}

// IsValid は定義済みの分離レベルかを返す
func (l IsolationLevel) IsValid() bool {
	_, ok := isolationNames[l]
	return ok
}

// SQLLevel は database/sql の分離レベルに変換する
func (l IsolationLevel) SQLLevel() sql.IsolationLevel {
	switch l {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// ParseIsolationLevel は文字列から分離レベルを解決する
// 空文字は DefaultIsolation、未知の値は ErrUnknownIsolationLevel を返す。
// "ReadCommitted" / "read_committed" / "READ COMMITTED" のような表記揺れを受け付ける。
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	key := normalize(s)
	if key == "" {
		return DefaultIsolation, nil
	}
	for level, name := range isolationNames {
		if normalize(name) == key {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIsolationLevel, s)
}

func normalize(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

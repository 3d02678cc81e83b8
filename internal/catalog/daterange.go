// Package catalog はコレクション一覧の検索条件と絞り込みロジックを提供する。
//
// すべての関数は純粋関数であり、入力を変更せず、現在時刻は引数として受け取る。
// 条件が変わるたびに何度呼び出しても状態が蓄積しない。
package catalog

import (
	"strings"
	"time"
)

// dateLayout は検索条件とAPIで使用する日付フォーマット。
const dateLayout = "2006-01-02"

// DateRange は両端が省略可能な日付区間を表す。
// ゼロ値のtime.Timeはその側の境界が存在しない（無制限）ことを意味する。
// From <= To は強制しない。逆転した区間も値としては有効。
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange は日単位（UTCの0時）に正規化したDateRangeを生成する。
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: Day(from), To: Day(to)}
}

// HasFrom は開始日が設定されているかを返す。
func (r DateRange) HasFrom() bool { return !r.From.IsZero() }

// HasTo は終了日が設定されているかを返す。
func (r DateRange) HasTo() bool { return !r.To.IsZero() }

// IsOpen は両端とも未設定かを返す。
func (r DateRange) IsOpen() bool { return !r.HasFrom() && !r.HasTo() }

// Inverted は両端が設定され、かつ開始日が終了日より後であるかを返す。
func (r DateRange) Inverted() bool {
	return r.HasFrom() && r.HasTo() && r.From.After(r.To)
}

// Equal は2つの区間が同じ日付を指すかを返す。
func (r DateRange) Equal(other DateRange) bool {
	return r.From.Equal(other.From) && r.To.Equal(other.To)
}

// Day は時刻をUTCの日付（0時）に切り捨てる。ゼロ値はゼロ値のまま返す。
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate は "YYYY-MM-DD" またはRFC 3339形式の文字列を日付に変換する。
// 空文字列や解釈できない値はゼロ値（境界なし）として扱い、エラーにしない。
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		// 日付はタイムスタンプ自身のオフセットでの暦日とする
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// FormatDate は日付を "YYYY-MM-DD" 形式に変換する。ゼロ値は空文字列を返す。
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

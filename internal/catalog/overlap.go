package catalog

import "time"

// Overlap はOverlap計算の結果を表す。
// Alertがtrueの場合、From/Toは表示用の重なり区間を保持する（ゼロ値は境界なし）。
type Overlap struct {
	Included bool
	Alert    bool
	From     time.Time
	To       time.Time
}

// Evaluate はレコードの提供期間と日付条件から、一覧に含めるかと重なり区間を判定する。
//
// レコード側の未設定の境界は無制限（Fromは−∞、Toは+∞）として扱う。
// nowは日単位に切り捨てて閾値の計算に使う。入力は一切変更しない。
func Evaluate(record DateRange, mode DateMode, custom DateRange, now time.Time) Overlap {
	record = NewDateRange(record.From, record.To)

	if mode == DateModeCustom {
		return evaluateCustom(record, NewDateRange(custom.From, custom.To))
	}

	limit, ok := relativeLimit(mode, now)
	if !ok {
		return Overlap{Included: true}
	}
	return Overlap{Included: reaches(record, limit)}
}

// relativeLimit は相対日付モードの閾値日を返す。相対モードでない場合はfalseを返す。
func relativeLimit(mode DateMode, now time.Time) (time.Time, bool) {
	today := Day(now)
	switch mode {
	case DateModePastMonth:
		return today.AddDate(0, -1, 0), true
	case DateModePastSixMonths:
		return today.AddDate(0, -6, 0), true
	case DateModeLastYear:
		return today.AddDate(-1, 0, 0), true
	case DateModePastFiveYears:
		return today.AddDate(-5, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// reaches は record.From >= limit または record.To >= limit を判定する。
// Toが未設定のレコードは現在まで続いているものとみなす。
func reaches(record DateRange, limit time.Time) bool {
	if record.HasFrom() && !record.From.Before(limit) {
		return true
	}
	return !record.HasTo() || !record.To.Before(limit)
}

func evaluateCustom(record, custom DateRange) Overlap {
	switch {
	case custom.HasFrom() && custom.HasTo():
		if custom.Inverted() {
			return Overlap{}
		}
		if record.HasFrom() && record.From.After(custom.To) {
			return Overlap{}
		}
		if record.HasTo() && record.To.Before(custom.From) {
			return Overlap{}
		}
		o := Overlap{Included: true}
		if startsLater(record, custom.From) || endsEarlier(record, custom.To) {
			o.Alert = true
			o.From = later(record.From, custom.From)
			o.To = earlier(record.To, custom.To)
		}
		return o

	case custom.HasFrom():
		if record.HasTo() && record.To.Before(custom.From) {
			return Overlap{}
		}
		o := Overlap{Included: true}
		if startsLater(record, custom.From) {
			o.Alert = true
			o.From, o.To = record.From, record.To
		}
		return o

	case custom.HasTo():
		if record.HasFrom() && record.From.After(custom.To) {
			return Overlap{}
		}
		o := Overlap{Included: true}
		if endsEarlier(record, custom.To) {
			o.Alert = true
			o.From, o.To = record.From, record.To
		}
		return o

	default:
		return Overlap{Included: true}
	}
}

func startsLater(record DateRange, from time.Time) bool {
	return record.HasFrom() && record.From.After(from)
}

func endsEarlier(record DateRange, to time.Time) bool {
	return record.HasTo() && record.To.Before(to)
}

// later は2つの日付の遅い方を返す。ゼロ値は−∞として扱う。
func later(a, b time.Time) time.Time {
	if a.IsZero() || (!b.IsZero() && b.After(a)) {
		return b
	}
	return a
}

// earlier は2つの日付の早い方を返す。ゼロ値は+∞として扱う。
func earlier(a, b time.Time) time.Time {
	if a.IsZero() || (!b.IsZero() && b.Before(a)) {
		return b
	}
	return a
}

// effectiveMode は実際に適用される日付モードを返す。
// 両端とも未設定のcustomはnoneと同じ扱いになる。
func effectiveMode(c Criteria) DateMode {
	mode := ParseDateMode(string(c.DateMode))
	if mode == DateModeCustom && c.Custom.IsOpen() {
		return DateModeNone
	}
	return mode
}

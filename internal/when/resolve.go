// Package when は自然言語の時刻表現を絶対時刻に解決する。
// 解決は純粋関数であり、入力テキスト・ユーザーのタイムゾーン・基準時刻のみに依存する。
package when

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind は時刻表現の解決結果の種別を表す。
type Kind int

const (
	// KindNotFound は時刻表現が見つからなかったことを示す。
	KindNotFound Kind = iota
	// KindDateOnly は日付のみ確定し、時刻の入力が必要なことを示す。
	KindDateOnly
	// KindFull は絶対時刻まで完全に解決されたことを示す。
	KindFull
)

// Resolution は時刻表現の解決結果を表す。
// KindFullの場合はAtにUTCの絶対時刻が入る。
// KindDateOnlyの場合はDateに対象日のUTC 0時が入る。
// 対象日はゾーンに依存しない暦日として扱うため、ユーザーゾーンではなく
// UTCの0時でエンコードする。保存後にユーザーがタイムゾーンを変更しても
// 指名した日がずれない。
type Resolution struct {
	Kind Kind
	At   time.Time
	Date time.Time
}

// dayKind はテキスト中の日付表現の種別。
type dayKind int

const (
	dayNone dayKind = iota
	dayToday
	dayTomorrow
	dayWeekday
)

// components は1つのテキストから抽出した時刻表現の構成要素。
type components struct {
	day     dayKind
	weekday time.Weekday

	hasClock bool
	hour     int
	minute   int

	hasDur bool
	dur    time.Duration
}

var (
	durRe      = regexp.MustCompile(`\bin (\d+) (second|sec|minute|min|hour|hr|day|week)s?\b`)
	clock12Re  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	noonRe     = regexp.MustCompile(`\b(noon|midnight)\b`)
	dayWordRe  = regexp.MustCompile(`\b(today|tomorrow)\b`)
	weekdayRe  = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	durUnitMap = map[string]time.Duration{
		"second": time.Second,
		"sec":    time.Second,
		"minute": time.Minute,
		"min":    time.Minute,
		"hour":   time.Hour,
		"hr":     time.Hour,
		"day":    24 * time.Hour,
		"week":   7 * 24 * time.Hour,
	}
	weekdayMap = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

// parse はテキストから時刻表現の構成要素を抽出する。
func parse(text string) components {
	var c components
	lower := strings.ToLower(text)

	if m := durRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			c.hasDur = true
			c.dur = time.Duration(n) * durUnitMap[m[2]]
		}
	}

	if m := clock12Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 1 && hour <= 12 && minute <= 59 {
			if m[3] == "pm" && hour < 12 {
				hour += 12
			}
			if m[3] == "am" && hour == 12 {
				hour = 0
			}
			c.hasClock = true
			c.hour = hour
			c.minute = minute
		}
	} else if m := clock24Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		c.hasClock = true
		c.hour = hour
		c.minute = minute
	} else if m := noonRe.FindStringSubmatch(lower); m != nil {
		c.hasClock = true
		if m[1] == "noon" {
			c.hour = 12
		}
	}

	if m := dayWordRe.FindStringSubmatch(lower); m != nil {
		if m[1] == "today" {
			c.day = dayToday
		} else {
			c.day = dayTomorrow
		}
	} else if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		c.day = dayWeekday
		c.weekday = weekdayMap[m[1]]
	}

	return c
}

// dateFor は日付表現をユーザーゾーンの対象日（0時）に解決する。
// 曜日名は次の該当曜日を指し、基準日と同じ曜日の場合は7日後を指す。
func dateFor(c components, loc *time.Location, now time.Time) time.Time {
	local := now.In(loc)
	year, month, day := local.Date()
	base := time.Date(year, month, day, 0, 0, 0, 0, loc)

	switch c.day {
	case dayTomorrow:
		return base.AddDate(0, 0, 1)
	case dayWeekday:
		delta := (int(c.weekday) - int(local.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return base.AddDate(0, 0, delta)
	default:
		return base
	}
}

// Resolve はテキスト中の時刻表現を基準時刻nowとゾーンlocの下で解決する。
//
// 解決ポリシー:
//   - 相対表現（"in 30 minutes"）は now + 期間 に完全解決される。
//   - 時刻のみ（"10pm"）は基準日のその時刻に解決される。すでに過ぎていても
//     翌日に繰り越さない（決定的な同日ルール）。
//   - "today"/"tomorrow" のみの場合はその日の基準時刻と同じ時分に完全解決される。
//   - 曜日名のみの場合は日付のみ確定（KindDateOnly）となり、時刻の入力を待つ。
//   - 日付と時刻の両方がある場合は順序を問わず組み合わせる。
//
// 返る絶対時刻は常にUTC。
func Resolve(text string, loc *time.Location, now time.Time) Resolution {
	c := parse(text)

	if c.hasClock {
		date := dateFor(c, loc, now)
		at := time.Date(date.Year(), date.Month(), date.Day(), c.hour, c.minute, 0, 0, loc)
		return Resolution{Kind: KindFull, At: at.UTC()}
	}

	if c.hasDur {
		return Resolution{Kind: KindFull, At: now.Add(c.dur).UTC()}
	}

	switch c.day {
	case dayToday, dayTomorrow:
		// 日のみの相対語は基準時刻と同じ時分秒に解決する
		date := dateFor(c, loc, now)
		local := now.In(loc)
		at := time.Date(date.Year(), date.Month(), date.Day(),
			local.Hour(), local.Minute(), local.Second(), 0, loc)
		return Resolution{Kind: KindFull, At: at.UTC()}
	case dayWeekday:
		d := dateFor(c, loc, now)
		return Resolution{Kind: KindDateOnly, Date: dateOnly(d)}
	}

	return Resolution{Kind: KindNotFound}
}

// dateOnly は時刻部分を捨てて暦日をUTC 0時にエンコードする。
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveAnchored はアンカー日付つきで時刻表現を解決する。
// 日付のみ確定済みの対話で後から時刻だけが供給された場合に使用し、
// 時刻のみの表現はアンカー日付のその時刻（ユーザーゾーン）に解決される。
// アンカーはUTC 0時でエンコードされた暦日なので、日付確定後にユーザーが
// タイムゾーンを変更していても暦日はそのまま読み取る。
// テキストが新しい日付表現を含む場合はアンカーを無視して通常解決する。
func ResolveAnchored(text string, loc *time.Location, now time.Time, anchor time.Time) Resolution {
	c := parse(text)

	if c.hasClock && c.day == dayNone {
		year, month, day := anchor.UTC().Date()
		at := time.Date(year, month, day, c.hour, c.minute, 0, 0, loc)
		return Resolution{Kind: KindFull, At: at.UTC()}
	}

	return Resolve(text, loc, now)
}

// Package intent は受信メッセージを少数のインテントに分類する。
// 分類は会話の対話状態に依存し、時刻を含むインテントの解決はwhenパッケージに委譲する。
package intent

import (
	"regexp"
	"strings"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/when"
)

// Type はインテントの種別を表す。
type Type int

const (
	// TypeUnknown はどのパターンにも一致しなかったことを示す。
	TypeUnknown Type = iota
	// TypeReminder はリマインダー作成フレーズ。
	TypeReminder
	// TypeStop は対話の中止フレーズ。
	TypeStop
	// TypeHelp はヘルプ要求フレーズ。
	TypeHelp
	// TypeTimezone はタイムゾーン設定フレーズ（名前が妥当な場合）。
	TypeTimezone
	// TypeUnknownTimezone はタイムゾーン設定フレーズだが名前が解決できなかった場合。
	TypeUnknownTimezone
	// TypeSupplyTime は時刻入力待ち状態での時刻供給。
	TypeSupplyTime
	// TypeList はリマインダー一覧要求フレーズ。
	TypeList
	// TypeSource はソース/自己紹介要求フレーズ。
	TypeSource
)

// String はログ出力用のインテント名を返す。
func (t Type) String() string {
	switch t {
	case TypeReminder:
		return "reminder"
	case TypeStop:
		return "stop"
	case TypeHelp:
		return "help"
	case TypeTimezone:
		return "timezone"
	case TypeUnknownTimezone:
		return "unknown_timezone"
	case TypeSupplyTime:
		return "supply_time"
	case TypeList:
		return "list"
	case TypeSource:
		return "source"
	default:
		return "unknown"
	}
}

// Intent は分類結果とそのペイロードを表す。
type Intent struct {
	Type Type

	// Body はTypeReminderの場合のリマインダー本文。
	Body string

	// Resolution はTypeReminder / TypeSupplyTimeの時刻解決結果。
	Resolution when.Resolution

	// Timezone はTypeTimezoneの場合の検証済みゾーン名。
	Timezone string
}

var (
	remindRe   = regexp.MustCompile(`(?i)\bremind me to\s+(.+)`)
	timezoneRe = regexp.MustCompile(`(?i)\b(?:my timezone is|set (?:my )?timezone to)\s+(\S+)`)
	stopRe     = regexp.MustCompile(`(?i)^\s*(?:stop|nevermind|never mind|cancel|stfu|shut up|quiet)[.!]?\s*$`)
	listRe     = regexp.MustCompile(`(?i)^\s*list\b`)
	helpRe     = regexp.MustCompile(`(?i)\bhelp\b`)
	sourceRe   = regexp.MustCompile(`(?i)^\s*(?:source|about)[?.!]?\s*$`)
)

// Classify はメッセージテキストを会話の対話状態の下でインテントに分類する。
//
// 分類順序が振る舞いを決める:
//   - 時刻入力待ち状態では、まず時刻供給として解釈を試み、中止・タイムゾーン
//     設定・ヘルプのみ割り込みを許す。ヘルプ語を含んでいても時刻として
//     解決できるテキストは時刻供給が優先される。新しいリマインダー作成と
//     しては決して再解釈しない。
//   - 通常状態ではリマインダー作成とタイムゾーン設定を汎用フレーズより
//     先に照合する。
//
// anchorは日付のみ確定済みの保留リマインダーのアンカー日付（なければnil）。
func Classify(text string, mode model.ContextMode, loc *time.Location, now time.Time, anchor *time.Time) Intent {
	if mode == model.ContextAwaitingTime {
		return classifyAwaitingTime(text, loc, now, anchor)
	}
	return classifyNone(text, loc, now)
}

func classifyNone(text string, loc *time.Location, now time.Time) Intent {
	if m := remindRe.FindStringSubmatch(text); m != nil {
		body, res := when.SplitBody(m[1], loc, now)
		return Intent{Type: TypeReminder, Body: body, Resolution: res}
	}

	if intent, ok := classifyTimezone(text); ok {
		return intent
	}

	if stopRe.MatchString(text) {
		return Intent{Type: TypeStop}
	}

	if listRe.MatchString(text) {
		return Intent{Type: TypeList}
	}

	if sourceRe.MatchString(text) {
		return Intent{Type: TypeSource}
	}

	if helpRe.MatchString(text) {
		return Intent{Type: TypeHelp}
	}

	return Intent{Type: TypeUnknown}
}

func classifyAwaitingTime(text string, loc *time.Location, now time.Time, anchor *time.Time) Intent {
	if stopRe.MatchString(text) {
		return Intent{Type: TypeStop}
	}

	if intent, ok := classifyTimezone(text); ok {
		return intent
	}

	// 時刻解決をヘルプ語の照合より先に試す。"10pm, to help dan" のように
	// 本文にhelpを含む時刻供給を取りこぼさないため。
	var res when.Resolution
	if anchor != nil {
		res = when.ResolveAnchored(text, loc, now, *anchor)
	} else {
		res = when.Resolve(text, loc, now)
	}
	if res.Kind != when.KindNotFound {
		return Intent{Type: TypeSupplyTime, Resolution: res}
	}

	if helpRe.MatchString(text) {
		return Intent{Type: TypeHelp}
	}

	return Intent{Type: TypeUnknown}
}

// classifyTimezone はタイムゾーン設定フレーズを照合し、ゾーン名を検証する。
// フレーズに一致しない場合は ok=false を返す。
func classifyTimezone(text string) (Intent, bool) {
	m := timezoneRe.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}

	name := strings.TrimRight(m[1], ".!,")
	if _, err := time.LoadLocation(name); err != nil {
		return Intent{Type: TypeUnknownTimezone}, true
	}
	return Intent{Type: TypeTimezone, Timezone: name}, true
}

package when

import (
	"fmt"
	"time"
)

// FormatShort は確認メッセージ向けの短い時刻表記を返す。
// 基準時刻と同じ日なら "at 10:30 PM"、別の日なら "on Monday at 09:02 PM"。
func FormatShort(at time.Time, loc *time.Location, now time.Time) string {
	local := at.In(loc)
	nowLocal := now.In(loc)

	if sameDate(local, nowLocal) {
		return fmt.Sprintf("at %s", local.Format("03:04 PM"))
	}
	return fmt.Sprintf("on %s at %s", local.Format("Monday"), local.Format("03:04 PM"))
}

// FormatFull は一覧表示向けの完全な時刻表記を返す。
// 例: "on Sunday April 08 2018 at 10:30 PM"
func FormatFull(at time.Time, loc *time.Location) string {
	local := at.In(loc)
	return fmt.Sprintf("on %s at %s", local.Format("Monday January 02 2006"), local.Format("03:04 PM"))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package when

import (
	"regexp"
	"strings"
	"time"
)

// 本文末尾の時刻表現にマッチするパターン群。
// "remind me to paint the fence tomorrow at 10:30pm" のような文から
// 末尾の時刻表現を1トークン群ずつ剥がすために使用する。
var trailingRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:,?\s+|^)(?:at )?\d{1,2}(?::\d{2})?\s*(?:am|pm)[.!]?$`),
	regexp.MustCompile(`(?i)(?:,?\s+|^)(?:at )?(?:[01]?\d|2[0-3]):[0-5]\d[.!]?$`),
	regexp.MustCompile(`(?i)(?:,?\s+|^)(?:at )?(?:noon|midnight)[.!]?$`),
	regexp.MustCompile(`(?i)(?:,?\s+|^)(?:today|tomorrow)[.!]?$`),
	regexp.MustCompile(`(?i)(?:,?\s+|^)(?:on )?(?:sunday|monday|tuesday|wednesday|thursday|friday|saturday)[.!]?$`),
	regexp.MustCompile(`(?i)(?:,?\s+|^)in \d+ (?:second|sec|minute|min|hour|hr|day|week)s?[.!]?$`),
}

// SplitBody はリマインダー本文から末尾の時刻表現を切り出して解決する。
// 時刻表現が見つからない場合は本文全体とKindNotFoundを返す。
// 日付と時刻が別トークンで並ぶ場合（"today at 10:30pm" / "at 10:30pm today"）も
// 順序を問わず1つの解決結果にまとめる。
func SplitBody(text string, loc *time.Location, now time.Time) (string, Resolution) {
	body := strings.TrimSpace(text)
	var timeParts []string

	for {
		stripped := false
		for _, re := range trailingRes {
			if m := re.FindStringIndex(body); m != nil {
				timeParts = append([]string{strings.TrimSpace(body[m[0]:m[1]])}, timeParts...)
				body = strings.TrimSpace(body[:m[0]])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	body = strings.TrimRight(body, " ,.!")

	if len(timeParts) == 0 {
		return body, Resolution{Kind: KindNotFound}
	}

	return body, Resolve(strings.Join(timeParts, " "), loc, now)
}

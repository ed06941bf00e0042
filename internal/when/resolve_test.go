package when

import (
	"testing"
	"time"
)

// 基準時刻: 2018-04-08 21:02:28 EDT (日曜) = 2018-04-09 01:02:28 UTC (月曜)
var testNow = time.Unix(1523235748, 0).UTC()

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("US/Eastern")
	if err != nil {
		t.Fatalf("failed to load US/Eastern: %v", err)
	}
	return loc
}

func TestResolve_FullResolutions(t *testing.T) {
	loc := eastern(t)

	tests := []struct {
		name string
		text string
		want time.Time // UTC
	}{
		{
			name: "時刻のみは基準日のその時刻",
			text: "10pm",
			want: time.Date(2018, 4, 9, 2, 0, 0, 0, time.UTC), // 4/8 22:00 EDT
		},
		{
			name: "分つき12時間表記",
			text: "10:30pm",
			want: time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "時刻+today",
			text: "at 10:30pm today",
			want: time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "today+時刻（順序逆）",
			text: "today at 10:30pm",
			want: time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "tomorrow単独は翌日の同時刻",
			text: "tomorrow",
			want: time.Date(2018, 4, 10, 1, 2, 28, 0, time.UTC), // 4/9 21:02:28 EDT
		},
		{
			name: "tomorrow+時刻",
			text: "tomorrow at 9am",
			want: time.Date(2018, 4, 9, 13, 0, 0, 0, time.UTC), // 4/9 09:00 EDT
		},
		{
			name: "相対表現",
			text: "in 30 minutes",
			want: testNow.Add(30 * time.Minute),
		},
		{
			name: "相対表現（時間単位）",
			text: "in 2 hours",
			want: testNow.Add(2 * time.Hour),
		},
		{
			name: "過ぎた時刻も同日のまま（翌日に繰り越さない）",
			text: "8pm",
			want: time.Date(2018, 4, 9, 0, 0, 0, 0, time.UTC), // 4/8 20:00 EDT
		},
		{
			name: "24時間表記",
			text: "22:30",
			want: time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "正午",
			text: "noon tomorrow",
			want: time.Date(2018, 4, 9, 16, 0, 0, 0, time.UTC), // 4/9 12:00 EDT
		},
		{
			name: "12am は午前0時",
			text: "tomorrow at 12am",
			want: time.Date(2018, 4, 9, 4, 0, 0, 0, time.UTC), // 4/9 00:00 EDT
		},
		{
			name: "曜日+時刻",
			text: "friday at 3pm",
			want: time.Date(2018, 4, 13, 19, 0, 0, 0, time.UTC), // 4/13 15:00 EDT
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.text, loc, testNow)
			if res.Kind != KindFull {
				t.Fatalf("Kind = %v, want KindFull", res.Kind)
			}
			if !res.At.Equal(tt.want) {
				t.Errorf("At = %v, want %v", res.At, tt.want)
			}
		})
	}
}

func TestResolve_DateOnly(t *testing.T) {
	loc := eastern(t)

	tests := []struct {
		name     string
		text     string
		wantDate time.Time
	}{
		{
			name:     "曜日のみは日付のみ確定",
			text:     "friday",
			wantDate: time.Date(2018, 4, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "同じ曜日は7日後",
			text:     "sunday",
			wantDate: time.Date(2018, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "on付き曜日",
			text:     "on monday",
			wantDate: time.Date(2018, 4, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.text, loc, testNow)
			if res.Kind != KindDateOnly {
				t.Fatalf("Kind = %v, want KindDateOnly", res.Kind)
			}
			if !res.Date.Equal(tt.wantDate) {
				t.Errorf("Date = %v, want %v", res.Date, tt.wantDate)
			}
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	loc := eastern(t)

	for _, text := range []string{
		"say hello",
		"",
		"not parsable",
		"remind me of nothing",
	} {
		res := Resolve(text, loc, testNow)
		if res.Kind != KindNotFound {
			t.Errorf("Resolve(%q).Kind = %v, want KindNotFound", text, res.Kind)
		}
	}
}

// 同じ句でもゾーンが違えば別の絶対時刻に解決されることを検証する。
func TestResolve_TimezoneAware(t *testing.T) {
	eastern := eastern(t)
	pacific, err := time.LoadLocation("US/Pacific")
	if err != nil {
		t.Fatalf("failed to load US/Pacific: %v", err)
	}

	resEast := Resolve("10pm", eastern, testNow)
	resWest := Resolve("10pm", pacific, testNow)

	if resEast.At.Equal(resWest.At) {
		t.Error("same phrase should resolve to different instants in different zones")
	}
	if got := resWest.At.Sub(resEast.At); got != 3*time.Hour {
		t.Errorf("EDT/PDT offset = %v, want 3h", got)
	}
}

// ゾーン往復: "10pm" を解決してローカルに戻すと22:00になることを検証する。
func TestResolve_TimezoneRoundTrip(t *testing.T) {
	pacific, err := time.LoadLocation("US/Pacific")
	if err != nil {
		t.Fatalf("failed to load US/Pacific: %v", err)
	}

	res := Resolve("10pm", pacific, testNow)
	if res.Kind != KindFull {
		t.Fatalf("Kind = %v, want KindFull", res.Kind)
	}

	local := res.At.In(pacific)
	if local.Hour() != 22 || local.Minute() != 0 {
		t.Errorf("local time = %02d:%02d, want 22:00", local.Hour(), local.Minute())
	}
	// 基準時刻はPDTで18:02のため、22時は同日
	if local.Day() != 8 {
		t.Errorf("local day = %d, want 8", local.Day())
	}
}

func TestResolveAnchored(t *testing.T) {
	loc := eastern(t)
	anchor := time.Date(2018, 4, 13, 0, 0, 0, 0, time.UTC) // 金曜

	t.Run("時刻のみはアンカー日付に解決", func(t *testing.T) {
		res := ResolveAnchored("10pm", loc, testNow, anchor)
		if res.Kind != KindFull {
			t.Fatalf("Kind = %v, want KindFull", res.Kind)
		}
		want := time.Date(2018, 4, 14, 2, 0, 0, 0, time.UTC) // 4/13 22:00 EDT
		if !res.At.Equal(want) {
			t.Errorf("At = %v, want %v", res.At, want)
		}
	})

	t.Run("新しい日付表現はアンカーを上書き", func(t *testing.T) {
		res := ResolveAnchored("tomorrow at 9am", loc, testNow, anchor)
		if res.Kind != KindFull {
			t.Fatalf("Kind = %v, want KindFull", res.Kind)
		}
		want := time.Date(2018, 4, 9, 13, 0, 0, 0, time.UTC)
		if !res.At.Equal(want) {
			t.Errorf("At = %v, want %v", res.At, want)
		}
	})

	t.Run("解決不能はKindNotFound", func(t *testing.T) {
		res := ResolveAnchored("gibberish", loc, testNow, anchor)
		if res.Kind != KindNotFound {
			t.Errorf("Kind = %v, want KindNotFound", res.Kind)
		}
	})

	// アンカー確定後にユーザーがゾーンを変更しても暦日は動かない
	t.Run("ゾーン変更後もアンカーの暦日を保持", func(t *testing.T) {
		pacific, err := time.LoadLocation("US/Pacific")
		if err != nil {
			t.Fatalf("failed to load US/Pacific: %v", err)
		}
		res := ResolveAnchored("10pm", pacific, testNow, anchor)
		if res.Kind != KindFull {
			t.Fatalf("Kind = %v, want KindFull", res.Kind)
		}
		local := res.At.In(pacific)
		if local.Weekday() != time.Friday || local.Day() != 13 {
			t.Errorf("local = %v, want Friday the 13th", local)
		}
		want := time.Date(2018, 4, 14, 5, 0, 0, 0, time.UTC) // 4/13 22:00 PDT
		if !res.At.Equal(want) {
			t.Errorf("At = %v, want %v", res.At, want)
		}
	})
}

func TestSplitBody(t *testing.T) {
	loc := eastern(t)

	tests := []struct {
		name     string
		text     string
		wantBody string
		wantKind Kind
		wantAt   time.Time
	}{
		{
			name:     "末尾のtomorrow",
			text:     "foo tomorrow",
			wantBody: "foo",
			wantKind: KindFull,
			wantAt:   time.Date(2018, 4, 10, 1, 2, 28, 0, time.UTC),
		},
		{
			name:     "時刻+day",
			text:     "paint dan's fence at 10:30pm today",
			wantBody: "paint dan's fence",
			wantKind: KindFull,
			wantAt:   time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name:     "day+時刻",
			text:     "paint dan's fence today at 10:30pm",
			wantBody: "paint dan's fence",
			wantKind: KindFull,
			wantAt:   time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC),
		},
		{
			name:     "時刻表現なし",
			text:     "say hello",
			wantBody: "say hello",
			wantKind: KindNotFound,
		},
		{
			name:     "相対表現",
			text:     "check the oven in 30 minutes",
			wantBody: "check the oven",
			wantKind: KindFull,
			wantAt:   testNow.Add(30 * time.Minute),
		},
		{
			name:     "曜日のみは日付のみ確定",
			text:     "buy milk on friday",
			wantBody: "buy milk",
			wantKind: KindDateOnly,
		},
		{
			name:     "末尾の句読点を除去",
			text:     "call mom tomorrow at 9am.",
			wantBody: "call mom",
			wantKind: KindFull,
			wantAt:   time.Date(2018, 4, 9, 13, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, res := SplitBody(tt.text, loc, testNow)
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if res.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", res.Kind, tt.wantKind)
			}
			if tt.wantKind == KindFull && !res.At.Equal(tt.wantAt) {
				t.Errorf("At = %v, want %v", res.At, tt.wantAt)
			}
		})
	}
}

func TestFormatShort(t *testing.T) {
	loc := eastern(t)

	t.Run("同日はat表記", func(t *testing.T) {
		at := time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC) // 4/8 22:30 EDT
		got := FormatShort(at, loc, testNow)
		if got != "at 10:30 PM" {
			t.Errorf("FormatShort = %q, want %q", got, "at 10:30 PM")
		}
	})

	t.Run("別日はon曜日表記", func(t *testing.T) {
		at := time.Date(2018, 4, 10, 1, 2, 0, 0, time.UTC) // 4/9 21:02 EDT (月)
		got := FormatShort(at, loc, testNow)
		if got != "on Monday at 09:02 PM" {
			t.Errorf("FormatShort = %q, want %q", got, "on Monday at 09:02 PM")
		}
	})
}

func TestFormatFull(t *testing.T) {
	loc := eastern(t)
	at := time.Date(2018, 4, 9, 2, 30, 0, 0, time.UTC) // 4/8 22:30 EDT (日)
	got := FormatFull(at, loc)
	if got != "on Sunday April 08 2018 at 10:30 PM" {
		t.Errorf("FormatFull = %q, want %q", got, "on Sunday April 08 2018 at 10:30 PM")
	}
}

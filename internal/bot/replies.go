package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/when"
)

// 定型応答メッセージ
const (
	ReplyHelpWhen = "Sorry, I didn't understand. When should I set the reminder for?" +
		" You can say something like \"tomorrow at 10am\" or \"in 30 minutes\"."
	ReplyHelpTZ = "Sorry, I couldn't understand your timezone. It can be something like \"US/Pacific\"" +
		" or \"GMT\". If you're stuck, I can use any of the timezones in this list:" +
		" https://en.wikipedia.org/wiki/List_of_tz_database_time_zones." +
		" Be sure to get the capitalization right!"
	ReplyUnknown    = "Sorry, I didn't understand that message."
	ReplyPromptHelp = "Hey there, I didn't understand that." +
		" Just say \"help\" to see what sort of things I understand."
	ReplyWhen        = "When do you want to be reminded?"
	ReplyAck         = "Got it!"
	ReplyAckWhen     = ReplyAck + " " + ReplyWhen
	ReplyOK          = "ok!"
	ReplyNoReminders = "You don't have any upcoming reminders."
	ReplyListIntro   = "Here are your upcoming reminders:\n\n"
	ReplySource      = "I'm a bot written in go.\n" +
		"Source available here: https://github.com/hitoshi/remindbot"
	ReplyHelp = "Hi! I'm a reminder bot. Here's what you can say to me:\n\n" +
		"- \"remind me to foo\" or \"remind me to foo tomorrow at 10am\" to set a reminder\n" +
		"- \"list\" to see your upcoming reminders\n" +
		"- \"my timezone is US/Pacific\" to set your timezone\n" +
		"- \"nevermind\" to cancel a reminder I'm asking you about\n" +
		"- \"source\" to see where my code lives"
	reminderPrefix = "*Reminder:* "
)

// assumeTimezoneReply はデフォルトタイムゾーンを仮定する旨の通知文を生成する。
func assumeTimezoneReply(defaultTZ string) string {
	return fmt.Sprintf("I'm assuming your timezone is %s."+
		" If it's not, just tell me something like \"my timezone is US/Pacific\".", defaultTZ)
}

// confirmationReply はリマインダー設定完了の確認文を生成する。
func confirmationReply(body string, at time.Time, loc *time.Location, now time.Time) string {
	return "Ok! I'll remind you to " + body + " " + when.FormatShort(at, loc, now)
}

// deliveryText はリマインダー配信メッセージを生成する。
func deliveryText(body string) string {
	return reminderPrefix + body
}

// crashReply は処理失敗時の謝罪メッセージを生成する。
func crashReply(owner string) string {
	return "Ugh! I crashed! You can complain to @" + owner + "."
}

// listReply は今後のリマインダー一覧の応答文を生成する。
func listReply(reminders []*model.Reminder, loc *time.Location) string {
	if len(reminders) == 0 {
		return ReplyNoReminders
	}
	var b strings.Builder
	b.WriteString(ReplyListIntro)
	for i, r := range reminders {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strconv.Itoa(i+1) + ". " + r.Body + " - " + when.FormatFull(*r.RemindAt, loc))
	}
	return b.String()
}

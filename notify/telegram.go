// Package notify reports scrape progress and outcomes to a Telegram chat.
package notify

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"html-scraper/scraper"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	// maxPreview is how many records are quoted in the summary message
	maxPreview = 5
	// previewRunes caps each quoted record
	previewRunes = 200
	// maxMessageRunes stays below Telegram's 4096 character limit
	maxMessageRunes = 4000
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter implements scraper.Reporter by messaging a chat when a
// run starts and when it finishes
type TelegramReporter struct {
	bot    sender
	chatID int64
	// startMsgID threads the summary under the start message
	startMsgID int
}

// NewTelegramReporter authorizes the bot token and returns a reporter for chatID
func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	log.Debug().Str("account", bot.Self.UserName).Msg("Telegram bot authorized")
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) Stage(stage scraper.Stage, detail string) {
	if stage != scraper.StageFetch {
		return
	}
	msg, err := t.send(fmt.Sprintf("⏳ Scraping %s", html.EscapeString(detail)), 0)
	if err == nil {
		t.startMsgID = msg.MessageID
	}
}

func (t *TelegramReporter) Finished(result *scraper.Result) {
	t.send(summary(result), t.startMsgID)
}

func (t *TelegramReporter) send(text string, replyTo int) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := t.bot.Send(msg)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", t.chatID).Msg("Error sending status update")
	}
	return sent, err
}

// summary formats a finished run as an HTML message that fits in one
// Telegram message. Previews are cut to previewRunes and dropped once the
// message would exceed maxMessageRunes.
func summary(result *scraper.Result) string {
	var b strings.Builder
	switch result.Outcome {
	case scraper.OutcomeRecords:
		b.WriteString("✅ ")
	case scraper.OutcomeNoData:
		b.WriteString("⚠️ ")
	default:
		b.WriteString("❌ ")
	}
	b.WriteString(html.EscapeString(result.Status()))
	fmt.Fprintf(&b, "\n<b>URL:</b> %s", html.EscapeString(truncate(result.URL, previewRunes)))

	var lines []string
	for _, err := range result.ExportErrors {
		lines = append(lines, "\n⚠️ "+html.EscapeString(truncate(err.Error(), previewRunes)))
	}
	for i, r := range result.Records {
		if i == maxPreview {
			break
		}
		lines = append(lines, fmt.Sprintf("\n%d. <code>%s</code> %s",
			i+1, html.EscapeString(truncate(r.TagName, previewRunes)), html.EscapeString(truncate(r.Content, previewRunes))))
	}

	// room for the "and N more" line
	budget := maxMessageRunes - utf8.RuneCountInString(b.String()) - 32
	shown := 0
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n > budget {
			break
		}
		b.WriteString(line)
		budget -= n
		shown++
	}

	if hidden := len(result.ExportErrors) + len(result.Records) - shown; hidden > 0 {
		fmt.Fprintf(&b, "\n… and %d more", hidden)
	}
	return b.String()
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

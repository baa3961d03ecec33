package reporter

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobscout-crawler/internal/models"
)

// TelegramReporter pushes run summaries to a chat. Construction fails when
// the token is invalid; callers treat the reporter as optional.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

// SendRunSummary reports one line per crawl target plus totals.
func (t *TelegramReporter) SendRunSummary(logs []models.RunLog) error {
	if len(logs) == 0 {
		return t.SendMessage("ℹ️ Crawl finished: nothing to report")
	}

	var b strings.Builder
	b.WriteString("📊 <b>Crawl finished</b>\n")

	var found, stored, failed, excluded int
	for _, l := range logs {
		found += l.TotalFound
		stored += l.Stored
		failed += l.Failed
		excluded += l.Excluded
		fmt.Fprintf(&b, "• %s: %d found, %d stored, %d excluded (%s)\n",
			l.SearchLabel, l.TotalFound, l.Stored, l.Excluded, l.Duration.Round(time.Second))
	}
	fmt.Fprintf(&b, "\nΣ %d found / %d stored / %d excluded / %d failed",
		found, stored, excluded, failed)

	return t.SendMessage(b.String())
}

func (t *TelegramReporter) SendError(errReq error) error {
	return t.SendMessage(fmt.Sprintf("⚠️ <b>Crawler Error</b>:\n%v", errReq))
}

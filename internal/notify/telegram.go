// Package notify sends run summaries to the operator. Delivery failures are
// logged, never propagated into the pipeline.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobscout-engine/internal/run"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) SendSummary(sum run.Summary) error {
	text := fmt.Sprintf(
		"<b>Run %s finished</b>\n"+
			"Searches: %d (%d failed)\n"+
			"Found: %d, already seen: %d\n"+
			"Rows written: %d, added to store: %d, skipped: %d\n"+
			"Tokens: %d prompt / %d completion\n"+
			"CSV: %s",
		sum.RunID,
		sum.Searches, sum.SearchesFailed,
		sum.Found, sum.AlreadySeen,
		sum.RowsWritten, sum.Added, sum.Skipped,
		sum.PromptTokens, sum.CompletionTokens,
		sum.CSVPath,
	)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

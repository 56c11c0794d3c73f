package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/longtrq26/court-booking-system/internal/models"
)

// TelegramSink posts admin notifications to a Telegram chat. Customers have no
// chat mapping, so user notifications are skipped.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(bot *tgbotapi.BotAPI, adminChatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: adminChatID}
}

func (s *TelegramSink) NotifyAdmins(ctx context.Context, n models.Notification) error {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("%s\n%s", n.Title, n.Message))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (s *TelegramSink) NotifyUser(ctx context.Context, userID uuid.UUID, n models.Notification) error {
	return nil
}

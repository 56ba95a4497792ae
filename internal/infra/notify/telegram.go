package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

// TelegramChannel delivers triggers as bot messages to users who linked a
// chat ID in their preferences.
type TelegramChannel struct {
	api    *tgbotapi.BotAPI
	users  domain.UserRepository
	logger *zap.Logger
}

func NewTelegramAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

func NewTelegramChannel(api *tgbotapi.BotAPI, users domain.UserRepository, logger *zap.Logger) *TelegramChannel {
	return &TelegramChannel{api: api, users: users, logger: logger}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Deliver(ctx context.Context, alert domain.Alert, trigger domain.TriggerContext) error {
	user, err := c.users.GetByID(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if user.TelegramChatID == 0 {
		return errors.New("user has no telegram chat linked")
	}

	direction := "rose above"
	if trigger.Condition == domain.ConditionBelow {
		direction = "dropped below"
	}
	text := fmt.Sprintf("🔔 %s %s $%s and is now at $%s",
		trigger.Symbol, direction, trigger.TargetPrice.String(), trigger.Price.String())

	msg := tgbotapi.NewMessage(user.TelegramChatID, text)
	if _, err := c.api.Send(msg); err != nil {
		c.logger.Warn("telegram send failed", zap.Int64("chat_id", user.TelegramChatID), zap.Error(err))
		return err
	}
	return nil
}

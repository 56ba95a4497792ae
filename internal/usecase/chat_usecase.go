package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

// ChatUsecase is the natural-language intake: it runs a message through the
// intent parser and, when a price condition comes out, creates the alert on
// the user's behalf. Parsing internals live behind domain.IntentParser.
type ChatUsecase struct {
	parser domain.IntentParser
	alerts *AlertUsecase
	users  *UserUsecase
	logger *zap.Logger
}

type ChatReply struct {
	Response     string
	Parsed       *domain.ParsedIntent
	AlertCreated bool
	AlertID      string
}

func NewChatUsecase(parser domain.IntentParser, alerts *AlertUsecase, users *UserUsecase, logger *zap.Logger) *ChatUsecase {
	return &ChatUsecase{parser: parser, alerts: alerts, users: users, logger: logger}
}

func (c *ChatUsecase) Handle(ctx context.Context, userID, message string) (*ChatReply, error) {
	user, err := c.users.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	intent, err := c.parser.Parse(ctx, message)
	if err != nil {
		c.logger.Warn("intent parsing failed", zap.String("user_id", userID), zap.Error(err))
		return &ChatReply{
			Response: "I couldn't understand that. Try something like: \"Alert me when ETH hits $4000\".",
		}, nil
	}

	if !c.alerts.SupportsSymbol(intent.Symbol) {
		return &ChatReply{
			Response: fmt.Sprintf("Sorry, %s isn't a token I track yet.", intent.Symbol),
			Parsed:   intent,
		}, nil
	}

	target, err := decimal.NewFromString(intent.TargetPrice)
	if err != nil || target.Sign() <= 0 {
		return &ChatReply{
			Response: "I got the token but not the price. Try: \"Alert me when BTC drops below $30000\".",
			Parsed:   intent,
		}, nil
	}

	channels := []string{"realtime"}
	if user.Email != "" && user.EmailNotifications && c.alerts.HasChannel("email") {
		channels = append(channels, "email")
	}

	alert, err := c.alerts.Create(ctx, CreateAlertInput{
		UserID:      user.ID,
		Symbol:      intent.Symbol,
		Condition:   intent.Condition,
		TargetPrice: target,
		Channels:    channels,
		Message:     message,
	})
	if err != nil {
		return nil, err
	}

	direction := "rises to"
	if alert.Condition == domain.ConditionBelow {
		direction = "drops to"
	}
	return &ChatReply{
		Response:     fmt.Sprintf("Done. I'll let you know when %s %s $%s.", alert.Symbol, direction, alert.TargetPrice.String()),
		Parsed:       intent,
		AlertCreated: true,
		AlertID:      alert.ID,
	}, nil
}

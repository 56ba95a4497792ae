package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

// WebPushChannel sends browser push notifications to every subscription the
// user has registered. The channel succeeds when at least one endpoint
// accepts the message.
type WebPushChannel struct {
	subs       domain.PushSubscriptionRepository
	publicKey  string
	privateKey string
	subscriber string
	logger     *zap.Logger
}

func NewWebPushChannel(subs domain.PushSubscriptionRepository, publicKey, privateKey, subscriber string, logger *zap.Logger) *WebPushChannel {
	return &WebPushChannel{
		subs:       subs,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		logger:     logger,
	}
}

func (c *WebPushChannel) Name() string { return "webpush" }

func (c *WebPushChannel) Deliver(ctx context.Context, alert domain.Alert, trigger domain.TriggerContext) error {
	subs, err := c.subs.ListByUser(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return errors.New("user has no push subscriptions")
	}

	direction := "rose above"
	if trigger.Condition == domain.ConditionBelow {
		direction = "dropped below"
	}
	payload, err := json.Marshal(map[string]string{
		"title": fmt.Sprintf("%s alert", trigger.Symbol),
		"body":  fmt.Sprintf("%s %s $%s (now $%s)", trigger.Symbol, direction, trigger.TargetPrice.String(), trigger.Price.String()),
	})
	if err != nil {
		return err
	}

	delivered := 0
	for _, sub := range subs {
		target := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}
		response, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
			Subscriber:      c.subscriber,
			VAPIDPublicKey:  c.publicKey,
			VAPIDPrivateKey: c.privateKey,
			TTL:             60,
		})
		if err != nil {
			c.logger.Warn("webpush send failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			continue
		}
		response.Body.Close()
		delivered++
	}

	if delivered == 0 {
		return errors.New("all push endpoints rejected the notification")
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

var errNoRecipient = errors.New("user has no email address")

// EmailChannel delivers trigger notifications through a Resend-style HTTP
// email API.
type EmailChannel struct {
	baseURL string
	apiKey  string
	from    string
	users   domain.UserRepository
	client  *http.Client
	logger  *zap.Logger
}

func NewEmailChannel(baseURL, apiKey, from string, users domain.UserRepository, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		users:   users,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *EmailChannel) Name() string { return "email" }

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *EmailChannel) Deliver(ctx context.Context, alert domain.Alert, trigger domain.TriggerContext) error {
	user, err := c.users.GetByID(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if user.Email == "" {
		return errNoRecipient
	}
	if !user.EmailNotifications {
		return errors.New("email notifications disabled by user")
	}

	direction := "rose above"
	if trigger.Condition == domain.ConditionBelow {
		direction = "dropped below"
	}
	subject := fmt.Sprintf("%s %s $%s", trigger.Symbol, direction, trigger.TargetPrice.String())
	html := fmt.Sprintf(
		"<h2>Price alert</h2><p><strong>%s</strong> %s your target of $%s and is now at <strong>$%s</strong>.</p><p>%s</p>",
		trigger.Symbol, direction, trigger.TargetPrice.String(), trigger.Price.String(), alert.Message,
	)

	payload, err := json.Marshal(emailPayload{
		From:    c.from,
		To:      []string{user.Email},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("email API status %d", response.StatusCode)
	}

	c.logger.Info("email notification sent", zap.String("alert_id", alert.ID), zap.String("to", user.Email))
	return nil
}

package notify

import (
	"context"
	"time"

	"github.com/tokentalk/tokentalk/internal/delivery/ws"
	"github.com/tokentalk/tokentalk/internal/domain"
)

// RealtimeChannel pushes trigger events over the user's open websockets.
// Best effort: a user with no connected dashboard simply fails this channel
// and the record says so.
type RealtimeChannel struct {
	hub *ws.Hub
}

func NewRealtimeChannel(hub *ws.Hub) *RealtimeChannel {
	return &RealtimeChannel{hub: hub}
}

func (c *RealtimeChannel) Name() string { return "realtime" }

type triggerEvent struct {
	Type        string    `json:"type"`
	AlertID     string    `json:"alert_id"`
	Symbol      string    `json:"symbol"`
	Price       string    `json:"price"`
	Condition   string    `json:"condition"`
	TargetPrice string    `json:"target_price"`
	Message     string    `json:"message,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

func (c *RealtimeChannel) Deliver(_ context.Context, alert domain.Alert, trigger domain.TriggerContext) error {
	return c.hub.SendToUser(alert.UserID, triggerEvent{
		Type:        "alert_triggered",
		AlertID:     alert.ID,
		Symbol:      trigger.Symbol,
		Price:       trigger.Price.String(),
		Condition:   string(trigger.Condition),
		TargetPrice: trigger.TargetPrice.String(),
		Message:     alert.Message,
		TriggeredAt: trigger.ObservedAt,
	})
}

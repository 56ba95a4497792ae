package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

type NotificationRecord struct {
	ID        string
	AlertID   string
	UserID    string
	Channel   string
	Status    DeliveryStatus
	Error     string
	SentAt    *time.Time
	CreatedAt time.Time
}

// TriggerContext carries the price observation that fired an alert.
type TriggerContext struct {
	Symbol      string
	Price       decimal.Decimal
	Condition   AlertCondition
	TargetPrice decimal.Decimal
	ObservedAt  time.Time
}

// Channel is a single notification delivery mechanism. Implementations own
// their own retry policy; the dispatcher never retries.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert Alert, trigger TriggerContext) error
}

type PushSubscription struct {
	ID        string
	UserID    string
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}

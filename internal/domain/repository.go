package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the store rejected a status change because
	// the alert was not in the expected prior state. For the engine this is
	// a benign race; for user-initiated updates it is surfaced.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, alertID string) (*Alert, error)
	ListActive(ctx context.Context) ([]Alert, error)
	ListByUser(ctx context.Context, userID string) ([]Alert, error)
	CountByUser(ctx context.Context, userID string) (map[AlertStatus]int64, error)

	// MarkTriggered performs the atomic conditional transition
	// active -> triggered and stamps triggered_at. It is the single
	// serialization point guaranteeing at-most-once triggering.
	MarkTriggered(ctx context.Context, alertID string, at time.Time) (*Alert, error)

	UpdateStatus(ctx context.Context, userID, alertID string, status AlertStatus) (*Alert, error)
	Delete(ctx context.Context, userID, alertID string) error
}

type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

type NotificationRepository interface {
	Create(ctx context.Context, record *NotificationRecord) error
	ListByAlert(ctx context.Context, alertID string) ([]NotificationRecord, error)
}

type PushSubscriptionRepository interface {
	Save(ctx context.Context, sub *PushSubscription) error
	ListByUser(ctx context.Context, userID string) ([]PushSubscription, error)
}

// PriceHistoryRepository records the samples observed by successful engine
// cycles. The evaluation loop never reads it back.
type PriceHistoryRepository interface {
	Record(ctx context.Context, samples []PriceSample) error
}

// TriggerLogRepository keeps an audit row for every successful trigger.
type TriggerLogRepository interface {
	Record(ctx context.Context, alertID string, trigger TriggerContext) error
}

// IntentParser turns a natural-language request into a structured alert
// intent. Implementations may call an external model; parsing internals are
// outside this core.
type IntentParser interface {
	Parse(ctx context.Context, message string) (*ParsedIntent, error)
}

type ParsedIntent struct {
	Symbol      string
	Condition   AlertCondition
	TargetPrice string
	Confidence  float64
	Explanation string
}

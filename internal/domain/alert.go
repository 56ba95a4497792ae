package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusTriggered AlertStatus = "triggered"
	StatusPaused    AlertStatus = "paused"
	StatusDeleted   AlertStatus = "deleted"
)

type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

type Alert struct {
	ID          string
	UserID      string
	Symbol      string
	Condition   AlertCondition
	TargetPrice decimal.Decimal
	Status      AlertStatus
	Channels    []string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TriggeredAt *time.Time
}

// CanTransition reports whether a status change is allowed by the alert
// state machine. Deleted is terminal; triggered and paused alerts may only
// be re-armed back to active.
func CanTransition(from, to AlertStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusActive:
		return to == StatusPaused || to == StatusTriggered || to == StatusDeleted
	case StatusPaused:
		return to == StatusActive || to == StatusDeleted
	case StatusTriggered:
		return to == StatusActive || to == StatusDeleted
	default:
		return false
	}
}

func ValidStatus(s AlertStatus) bool {
	switch s {
	case StatusActive, StatusTriggered, StatusPaused, StatusDeleted:
		return true
	}
	return false
}

func ValidCondition(c AlertCondition) bool {
	return c == ConditionAbove || c == ConditionBelow
}

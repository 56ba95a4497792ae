package usecase

import (
	"github.com/tokentalk/tokentalk/internal/domain"
)

// TriggeredAlert pairs an alert with the price observation that satisfied it.
type TriggeredAlert struct {
	Alert   domain.Alert
	Trigger domain.TriggerContext
}

// Evaluate returns the subset of alerts whose condition is satisfied by the
// given samples. It is a pure function: no side effects, and the result does
// not depend on evaluation order. Comparisons are inclusive, so a sample
// landing exactly on the target counts as a crossing. Alerts whose symbol has
// no sample this cycle are skipped.
func Evaluate(prices map[string]domain.PriceSample, alerts []domain.Alert) []TriggeredAlert {
	triggered := make([]TriggeredAlert, 0)
	for _, alert := range alerts {
		if alert.Status != domain.StatusActive {
			continue
		}
		sample, ok := prices[alert.Symbol]
		if !ok {
			continue
		}
		if !conditionMet(alert, sample) {
			continue
		}
		triggered = append(triggered, TriggeredAlert{
			Alert: alert,
			Trigger: domain.TriggerContext{
				Symbol:      alert.Symbol,
				Price:       sample.Value,
				Condition:   alert.Condition,
				TargetPrice: alert.TargetPrice,
				ObservedAt:  sample.Timestamp,
			},
		})
	}
	return triggered
}

func conditionMet(alert domain.Alert, sample domain.PriceSample) bool {
	switch alert.Condition {
	case domain.ConditionAbove:
		return sample.Value.GreaterThanOrEqual(alert.TargetPrice)
	case domain.ConditionBelow:
		return sample.Value.LessThanOrEqual(alert.TargetPrice)
	default:
		return false
	}
}

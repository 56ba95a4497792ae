package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

// Dispatcher fans a triggered alert out to its configured channels. Each
// channel attempt is independent: one failing delivery never blocks the
// others, and the dispatcher performs no retries of its own.
type Dispatcher struct {
	records domain.NotificationRepository
	timeout time.Duration
	logger  *zap.Logger
	metrics *Metrics

	mu       sync.RWMutex
	channels map[string]domain.Channel
}

func NewDispatcher(records domain.NotificationRepository, timeout time.Duration, metrics *Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		records:  records,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
		channels: make(map[string]domain.Channel),
	}
}

func (d *Dispatcher) Register(channel domain.Channel) {
	d.mu.Lock()
	d.channels[channel.Name()] = channel
	d.mu.Unlock()
}

// ChannelNames lists the registered channel identifiers.
func (d *Dispatcher) ChannelNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}

func (d *Dispatcher) HasChannel(name string) bool {
	d.mu.RLock()
	_, ok := d.channels[name]
	d.mu.RUnlock()
	return ok
}

// Send attempts delivery on every channel the alert asks for and returns one
// record per channel with its independent outcome.
func (d *Dispatcher) Send(ctx context.Context, alert domain.Alert, trigger domain.TriggerContext) []domain.NotificationRecord {
	results := make([]domain.NotificationRecord, len(alert.Channels))

	var wg sync.WaitGroup
	for i, name := range alert.Channels {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = d.deliver(ctx, name, alert, trigger)
		}(i, name)
	}
	wg.Wait()

	for i := range results {
		if err := d.records.Create(ctx, &results[i]); err != nil {
			d.logger.Error("failed to persist notification record",
				zap.String("alert_id", alert.ID),
				zap.String("channel", results[i].Channel),
				zap.Error(err))
		}
	}
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, name string, alert domain.Alert, trigger domain.TriggerContext) domain.NotificationRecord {
	record := domain.NotificationRecord{
		AlertID: alert.ID,
		UserID:  alert.UserID,
		Channel: name,
		Status:  domain.DeliveryPending,
	}

	d.mu.RLock()
	channel, ok := d.channels[name]
	d.mu.RUnlock()

	if !ok {
		record.Status = domain.DeliveryFailed
		record.Error = "channel not configured"
		d.metrics.Notifications.WithLabelValues(name, string(domain.DeliveryFailed)).Inc()
		d.logger.Warn("alert references unknown channel", zap.String("alert_id", alert.ID), zap.String("channel", name))
		return record
	}

	deliverCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := channel.Deliver(deliverCtx, alert, trigger)
	now := time.Now()
	record.SentAt = &now
	if err != nil {
		record.Status = domain.DeliveryFailed
		record.Error = err.Error()
		d.metrics.Notifications.WithLabelValues(name, string(domain.DeliveryFailed)).Inc()
		d.logger.Warn("channel delivery failed",
			zap.String("alert_id", alert.ID),
			zap.String("channel", name),
			zap.Error(err))
		return record
	}

	record.Status = domain.DeliverySent
	d.metrics.Notifications.WithLabelValues(name, string(domain.DeliverySent)).Inc()
	return record
}

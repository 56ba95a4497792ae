package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tokentalk/tokentalk/internal/domain"
	"go.uber.org/zap"
)

// NotificationSender is the dispatch capability the engine needs.
type NotificationSender interface {
	Send(ctx context.Context, alert domain.Alert, trigger domain.TriggerContext) []domain.NotificationRecord
}

type EngineStats struct {
	Running         bool       `json:"running"`
	Interval        string     `json:"interval"`
	CyclesCompleted uint64     `json:"cycles_completed"`
	CyclesSkipped   uint64     `json:"cycles_skipped"`
	AlertsChecked   uint64     `json:"alerts_checked"`
	AlertsTriggered uint64     `json:"alerts_triggered"`
	Errors          uint64     `json:"errors"`
	LastRun         *time.Time `json:"last_run,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	CachedSymbols   []string   `json:"cached_symbols,omitempty"`
}

// Engine drives the periodic evaluation loop. A single goroutine owns the
// ticker; a cycle that is still running when the next tick fires causes that
// tick to be dropped rather than queued, since evaluating with stale prices
// is worse than missing a cycle.
type Engine struct {
	feed       domain.PriceFeed
	alerts     domain.AlertRepository
	sender     NotificationSender
	history    domain.PriceHistoryRepository
	triggerLog domain.TriggerLogRepository
	interval   time.Duration
	logger     *zap.Logger
	metrics    *Metrics

	tickMu sync.Mutex

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}

	statsMu     sync.Mutex
	stats       EngineStats
	lastSymbols []string
}

func NewEngine(
	feed domain.PriceFeed,
	alerts domain.AlertRepository,
	sender NotificationSender,
	history domain.PriceHistoryRepository,
	triggerLog domain.TriggerLogRepository,
	interval time.Duration,
	metrics *Metrics,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		feed:       feed,
		alerts:     alerts,
		sender:     sender,
		history:    history,
		triggerLog: triggerLog,
		interval:   interval,
		logger:     logger,
		metrics:    metrics,
	}
}

func (e *Engine) Start(ctx context.Context) {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if e.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done

	e.statsMu.Lock()
	e.stats.Running = true
	e.stats.Interval = e.interval.String()
	e.statsMu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				e.RunOnce(runCtx)
			}
		}
	}()

	e.logger.Info("alert engine started", zap.Duration("interval", e.interval))
}

func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		e.logger.Warn("timeout waiting for alert engine to stop")
	}

	e.statsMu.Lock()
	e.stats.Running = false
	e.statsMu.Unlock()

	e.logger.Info("alert engine stopped")
}

// RunOnce executes a single evaluation cycle. If another cycle is already in
// flight the call is dropped.
func (e *Engine) RunOnce(ctx context.Context) {
	if !e.tickMu.TryLock() {
		e.metrics.CyclesSkipped.Inc()
		e.statsMu.Lock()
		e.stats.CyclesSkipped++
		e.statsMu.Unlock()
		e.logger.Debug("previous cycle still running, dropping tick")
		return
	}
	defer e.tickMu.Unlock()

	start := time.Now()
	checked, triggered, err := e.cycle(ctx)

	e.statsMu.Lock()
	e.stats.CyclesCompleted++
	e.stats.AlertsChecked += uint64(checked)
	e.stats.AlertsTriggered += uint64(triggered)
	e.stats.LastRun = &start
	if err != nil {
		e.stats.Errors++
		e.stats.LastError = err.Error()
	}
	e.statsMu.Unlock()
	e.metrics.Cycles.Inc()

	if err == nil {
		e.logger.Info("monitoring cycle complete",
			zap.Int("alerts_checked", checked),
			zap.Int("alerts_triggered", triggered),
			zap.Duration("duration", time.Since(start)))
	}
}

func (e *Engine) cycle(ctx context.Context) (checked, fired int, err error) {
	alerts, err := e.alerts.ListActive(ctx)
	if err != nil {
		e.metrics.CycleErrors.Inc()
		e.logger.Error("failed to load active alerts", zap.Error(err))
		return 0, 0, err
	}
	if len(alerts) == 0 {
		return 0, 0, nil
	}

	symbols := distinctSymbols(alerts)
	prices, err := e.feed.Fetch(ctx, symbols)
	if err != nil {
		if errors.Is(err, domain.ErrFeedUnavailable) {
			e.metrics.FeedFailures.Inc()
			e.logger.Warn("price feed unavailable, skipping cycle", zap.Error(err))
			return 0, 0, err
		}
		e.metrics.CycleErrors.Inc()
		e.logger.Error("price fetch failed", zap.Error(err))
		return 0, 0, err
	}

	e.recordHistory(ctx, prices)

	triggered := Evaluate(prices, alerts)
	for _, hit := range triggered {
		if e.fire(ctx, hit) {
			fired++
		}
	}

	e.metrics.AlertsChecked.Add(float64(len(alerts)))
	e.metrics.AlertsTriggered.Add(float64(fired))
	return len(alerts), fired, nil
}

// fire claims the trigger via the store's conditional transition and, only on
// success, dispatches notifications. Losing the race to another cycle or a
// concurrent user update is a silent no-op.
func (e *Engine) fire(ctx context.Context, hit TriggeredAlert) bool {
	updated, err := e.alerts.MarkTriggered(ctx, hit.Alert.ID, hit.Trigger.ObservedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotFound) {
			e.logger.Debug("trigger already claimed elsewhere", zap.String("alert_id", hit.Alert.ID))
			return false
		}
		e.metrics.CycleErrors.Inc()
		e.logger.Error("failed to mark alert triggered", zap.String("alert_id", hit.Alert.ID), zap.Error(err))
		return false
	}

	e.logger.Info("alert triggered",
		zap.String("alert_id", updated.ID),
		zap.String("symbol", hit.Trigger.Symbol),
		zap.String("price", hit.Trigger.Price.String()),
		zap.String("target", hit.Trigger.TargetPrice.String()))

	if e.triggerLog != nil {
		if err := e.triggerLog.Record(ctx, updated.ID, hit.Trigger); err != nil {
			e.logger.Warn("failed to record trigger audit row", zap.String("alert_id", updated.ID), zap.Error(err))
		}
	}

	e.sender.Send(ctx, *updated, hit.Trigger)
	return true
}

func (e *Engine) recordHistory(ctx context.Context, prices map[string]domain.PriceSample) {
	symbols := make([]string, 0, len(prices))
	samples := make([]domain.PriceSample, 0, len(prices))
	for symbol, sample := range prices {
		symbols = append(symbols, symbol)
		samples = append(samples, sample)
	}

	e.statsMu.Lock()
	e.lastSymbols = symbols
	e.statsMu.Unlock()

	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, samples); err != nil {
		e.logger.Warn("failed to record price history", zap.Error(err))
	}
}

func (e *Engine) Stats() EngineStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	stats := e.stats
	stats.CachedSymbols = append([]string(nil), e.lastSymbols...)
	return stats
}

func distinctSymbols(alerts []domain.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	symbols := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		if _, ok := seen[alert.Symbol]; ok {
			continue
		}
		seen[alert.Symbol] = struct{}{}
		symbols = append(symbols, alert.Symbol)
	}
	return symbols
}

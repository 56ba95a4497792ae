package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tokentalk/tokentalk/internal/domain"
)

type fakeAlertRepo struct {
	mu      sync.Mutex
	seq     int
	alerts  map[string]*domain.Alert
	listErr error

	// afterList, when set, runs once after a successful ListActive. Lets
	// tests interleave a competing writer between load and mark.
	afterList func()
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[string]*domain.Alert)}
}

func (r *fakeAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("alert-%d", r.seq)
	}
	if alert.Status == "" {
		alert.Status = domain.StatusActive
	}
	alert.CreatedAt = time.Now()
	stored := *alert
	r.alerts[alert.ID] = &stored
	return nil
}

func (r *fakeAlertRepo) GetByID(_ context.Context, alertID string) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *alert
	return &clone, nil
}

func (r *fakeAlertRepo) ListActive(_ context.Context) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var active []domain.Alert
	for _, alert := range r.alerts {
		if alert.Status == domain.StatusActive {
			active = append(active, *alert)
		}
	}
	if r.afterList != nil {
		hook := r.afterList
		r.afterList = nil
		r.mu.Unlock()
		hook()
		r.mu.Lock()
	}
	return active, nil
}

func (r *fakeAlertRepo) ListByUser(_ context.Context, userID string) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var alerts []domain.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID && alert.Status != domain.StatusDeleted {
			alerts = append(alerts, *alert)
		}
	}
	return alerts, nil
}

func (r *fakeAlertRepo) CountByUser(_ context.Context, userID string) (map[domain.AlertStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.AlertStatus]int64)
	for _, alert := range r.alerts {
		if alert.UserID == userID {
			counts[alert.Status]++
		}
	}
	return counts, nil
}

func (r *fakeAlertRepo) MarkTriggered(_ context.Context, alertID string, at time.Time) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if alert.Status != domain.StatusActive {
		return nil, domain.ErrInvalidTransition
	}
	alert.Status = domain.StatusTriggered
	stamp := at
	alert.TriggeredAt = &stamp
	clone := *alert
	return &clone, nil
}

func (r *fakeAlertRepo) UpdateStatus(_ context.Context, userID, alertID string, status domain.AlertStatus) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if !domain.CanTransition(alert.Status, status) {
		return nil, domain.ErrInvalidTransition
	}
	alert.Status = status
	if status == domain.StatusActive {
		alert.TriggeredAt = nil
	}
	clone := *alert
	return &clone, nil
}

func (r *fakeAlertRepo) Delete(_ context.Context, userID, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID || alert.Status == domain.StatusDeleted {
		return domain.ErrNotFound
	}
	alert.Status = domain.StatusDeleted
	return nil
}

type staticFeed struct {
	mu      sync.Mutex
	samples map[string]domain.PriceSample
	err     error
	calls   int
}

func (f *staticFeed) Fetch(_ context.Context, symbols []string) (map[string]domain.PriceSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]domain.PriceSample)
	for _, symbol := range symbols {
		if sample, ok := f.samples[symbol]; ok {
			result[symbol] = sample
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records []domain.NotificationRecord
}

func (r *fakeNotificationRepo) Create(_ context.Context, record *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = fmt.Sprintf("record-%d", len(r.records)+1)
	}
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeNotificationRepo) ListByAlert(_ context.Context, alertID string) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationRecord
	for _, record := range r.records {
		if record.AlertID == alertID {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type fakeChannel struct {
	name    string
	err     error
	mu      sync.Mutex
	calls   int
	blockCh chan struct{}
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Deliver(ctx context.Context, _ domain.Alert, _ domain.TriggerContext) error {
	c.mu.Lock()
	c.calls++
	block := c.blockCh
	c.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.err
}

func (c *fakeChannel) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type countingSender struct {
	mu      sync.Mutex
	sent    []domain.Alert
	blockCh chan struct{}
}

func (s *countingSender) Send(_ context.Context, alert domain.Alert, _ domain.TriggerContext) []domain.NotificationRecord {
	s.mu.Lock()
	block := s.blockCh
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	s.mu.Lock()
	s.sent = append(s.sent, alert)
	s.mu.Unlock()
	return nil
}

func (s *countingSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeTriggerLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *fakeTriggerLog) Record(_ context.Context, alertID string, _ domain.TriggerContext) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, alertID)
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	batches [][]domain.PriceSample
}

func (h *fakeHistory) Record(_ context.Context, samples []domain.PriceSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, samples)
	return nil
}

var errStorageDown = errors.New("storage down")

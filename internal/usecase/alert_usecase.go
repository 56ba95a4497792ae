package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrInvalidSymbol    = errors.New("unsupported symbol")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidThreshold = errors.New("target price must be positive")
	ErrInvalidChannels  = errors.New("at least one known channel required")
	ErrInvalidStatus    = errors.New("invalid status")
)

// ChannelRegistry reports which notification channels exist.
type ChannelRegistry interface {
	HasChannel(name string) bool
}

type CreateAlertInput struct {
	UserID      string
	Symbol      string
	Condition   domain.AlertCondition
	TargetPrice decimal.Decimal
	Channels    []string
	Message     string
}

type AlertUsecase struct {
	users    domain.UserRepository
	alerts   domain.AlertRepository
	records  domain.NotificationRepository
	channels ChannelRegistry
	symbols  map[string]struct{}
}

func NewAlertUsecase(
	users domain.UserRepository,
	alerts domain.AlertRepository,
	records domain.NotificationRepository,
	channels ChannelRegistry,
	supportedSymbols []string,
) *AlertUsecase {
	symbols := make(map[string]struct{}, len(supportedSymbols))
	for _, s := range supportedSymbols {
		symbols[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &AlertUsecase{
		users:    users,
		alerts:   alerts,
		records:  records,
		channels: channels,
		symbols:  symbols,
	}
}

func (u *AlertUsecase) HasChannel(name string) bool {
	return u.channels.HasChannel(name)
}

func (u *AlertUsecase) SupportsSymbol(symbol string) bool {
	_, ok := u.symbols[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

func (u *AlertUsecase) Create(ctx context.Context, input CreateAlertInput) (*domain.Alert, error) {
	if _, err := u.users.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if !u.SupportsSymbol(symbol) {
		return nil, ErrInvalidSymbol
	}
	if !domain.ValidCondition(input.Condition) {
		return nil, ErrInvalidCondition
	}
	if input.TargetPrice.Sign() <= 0 {
		return nil, ErrInvalidThreshold
	}
	if len(input.Channels) == 0 {
		return nil, ErrInvalidChannels
	}
	for _, name := range input.Channels {
		if !u.channels.HasChannel(name) {
			return nil, ErrInvalidChannels
		}
	}

	alert := &domain.Alert{
		UserID:      input.UserID,
		Symbol:      symbol,
		Condition:   input.Condition,
		TargetPrice: input.TargetPrice,
		Status:      domain.StatusActive,
		Channels:    input.Channels,
		Message:     input.Message,
	}
	if err := u.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) Get(ctx context.Context, alertID string) (*domain.Alert, error) {
	alert, err := u.alerts.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) ListActive(ctx context.Context) ([]domain.Alert, error) {
	return u.alerts.ListActive(ctx)
}

func (u *AlertUsecase) ListByUser(ctx context.Context, userID string) ([]domain.Alert, error) {
	return u.alerts.ListByUser(ctx, userID)
}

func (u *AlertUsecase) CountByUser(ctx context.Context, userID string) (map[domain.AlertStatus]int64, error) {
	return u.alerts.CountByUser(ctx, userID)
}

// UpdateStatus applies a user-driven transition: pause, resume, re-arm or
// none of the engine's business. Transition legality is enforced by the
// store's conditional update.
func (u *AlertUsecase) UpdateStatus(ctx context.Context, userID, alertID string, status domain.AlertStatus) (*domain.Alert, error) {
	if !domain.ValidStatus(status) || status == domain.StatusDeleted || status == domain.StatusTriggered {
		return nil, ErrInvalidStatus
	}
	alert, err := u.alerts.UpdateStatus(ctx, userID, alertID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) Delete(ctx context.Context, userID, alertID string) error {
	if err := u.alerts.Delete(ctx, userID, alertID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *AlertUsecase) Notifications(ctx context.Context, alertID string) ([]domain.NotificationRecord, error) {
	return u.records.ListByAlert(ctx, alertID)
}

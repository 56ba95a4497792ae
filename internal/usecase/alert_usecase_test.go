package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentalk/tokentalk/internal/domain"
)

type staticRegistry map[string]struct{}

func (r staticRegistry) HasChannel(name string) bool {
	_, ok := r[name]
	return ok
}

func newTestAlertUsecase(t *testing.T) (*AlertUsecase, *fakeAlertRepo) {
	t.Helper()
	users := newFakeUserRepo(&domain.User{ID: "u1", Email: "u1@example.com"})
	alerts := newFakeAlertRepo()
	registry := staticRegistry{"realtime": {}, "email": {}}
	uc := NewAlertUsecase(users, alerts, &fakeNotificationRepo{}, registry, []string{"BTC", "ETH", "SOL"})
	return uc, alerts
}

func validInput() CreateAlertInput {
	return CreateAlertInput{
		UserID:      "u1",
		Symbol:      "BTC",
		Condition:   domain.ConditionBelow,
		TargetPrice: decimal.RequireFromString("30000"),
		Channels:    []string{"realtime"},
	}
}

func TestCreateAlert(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)

	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, domain.StatusActive, alert.Status)
	assert.Nil(t, alert.TriggeredAt)
}

func TestCreateAlertNormalizesSymbol(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)

	input := validInput()
	input.Symbol = " btc "
	alert, err := uc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "BTC", alert.Symbol)
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateAlertInput)
		wantErr error
	}{
		{
			name:    "unknown user",
			mutate:  func(in *CreateAlertInput) { in.UserID = "ghost" },
			wantErr: ErrUserNotFound,
		},
		{
			name:    "unsupported symbol",
			mutate:  func(in *CreateAlertInput) { in.Symbol = "DOGE" },
			wantErr: ErrInvalidSymbol,
		},
		{
			name:    "bad condition",
			mutate:  func(in *CreateAlertInput) { in.Condition = "crosses" },
			wantErr: ErrInvalidCondition,
		},
		{
			name:    "zero threshold",
			mutate:  func(in *CreateAlertInput) { in.TargetPrice = decimal.Zero },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "negative threshold",
			mutate:  func(in *CreateAlertInput) { in.TargetPrice = decimal.RequireFromString("-1") },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "no channels",
			mutate:  func(in *CreateAlertInput) { in.Channels = nil },
			wantErr: ErrInvalidChannels,
		},
		{
			name:    "unknown channel",
			mutate:  func(in *CreateAlertInput) { in.Channels = []string{"realtime", "pager"} },
			wantErr: ErrInvalidChannels,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newTestAlertUsecase(t)
			input := validInput()
			tt.mutate(&input)
			_, err := uc.Create(context.Background(), input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateAllowsDuplicateAlerts(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)

	first, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	second, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPauseAndResume(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)
	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)

	paused, err := uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, paused.Status)

	resumed, err := uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, resumed.Status)
}

func TestReactivateTriggeredClearsTimestamp(t *testing.T) {
	uc, alerts := newTestAlertUsecase(t)
	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = alerts.MarkTriggered(context.Background(), alert.ID, time.Now())
	require.NoError(t, err)

	rearmed, err := uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, rearmed.Status)
	assert.Nil(t, rearmed.TriggeredAt)
}

func TestUpdateStatusRejectsEngineOwnedTargets(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)
	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusTriggered)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusDeleted)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = uc.UpdateStatus(context.Background(), "u1", alert.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusScopedToOwner(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)
	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = uc.UpdateStatus(context.Background(), "u2", alert.ID, domain.StatusPaused)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestDeleteIsTerminal(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)
	alert, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), "u1", alert.ID))

	// Second delete and any later transition see a gone alert.
	assert.ErrorIs(t, uc.Delete(context.Background(), "u1", alert.ID), ErrAlertNotFound)
	_, err = uc.UpdateStatus(context.Background(), "u1", alert.ID, domain.StatusActive)
	assert.Error(t, err)
}

func TestDeletedAlertsExcludedFromListing(t *testing.T) {
	uc, _ := newTestAlertUsecase(t)
	keep, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	gone, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, uc.Delete(context.Background(), "u1", gone.ID))

	listed, err := uc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, keep.ID, listed[0].ID)

	active, err := uc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)
}

func TestCountByUserGroupsByStatus(t *testing.T) {
	uc, alerts := newTestAlertUsecase(t)
	a1, err := uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), validInput())
	require.NoError(t, err)
	_, err = alerts.MarkTriggered(context.Background(), a1.ID, time.Now())
	require.NoError(t, err)

	counts, err := uc.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.StatusActive])
	assert.Equal(t, int64(1), counts[domain.StatusTriggered])
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tokentalk/tokentalk/internal/domain"
)

type fakeParser struct {
	intent *domain.ParsedIntent
	err    error
}

func (p *fakeParser) Parse(_ context.Context, _ string) (*domain.ParsedIntent, error) {
	return p.intent, p.err
}

type fakeSubRepo struct {
	mu   sync.Mutex
	subs []domain.PushSubscription
}

func (r *fakeSubRepo) Save(_ context.Context, sub *domain.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, *sub)
	return nil
}

func (r *fakeSubRepo) ListByUser(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PushSubscription
	for _, sub := range r.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

type chatFixture struct {
	chat   *ChatUsecase
	alerts *fakeAlertRepo
	users  *fakeUserRepo
}

func newChatFixture(t *testing.T, parser domain.IntentParser, channels staticRegistry) chatFixture {
	t.Helper()
	users := newFakeUserRepo(&domain.User{ID: "u1", Email: "u1@example.com", EmailNotifications: true})
	alerts := newFakeAlertRepo()
	alertUC := NewAlertUsecase(users, alerts, &fakeNotificationRepo{}, channels, []string{"BTC", "ETH"})
	userUC := NewUserUsecase(users, &fakeSubRepo{})
	return chatFixture{
		chat:   NewChatUsecase(parser, alertUC, userUC, zap.NewNop()),
		alerts: alerts,
		users:  users,
	}
}

func btcBelowIntent() *domain.ParsedIntent {
	return &domain.ParsedIntent{
		Symbol:      "BTC",
		Condition:   domain.ConditionBelow,
		TargetPrice: "30000",
		Confidence:  0.9,
	}
}

func TestChatCreatesAlertFromIntent(t *testing.T) {
	fx := newChatFixture(t, &fakeParser{intent: btcBelowIntent()}, staticRegistry{"realtime": {}, "email": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "tell me when btc drops below $30000")
	require.NoError(t, err)
	assert.True(t, reply.AlertCreated)
	assert.Contains(t, reply.Response, "BTC")
	assert.Contains(t, reply.Response, "drops to")

	alert, err := fx.alerts.GetByID(context.Background(), reply.AlertID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, alert.Status)
	assert.Equal(t, []string{"realtime", "email"}, alert.Channels)
	assert.Equal(t, "tell me when btc drops below $30000", alert.Message)
}

func TestChatSkipsEmailChannelWhenUnavailable(t *testing.T) {
	// Same user preferences, but email delivery is not configured.
	fx := newChatFixture(t, &fakeParser{intent: btcBelowIntent()}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "watch btc under 30k")
	require.NoError(t, err)
	require.True(t, reply.AlertCreated)

	alert, err := fx.alerts.GetByID(context.Background(), reply.AlertID)
	require.NoError(t, err)
	assert.Equal(t, []string{"realtime"}, alert.Channels)
}

func TestChatSkipsEmailWhenUserOptedOut(t *testing.T) {
	fx := newChatFixture(t, &fakeParser{intent: btcBelowIntent()}, staticRegistry{"realtime": {}, "email": {}})
	fx.users.users["u1"].EmailNotifications = false

	reply, err := fx.chat.Handle(context.Background(), "u1", "watch btc under 30k")
	require.NoError(t, err)
	require.True(t, reply.AlertCreated)

	alert, err := fx.alerts.GetByID(context.Background(), reply.AlertID)
	require.NoError(t, err)
	assert.Equal(t, []string{"realtime"}, alert.Channels)
}

func TestChatCreatesUnknownUserOnFirstMessage(t *testing.T) {
	fx := newChatFixture(t, &fakeParser{intent: btcBelowIntent()}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "newcomer", "btc below 30000 please")
	require.NoError(t, err)
	assert.True(t, reply.AlertCreated)

	user, err := fx.users.GetByID(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.True(t, user.EmailNotifications)
}

func TestChatUnparseableMessageGetsHelpText(t *testing.T) {
	fx := newChatFixture(t, &fakeParser{err: errors.New("no price condition found")}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "what's the weather")
	require.NoError(t, err)
	assert.False(t, reply.AlertCreated)
	assert.Contains(t, reply.Response, "couldn't understand")
}

func TestChatUnsupportedSymbolGetsFriendlyReply(t *testing.T) {
	intent := btcBelowIntent()
	intent.Symbol = "DOGE"
	fx := newChatFixture(t, &fakeParser{intent: intent}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "doge to the moon")
	require.NoError(t, err)
	assert.False(t, reply.AlertCreated)
	assert.Contains(t, reply.Response, "DOGE")
}

func TestChatRejectsNonPositivePrice(t *testing.T) {
	intent := btcBelowIntent()
	intent.TargetPrice = "0"
	fx := newChatFixture(t, &fakeParser{intent: intent}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "btc at zero")
	require.NoError(t, err)
	assert.False(t, reply.AlertCreated)
	assert.Contains(t, reply.Response, "price")
}

func TestChatAboveConditionWording(t *testing.T) {
	intent := btcBelowIntent()
	intent.Condition = domain.ConditionAbove
	intent.TargetPrice = "100000"
	fx := newChatFixture(t, &fakeParser{intent: intent}, staticRegistry{"realtime": {}})

	reply, err := fx.chat.Handle(context.Background(), "u1", "btc above 100k")
	require.NoError(t, err)
	assert.True(t, reply.AlertCreated)
	assert.Contains(t, reply.Response, "rises to")
}

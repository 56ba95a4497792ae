package usecase

import (
	"context"
	"errors"

	"github.com/tokentalk/tokentalk/internal/domain"
)

type UserUsecase struct {
	users domain.UserRepository
	subs  domain.PushSubscriptionRepository
}

func NewUserUsecase(users domain.UserRepository, subs domain.PushSubscriptionRepository) *UserUsecase {
	return &UserUsecase{users: users, subs: subs}
}

func (u *UserUsecase) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (u *UserUsecase) GetOrCreate(ctx context.Context, userID, email string) (*domain.User, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	newUser := &domain.User{
		ID:                 userID,
		Email:              email,
		EmailNotifications: true,
	}
	if err := u.users.Create(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (u *UserUsecase) UpdatePreferences(ctx context.Context, userID, email string, emailNotifications bool, telegramChatID int64) (*domain.User, error) {
	user, err := u.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.EmailNotifications = emailNotifications
	user.TelegramChatID = telegramChatID
	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *UserUsecase) SavePushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) error {
	if _, err := u.Get(ctx, userID); err != nil {
		return err
	}
	return u.subs.Save(ctx, &domain.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
}

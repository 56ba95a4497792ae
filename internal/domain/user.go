package domain

import "time"

type User struct {
	ID                 string
	Email              string
	EmailNotifications bool
	TelegramChatID     int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

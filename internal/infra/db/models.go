package db

import "time"

type userModel struct {
	ID                 string `gorm:"primaryKey;type:uuid"`
	Email              string `gorm:"index"`
	EmailNotifications bool   `gorm:"default:true"`
	TelegramChatID     int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type alertModel struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	UserID      string `gorm:"index:idx_alerts_user_status,priority:1;not null"`
	Symbol      string `gorm:"not null"`
	Condition   string `gorm:"not null"`
	TargetPrice string `gorm:"not null"`
	Status      string `gorm:"index:idx_alerts_user_status,priority:2;index;not null"`
	Channels    string `gorm:"not null"`
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TriggeredAt *time.Time
}

type notificationModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	AlertID   string `gorm:"index;not null"`
	UserID    string `gorm:"index;not null"`
	Channel   string `gorm:"not null"`
	Status    string `gorm:"not null"`
	Error     string
	SentAt    *time.Time
	CreatedAt time.Time
}

type pushSubscriptionModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	UserID    string `gorm:"index;not null"`
	Endpoint  string `gorm:"uniqueIndex;not null"`
	P256dh    string `gorm:"not null"`
	Auth      string `gorm:"not null"`
	CreatedAt time.Time
}

type priceHistoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"index:idx_price_symbol_ts,priority:1;not null"`
	Price     string `gorm:"not null"`
	Provider  string
	SampledAt time.Time `gorm:"index:idx_price_symbol_ts,priority:2"`
	CreatedAt time.Time
}

type alertTriggerModel struct {
	ID          uint   `gorm:"primaryKey"`
	AlertID     string `gorm:"index;not null"`
	Symbol      string `gorm:"not null"`
	Price       string `gorm:"not null"`
	TargetPrice string `gorm:"not null"`
	Condition   string `gorm:"not null"`
	TriggeredAt time.Time
	CreatedAt   time.Time
}

func (userModel) TableName() string             { return "users" }
func (alertModel) TableName() string            { return "alerts" }
func (notificationModel) TableName() string     { return "notifications" }
func (pushSubscriptionModel) TableName() string { return "push_subscriptions" }
func (priceHistoryModel) TableName() string     { return "price_history" }
func (alertTriggerModel) TableName() string     { return "alert_triggers" }

package models

import "time"

// ShortLink maps a generated code to the original URL. Rows are immutable.
type ShortLink struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ShortCode   string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"short_code"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ShortLink) TableName() string { return "urls" }

// UsageEvent is one entry of the append-only usage ledger.
type UsageEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_usage_events_user_created,priority:1" json:"user_id"`
	ShortLinkID uint      `gorm:"not null;index" json:"short_link_id"`
	CreatedAt   time.Time `gorm:"not null;index:idx_usage_events_user_created,priority:2" json:"created_at"`
}

func (UsageEvent) TableName() string { return "usage_events" }

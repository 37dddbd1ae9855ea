package models

import "time"

// MembershipPlan is read-only catalog data describing URL quotas.
// URLLimit is the monthly allowance, DailyURLLimit the per-day allowance.
type MembershipPlan struct {
	ID            uint      `gorm:"primaryKey;column:plan_id" json:"plan_id"`
	Name          string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	URLLimit      int64     `gorm:"not null;default:0" json:"url_limit"`
	DailyURLLimit int64     `gorm:"not null;default:0" json:"daily_url_limit"`
	Price         int64     `gorm:"not null;default:0" json:"price"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"-"`
}

func (MembershipPlan) TableName() string { return "membership_plans" }

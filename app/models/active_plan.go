package models

import "time"

// ActivePlan is the single plan slot of a user. The unique index on user_id
// keeps it a register rather than a history: upgrades overwrite the row.
type ActivePlan struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID         uint      `gorm:"not null;index" json:"plan_id"`
	ActivationDate time.Time `gorm:"not null" json:"activation_date"`
	DaysActive     int       `gorm:"not null" json:"days_active"`
	ExpirationDate time.Time `gorm:"not null;index" json:"expiration_date"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ActivePlan) TableName() string { return "active_plans" }

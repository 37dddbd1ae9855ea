package models

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment tracks a gateway order from creation to verification.
// Amount is stored in major currency units; the gateway sees minor units.
// PlanID and DaysActive remember what the order buys so verification
// never trusts values sent back by the client. ActivatedAt is set once the
// plan window was granted for this order; a webhook may mark an order
// successful before that happens.
type Payment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OrderID     string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"order_id"`
	PaymentID   string     `gorm:"type:varchar(191);not null;default:''" json:"payment_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	Gateway     string     `gorm:"type:varchar(20);not null" json:"gateway"`
	Status      string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PlanID      *uint      `gorm:"default:null" json:"plan_id,omitempty"`
	DaysActive  int        `gorm:"not null;default:0" json:"days_active"`
	ActivatedAt *time.Time `gorm:"default:null" json:"activated_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsSuccess() bool { return p.Status == PaymentStatusSuccess }

// IsActivated reports whether the order already granted its plan window.
func (p *Payment) IsActivated() bool { return p.ActivatedAt != nil }

// IsValidPaymentStatus reports whether s is one of the persisted statuses.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return true
	}
	return false
}

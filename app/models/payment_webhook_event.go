package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentWebhookEvent stores gateway webhook payloads with deduplication
// metadata for idempotent processing.
type PaymentWebhookEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Gateway         string         `gorm:"type:varchar(20);not null;index:ux_payment_webhook_events_gateway_event,unique,priority:1" json:"gateway"`
	ProviderEventID string         `gorm:"type:varchar(191);not null;default:'';index:ux_payment_webhook_events_gateway_event,unique,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"type:varchar(100);not null;default:'';index" json:"event_type"`
	OrderID         string         `gorm:"type:varchar(191);not null;default:'';index" json:"order_id"`
	Payload         datatypes.JSON `json:"payload"`
	SignatureValid  bool           `gorm:"default:false" json:"signature_valid"`
	ProcessedAt     *time.Time     `gorm:"default:null" json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentWebhookEvent) TableName() string { return "payment_webhook_events" }

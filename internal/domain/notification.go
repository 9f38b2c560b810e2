package domain

import "time"

type NotificationKind string

const (
	NotifyWarrantyIssued NotificationKind = "warranty-issued"
	NotifyPaymentLink    NotificationKind = "payment-link"
	NotifyPaymentReceipt NotificationKind = "payment-receipt"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is the audit row written for every dispatch attempt.
type Notification struct {
	ID               int64              `gorm:"primaryKey" json:"id"`
	Recipient        string             `gorm:"type:varchar(255);not null" json:"recipient"`
	Kind             NotificationKind   `gorm:"type:varchar(40);index;not null" json:"kind"`
	BookingReference string             `gorm:"type:varchar(40);index" json:"booking_reference,omitempty"`
	Data             map[string]any     `gorm:"serializer:json" json:"data,omitempty"`
	Status           NotificationStatus `gorm:"type:varchar(20);not null" json:"status"`
	Error            string             `gorm:"type:text" json:"error,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

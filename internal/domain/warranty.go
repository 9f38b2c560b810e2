package domain

import "time"

type WarrantyStatus string

const (
	WarrantyActive  WarrantyStatus = "active"
	WarrantyClaimed WarrantyStatus = "claimed"
	WarrantyExpired WarrantyStatus = "expired"
	WarrantyVoid    WarrantyStatus = "void"
)

type Warranty struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	BookingID    int64          `gorm:"uniqueIndex;not null" json:"booking_id"`
	Code         string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"code"`
	IssueDate    time.Time      `gorm:"not null" json:"issue_date"`
	ExpiryDate   time.Time      `gorm:"not null;index" json:"expiry_date"`
	DurationDays int            `gorm:"not null" json:"duration_days"`
	Status       WarrantyStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Warranty) TableName() string { return "warranties" }

type RepairCompletion struct {
	ID                    int64     `gorm:"primaryKey" json:"id"`
	BookingID             int64     `gorm:"uniqueIndex;not null" json:"booking_id"`
	TechnicianID          int64     `gorm:"index;not null" json:"technician_id"`
	RepairNotes           string    `gorm:"type:text" json:"repair_notes"`
	PartsUsed             []string  `gorm:"serializer:json" json:"parts_used"`
	RepairDurationMinutes int       `json:"repair_duration_minutes"`
	FinalPrice            float64   `json:"final_price"`
	CompletedAt           time.Time `json:"completed_at"`
	CreatedAt             time.Time `json:"created_at"`
}

func (RepairCompletion) TableName() string { return "repair_completions" }

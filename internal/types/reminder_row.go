package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder is a persisted reminder instance. Rows exist only after the user
// explicitly confirms a scheduled plan; analysis alone never writes here.
type Reminder struct {
	ID                uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	AnalysisID        uuid.UUID             `gorm:"type:uuid;not null;index" json:"analysis_id"`
	Analysis          *PrescriptionAnalysis `gorm:"constraint:OnDelete:CASCADE;foreignKey:AnalysisID;references:ID" json:"-"`
	Kind              string                `gorm:"column:kind;not null" json:"kind"`
	RefName           string                `gorm:"column:ref_name;not null" json:"ref_name"`
	RemindDate        string                `gorm:"column:remind_date;not null" json:"remind_date"` // YYYY-MM-DD
	RemindTime        string                `gorm:"column:remind_time;not null" json:"remind_time"` // HH:mm
	IsDefaultSchedule bool                  `gorm:"column:is_default_schedule" json:"is_default_schedule"`
	Enabled           bool                  `gorm:"column:enabled;not null;default:true" json:"enabled"`
	CreatedAt         time.Time             `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time             `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt        `gorm:"index" json:"deleted_at,omitempty"`
}

func (Reminder) TableName() string { return "reminder" }

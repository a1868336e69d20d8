package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PrescriptionAnalysis is one analysis run over one uploaded document. The
// bundle and full data are stored as JSON; a re-analysis of the same document
// creates a fresh row, it never patches this one.
type PrescriptionAnalysis struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	OriginalName string         `gorm:"column:original_name" json:"original_name"`
	RawText      string         `gorm:"column:raw_text;type:text" json:"-"`
	Status       string         `gorm:"column:status;not null;default:'analyzed'" json:"status"` // analyzed|rejected|confirmed
	IsValid      bool           `gorm:"column:is_valid" json:"is_valid"`
	Confidence   int            `gorm:"column:confidence" json:"confidence"`
	Bundle       datatypes.JSON `gorm:"column:bundle;type:jsonb" json:"bundle"`
	FullData     datatypes.JSON `gorm:"column:full_data;type:jsonb" json:"-"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PrescriptionAnalysis) TableName() string { return "prescription_analysis" }

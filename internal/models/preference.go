package models

import "time"

// Preference is a persisted device-level setting.
type Preference struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:64;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Preference) TableName() string {
	return "preferences"
}

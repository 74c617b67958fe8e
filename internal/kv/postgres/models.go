// Package postgres provides a GORM/PostgreSQL-backed kv.Substrate for devconsole.
package postgres

import (
	"time"

	"gorm.io/gorm"
)

// Record is one persisted key-value pair.
type Record struct {
	Key            string `gorm:"primaryKey;type:text"`
	Value          string `gorm:"type:text;not null"`
	UpdatedAt      string `gorm:"not null"`
	UpdatedAtEpoch int64  `gorm:"index:idx_kv_records_updated,sort:desc;not null"`
}

func (Record) TableName() string { return "kv_records" }

// BeforeSave stamps the update time on every write.
func (r *Record) BeforeSave(tx *gorm.DB) error {
	now := time.Now()
	r.UpdatedAt = now.Format(time.RFC3339)
	r.UpdatedAtEpoch = now.UnixMilli()
	return nil
}

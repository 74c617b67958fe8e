// Package postgres provides a GORM/PostgreSQL-backed kv.Substrate for devconsole.
package postgres

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: key-value records
		{
			ID: "001_kv_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Record{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("kv_records")
			},
		},
	})
	return m.Migrate()
}

package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: Every hospital holds exactly one inventory row per blood
	// type, created at zero.
	`INSERT OR IGNORE INTO inventory (hospital_id, blood_type, units_available)
	 SELECT h.id, t.blood_type, 0
	 FROM hospitals h
	 CROSS JOIN (SELECT 'A+' AS blood_type UNION ALL SELECT 'A-' UNION ALL SELECT 'B+' UNION ALL SELECT 'B-'
	             UNION ALL SELECT 'AB+' UNION ALL SELECT 'AB-' UNION ALL SELECT 'O+' UNION ALL SELECT 'O-') t`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

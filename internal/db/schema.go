package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS hospitals (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL UNIQUE,
    address        TEXT NOT NULL DEFAULT '',
    contact_person TEXT NOT NULL DEFAULT '',
    contact_number TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'manager', 'staff')),
    hospital_id   INTEGER REFERENCES hospitals(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS inventory (
    hospital_id     INTEGER NOT NULL REFERENCES hospitals(id),
    blood_type      TEXT NOT NULL CHECK (blood_type IN ('A+', 'A-', 'B+', 'B-', 'AB+', 'AB-', 'O+', 'O-')),
    units_available INTEGER NOT NULL DEFAULT 0
                    CHECK (typeof(units_available) = 'integer' AND units_available >= 0),
    last_updated    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (hospital_id, blood_type)
);

CREATE TABLE IF NOT EXISTS donations (
    id          INTEGER PRIMARY KEY,
    donor_name  TEXT NOT NULL,
    blood_type  TEXT NOT NULL,
    units       INTEGER NOT NULL CHECK (units > 0),
    hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
    donated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blood_requests (
    id                     INTEGER PRIMARY KEY,
    requesting_hospital_id INTEGER NOT NULL REFERENCES hospitals(id),
    source_hospital_id     INTEGER REFERENCES hospitals(id),
    blood_type             TEXT NOT NULL,
    units_requested        INTEGER NOT NULL CHECK (units_requested > 0),
    priority               TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('Low', 'Medium', 'High', 'Critical')),
    patient_name           TEXT NOT NULL DEFAULT '',
    patient_id             TEXT NOT NULL DEFAULT '',
    requesting_doctor      TEXT NOT NULL DEFAULT '',
    purpose                TEXT NOT NULL DEFAULT '',
    status                 TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
    notes                  TEXT NOT NULL DEFAULT '',
    created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_blood_requests_requesting
    ON blood_requests(requesting_hospital_id);

CREATE TABLE IF NOT EXISTS transactions (
    id                 INTEGER PRIMARY KEY,
    transaction_type   TEXT NOT NULL CHECK (transaction_type IN ('donation', 'request', 'transfer')),
    blood_type         TEXT NOT NULL,
    units              INTEGER NOT NULL,
    hospital_id        INTEGER NOT NULL REFERENCES hospitals(id),
    target_hospital_id INTEGER REFERENCES hospitals(id),
    request_id         INTEGER REFERENCES blood_requests(id),
    status             TEXT NOT NULL DEFAULT 'completed',
    priority_level     TEXT NOT NULL DEFAULT '',
    notes              TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_hospital
    ON transactions(hospital_id, created_at);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

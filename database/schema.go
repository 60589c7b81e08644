package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Schema lists the statements creating the service tables.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
    seq BIGINT AUTO_INCREMENT PRIMARY KEY,
    id CHAR(36) NOT NULL,
    type TEXT NOT NULL,
    university VARCHAR(255) NOT NULL DEFAULT 'not_specified',
    description TEXT NOT NULL,
    evidence_url VARCHAR(512) NULL,
    evidence_urls JSON NULL,
    status VARCHAR(64) NOT NULL DEFAULT 'new',
    client_id VARCHAR(255) NOT NULL DEFAULT 'anonymous',
    platform TEXT NOT NULL,
    platform_profile TEXT NOT NULL,
    suspect_name TEXT NOT NULL,
    suspect_username TEXT NOT NULL,
    suspect_contact TEXT NOT NULL,
    incident_date TEXT NOT NULL,
    incident_location TEXT NOT NULL,
    witnesses TEXT NOT NULL,
    victim_contact TEXT NOT NULL,
    admin_notes TEXT NOT NULL,
    created_at DATETIME(6) NOT NULL,
    UNIQUE INDEX idx_reports_id (id),
    INDEX idx_reports_created_at (created_at),
    INDEX idx_reports_status (status),
    INDEX idx_reports_university (university)
)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
    id CHAR(36) PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    university VARCHAR(255) NOT NULL,
    role ENUM('admin', 'viewer') NOT NULL DEFAULT 'admin',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE INDEX idx_admin_users_email (email)
)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (
    version INT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
}

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrations list all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "add_reports_status_created_index",
		Up:      `CREATE INDEX idx_reports_status_created ON reports (status, created_at)`,
	},
	{
		Version: 2,
		Name:    "widen_report_context_columns",
		Up: `ALTER TABLE reports
    MODIFY type TEXT NOT NULL,
    MODIFY platform TEXT NOT NULL,
    MODIFY platform_profile TEXT NOT NULL,
    MODIFY suspect_name TEXT NOT NULL,
    MODIFY suspect_username TEXT NOT NULL,
    MODIFY suspect_contact TEXT NOT NULL,
    MODIFY incident_date TEXT NOT NULL,
    MODIFY incident_location TEXT NOT NULL,
    MODIFY victim_contact TEXT NOT NULL`,
	},
}

// InitializeSchema creates the tables and runs pending migrations.
func InitializeSchema(db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}

// RunMigrations applies all pending database migrations
func RunMigrations(db *sql.DB) error {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			continue
		}
		log.Infof("Applying migration %d: %s", migration.Version, migration.Name)

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		log.Infof("Migration %d applied successfully", migration.Version)
	}

	return nil
}

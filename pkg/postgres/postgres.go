package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gatherhub/gatherhub/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS communities (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			deactivated_at TIMESTAMP,
			deactivated_by INTEGER,
			deleted_at TIMESTAMP,
			deleted_by INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS memberships (
			id SERIAL PRIMARY KEY,
			community_id INTEGER NOT NULL REFERENCES communities(id),
			user_id INTEGER NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'member',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(community_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id SERIAL PRIMARY KEY,
			community_id INTEGER NOT NULL REFERENCES communities(id),
			title VARCHAR(255) NOT NULL,
			description TEXT,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			capacity INTEGER,
			tags TEXT[] NOT NULL DEFAULT '{}',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			cancelled_at TIMESTAMP,
			deleted_at TIMESTAMP,
			embedding DOUBLE PRECISION[],
			reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
			created_by INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS rsvps (
			id SERIAL PRIMARY KEY,
			event_id INTEGER NOT NULL REFERENCES events(id),
			user_id INTEGER NOT NULL,
			status VARCHAR(20) NOT NULL,
			guests INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(event_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			user_id INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			interests TEXT[] NOT NULL DEFAULT '{}',
			custom_interests TEXT[] NOT NULL DEFAULT '{}',
			experience_level VARCHAR(50) NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			telegram_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id SERIAL PRIMARY KEY,
			community_id INTEGER NOT NULL REFERENCES communities(id),
			actor_id INTEGER NOT NULL,
			kind VARCHAR(50) NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_community_id ON events(community_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_rsvps_event_id ON rsvps(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rsvps_user_id ON rsvps(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rsvps_event_status ON rsvps(event_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_community_id ON activities(community_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

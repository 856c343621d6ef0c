package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Up: `
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

			CREATE TABLE IF NOT EXISTS admins (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				username VARCHAR(255) UNIQUE NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_admins_username ON admins(username);
		`,
		Down: `
			DROP TABLE IF EXISTS admins;
		`,
	},
	{
		Version: 2,
		Up: `
			CREATE TABLE IF NOT EXISTS halls (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				topic TEXT NOT NULL,
				created_by UUID REFERENCES admins(id) ON DELETE SET NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'active',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_halls_status_expires ON halls(status, expires_at);
			CREATE INDEX IF NOT EXISTS idx_halls_created_at ON halls(created_at DESC);
		`,
		Down: `
			DROP TABLE IF EXISTS halls;
		`,
	},
	{
		Version: 3,
		Up: `
			CREATE TABLE IF NOT EXISTS hall_messages (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				hall_id UUID NOT NULL REFERENCES halls(id) ON DELETE CASCADE,
				user_number VARCHAR(64) NOT NULL,
				content TEXT NOT NULL,
				seq BIGSERIAL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_hall_messages_hall ON hall_messages(hall_id, created_at, seq);
		`,
		Down: `
			DROP TABLE IF EXISTS hall_messages;
		`,
	},
	{
		Version: 4,
		Up: `
			CREATE TABLE IF NOT EXISTS posts (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				content TEXT NOT NULL,
				likes INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
		`,
		Down: `
			DROP TABLE IF EXISTS posts;
		`,
	},
	{
		Version: 5,
		Up: `
			CREATE TABLE IF NOT EXISTS post_comments (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_post_comments_post ON post_comments(post_id, created_at);
		`,
		Down: `
			DROP TABLE IF EXISTS post_comments;
		`,
	},
	{
		Version: 6,
		Up: `
			CREATE TABLE IF NOT EXISTS banned_words (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				word VARCHAR(255) UNIQUE NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			INSERT INTO banned_words (word) VALUES ('gandu'), ('vade'), ('sede')
			ON CONFLICT (word) DO NOTHING;
		`,
		Down: `
			DROP TABLE IF EXISTS banned_words;
		`,
	},
	{
		Version: 7,
		Up: `
			CREATE TABLE IF NOT EXISTS site_images (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				kind VARCHAR(20) NOT NULL,
				image_url TEXT NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_site_images_kind ON site_images(kind, updated_at DESC);
		`,
		Down: `
			DROP TABLE IF EXISTS site_images;
		`,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	// Ensure migrations table exists
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}

	// Run pending migrations in ascending order by version
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, migration := range sorted {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d...\n", migration.Version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("Migration %d completed\n", migration.Version)
	}

	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/dietplan/internal/repository"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB is a single-file database used for local development and tests
type DB struct {
	conn *sql.DB
}

// Open opens the database at path, creating parent directories, and applies the schema
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer keeps conditional updates serialized
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := ApplyMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("sqlite database ready")
	return &DB{conn: conn}, nil
}

// Close closes the database
func (db *DB) Close() {
	if err := db.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sqlite database")
	}
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Store returns the SQLite Persistence Gateway
func (db *DB) Store() *repository.Store {
	return repository.NewStore(
		&ProfileRepository{db: db.conn},
		&DietPlanRepository{db: db.conn},
		&AccessRepository{db: db.conn},
		&GenerationLogRepository{db: db.conn},
		db.Ping,
		db.Close,
	)
}

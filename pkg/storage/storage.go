// Package storage provides the durable contributor-identifier uniqueness
// store: a single "contributors" table with a uniqueness constraint on
// identifier, backed by Postgres via lib/pq, with embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client is a pooled Postgres connection implementing ContributorStore.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens a pooled connection to databaseURL and verifies it with a
// bounded ping, matching the teacher's connection-pool client shape.
func NewClient(databaseURL string, maxOpenConns, maxIdleConns int, opts ...ClientOption) (*Client, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("storage: database URL cannot be empty")
	}

	c := &Client{logger: log.New(log.Writer(), "[Storage] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: failed to ping database: %w", err)
	}

	c.db = db
	c.logger.Printf("connected to database (max_open=%d, max_idle=%d)", maxOpenConns, maxIdleConns)
	return c, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// HasContributed reports whether identifier already has a completed
// contribution on record.
func (c *Client) HasContributed(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contributors WHERE identifier = $1)`, identifier,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: failed to check contributor %q: %w", identifier, err)
	}
	return exists, nil
}

// MarkContributed durably records that identifier has completed a
// contribution, returning ErrAlreadyContributed if the uniqueness
// constraint rejects a duplicate insert (a race with a concurrent check).
func (c *Client) MarkContributed(ctx context.Context, identifier string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO contributors (identifier) VALUES ($1)`, identifier,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrAlreadyContributed
		}
		return fmt.Errorf("storage: failed to record contributor %q: %w", identifier, err)
	}
	return nil
}

// migration is one embedded schema file, applied in filename order.
type migration struct {
	Version  string
	Filename string
	SQL      string
}

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, in filename order.
func (c *Client) MigrateUp(ctx context.Context) error {
	c.logger.Println("running database migrations...")

	if _, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("storage: failed to create schema_migrations: %w", err)
	}

	migrations, err := c.loadMigrations()
	if err != nil {
		return fmt.Errorf("storage: failed to load migrations: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := c.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("storage: failed to read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("storage: failed to scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		c.logger.Printf("applying migration %s", m.Filename)
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("storage: failed to start migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: failed to apply %s: %w", m.Filename, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: failed to record %s: %w", m.Filename, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("storage: failed to commit %s: %w", m.Filename, err)
		}
	}

	c.logger.Println("migrations complete")
	return nil
}

func (c *Client) loadMigrations() ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		out = append(out, migration{
			Version:  strings.TrimSuffix(d.Name(), ".sql"),
			Filename: d.Name(),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Package refdb resolves the human-readable labels of an import row (project,
// dictionary, company and area names) to the identifiers the road record
// service expects. Reference data lives in SQLite.
package refdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"roadnet.roadmap.org/internal/appconf"
	"roadnet.roadmap.org/internal/logging"
)

//go:embed schema.sql
var ddl string

// Config holds configuration options for the Client
type Config struct {
	DBPath string // Path to SQLite database file
	Env    appconf.Environment
	Logger *slog.Logger
}

func NewConfig(dbPath string, env appconf.Environment, logger *slog.Logger) Config {
	return Config{DBPath: dbPath, Env: env, Logger: logger}
}

// Client answers reference lookups.
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
}

func NewClient(config Config) (*Client, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, errors.New("test database must use in-memory storage, got " + config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if config.DBPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	logger := logging.OrDefault(config.Logger).With(slog.String("component", "refdb"))
	if err := performDatabaseMigration(logging.WithLogger(context.Background(), logger), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return &Client{
		config: config,
		DB:     db,
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logging.FromContext(ctx), "schema_migration")

	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// TableCounts returns the number of rows in each reference table.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"system_project", "system_dict_data", "system_dept", "area"} {
		var n int
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

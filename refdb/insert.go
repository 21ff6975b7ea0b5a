package refdb

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"roadnet.roadmap.org/internal/logging"
)

// DictEntry is one row of a code dictionary.
type DictEntry struct {
	DictType string // dict_type
	Label    string // label
	Value    string // value
}

// Dept is a company registered under a company-type code.
type Dept struct {
	ID          int64  // id
	Name        string // name
	CompanyType string // company_type
}

type Area struct {
	ID   int64  // id
	Name string // name
}

// InsertProjects adds or replaces projects.
func InsertProjects(ctx context.Context, db *sql.DB, projects []Project) error {
	return insertBatch(ctx, db, "project", `
		INSERT OR REPLACE INTO system_project (id, name, tenant_id) VALUES (?, ?, ?);
	`, len(projects), func(stmt *sql.Stmt, i int) error {
		p := projects[i]
		_, err := stmt.ExecContext(ctx, p.ID, p.Name, p.TenantID)
		return err
	})
}

// InsertDictEntries adds or replaces dictionary entries keyed by type and label.
func InsertDictEntries(ctx context.Context, db *sql.DB, entries []DictEntry) error {
	return insertBatch(ctx, db, "dict entry", `
		INSERT OR REPLACE INTO system_dict_data (dict_type, label, value) VALUES (?, ?, ?);
	`, len(entries), func(stmt *sql.Stmt, i int) error {
		e := entries[i]
		_, err := stmt.ExecContext(ctx, e.DictType, e.Label, e.Value)
		return err
	})
}

func InsertDepts(ctx context.Context, db *sql.DB, depts []Dept) error {
	return insertBatch(ctx, db, "dept", `
		INSERT OR REPLACE INTO system_dept (id, name, company_type) VALUES (?, ?, ?);
	`, len(depts), func(stmt *sql.Stmt, i int) error {
		d := depts[i]
		_, err := stmt.ExecContext(ctx, d.ID, d.Name, d.CompanyType)
		return err
	})
}

func InsertAreas(ctx context.Context, db *sql.DB, areas []Area) error {
	return insertBatch(ctx, db, "area", `
		INSERT OR REPLACE INTO area (id, name) VALUES (?, ?);
	`, len(areas), func(stmt *sql.Stmt, i int) error {
		a := areas[i]
		_, err := stmt.ExecContext(ctx, a.ID, a.Name)
		return err
	})
}

// insertBatch runs exec n times in one transaction, logging through the
// context logger.
func insertBatch(ctx context.Context, db *sql.DB, kind, query string, n int, exec func(*sql.Stmt, int) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	logger := logging.FromContext(ctx)
	defer logging.SafeRollbackWithLogging(tx, logger, "insert_"+kind)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.HandleDeferredError(&err, stmt.Close, logger, "close_statement_"+kind)

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			logging.LogError(logger, "reference insert failed", err,
				slog.String("kind", kind),
				slog.Int("index", i))
			return fmt.Errorf("error inserting %s: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// ParseAreaCSV reads areas from CSV with an "id,name" header. Extra columns
// are ignored.
func ParseAreaCSV(r io.Reader) ([]Area, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading area header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case "id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, errors.New("area csv needs id and name columns")
	}

	var areas []Area
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading area csv line %d: %w", line, err)
		}
		if len(record) <= max(idCol, nameCol) {
			return nil, fmt.Errorf("area csv line %d: expected at least %d fields", line, max(idCol, nameCol)+1)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("area csv line %d: invalid id %q", line, record[idCol])
		}
		areas = append(areas, Area{ID: id, Name: strings.TrimSpace(record[nameCol])})
	}
	return areas, nil
}

// LoadAreaCSV adds or updates the areas listed in the CSV file at path.
func (c *Client) LoadAreaCSV(ctx context.Context, path string) (int, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening area csv: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, c.logger, "area_csv")

	areas, err := ParseAreaCSV(f)
	if err != nil {
		return 0, err
	}
	if err := InsertAreas(logging.WithLogger(ctx, c.logger), c.DB, areas); err != nil {
		return 0, err
	}

	logging.LogOperation(c.logger, "areas_loaded",
		slog.String("path", path),
		slog.Int("count", len(areas)),
		slog.Duration("duration", time.Since(start)))
	return len(areas), nil
}

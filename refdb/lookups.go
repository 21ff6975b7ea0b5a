package refdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"roadnet.roadmap.org/internal/logging"
)

// Dictionary types used by the importer.
const (
	DictRoadType       = "country_highways_type"
	DictStructure      = "structure_name"
	DictDriveDirection = "drive_direction"
	DictCompanyType    = "company_type"
)

// NotFoundError reports a label with no matching reference row.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no entry for %q", e.Table, e.Key)
}

type Project struct {
	ID       int64
	Name     string
	TenantID int64
}

// ResolveProject looks up a project by its exact name.
func (c *Client) ResolveProject(ctx context.Context, name string) (Project, error) {
	name = strings.TrimSpace(name)
	p := Project{Name: name}
	err := c.DB.QueryRowContext(ctx,
		"SELECT id, tenant_id FROM system_project WHERE name = ?", name,
	).Scan(&p.ID, &p.TenantID)
	if err != nil {
		return Project{}, c.lookupError(err, "system_project", name)
	}
	return p, nil
}

// ResolveDictValue returns the code stored for label under dictType.
func (c *Client) ResolveDictValue(ctx context.Context, dictType, label string) (string, error) {
	label = strings.TrimSpace(label)
	var value string
	err := c.DB.QueryRowContext(ctx,
		"SELECT value FROM system_dict_data WHERE dict_type = ? AND label = ?", dictType, label,
	).Scan(&value)
	if err != nil {
		return "", c.lookupError(err, "system_dict_data", dictType+"/"+label)
	}
	return value, nil
}

// ResolveCompany finds a company by name among the departments of the
// company type named typeLabel, for example 设计单位.
func (c *Client) ResolveCompany(ctx context.Context, name, typeLabel string) (int64, error) {
	companyType, err := c.ResolveDictValue(ctx, DictCompanyType, typeLabel)
	if err != nil {
		return 0, err
	}

	name = strings.TrimSpace(name)
	var id int64
	err = c.DB.QueryRowContext(ctx,
		"SELECT id FROM system_dept WHERE name = ? AND company_type = ? ORDER BY id LIMIT 1", name, companyType,
	).Scan(&id)
	if err != nil {
		return 0, c.lookupError(err, "system_dept", typeLabel+"/"+name)
	}
	return id, nil
}

// ResolveArea returns the id of an administrative area by name.
func (c *Client) ResolveArea(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	var id int64
	err := c.DB.QueryRowContext(ctx,
		"SELECT id FROM area WHERE name = ? ORDER BY id LIMIT 1", name,
	).Scan(&id)
	if err != nil {
		return 0, c.lookupError(err, "area", name)
	}
	return id, nil
}

func (c *Client) lookupError(err error, table, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Table: table, Key: key}
	}
	logging.LogError(c.logger, "reference lookup failed", err,
		slog.String("table", table),
		slog.String("key", key))
	return fmt.Errorf("querying %s for %q: %w", table, key, err)
}

// Package sqldb provides the sql provider kind. Its root object is a
// Database whose members are the tables listed in the manifest; reading a
// member loads the table rows.
package sqldb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/kinds"
)

func init() {
	kinds.Register("sql", New)
}

// Drivers accepted by the driver option
var Drivers = []string{"postgres", "pgx", "sqlite3"}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Provider owns the connection pool behind a Database
type Provider struct {
	db   *sql.DB
	root *Database
}

// New opens a provider from the driver, dsn and tables options
func New(spec kinds.Spec) (ports.Provider, error) {
	driver, err := spec.RequireString("driver")
	if err != nil {
		return nil, err
	}
	if !supported(driver) {
		return nil, fmt.Errorf("provider %s: unsupported driver %q (want one of %s)",
			spec.Metadata.Name, driver, strings.Join(Drivers, ", "))
	}

	dsn, err := spec.RequireString("dsn")
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		dsn = sqliteDSN(dsn, spec.ModuleDir)
	}

	tables, err := spec.Strings("tables")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to open database: %w", spec.Metadata.Name, err)
	}

	root, err := NewDatabase(db, tables, spec.Metadata.Shape)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("provider %s: %w", spec.Metadata.Name, err)
	}
	return &Provider{db: db, root: root}, nil
}

// DataSource returns the Database root
func (p *Provider) DataSource() (any, error) {
	return p.root, nil
}

// Close closes the connection pool
func (p *Provider) Close() error {
	return p.db.Close()
}

// Database exposes a fixed set of tables as navigable members
type Database struct {
	db     *sql.DB
	tables []string
	shape  datasource.Shape
}

// NewDatabase creates a Database over db. Table names must be plain SQL identifiers.
func NewDatabase(db *sql.DB, tables []string, shape datasource.Shape) (*Database, error) {
	for _, t := range tables {
		if !identifier.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}
	if shape.IsZero() {
		shape = "sql.Database"
	}
	return &Database{db: db, tables: tables, shape: shape}, nil
}

// Shape reports the declared schema token
func (d *Database) Shape() datasource.Shape { return d.shape }

// Tables lists the navigable tables
func (d *Database) Tables() []string {
	out := make([]string, len(d.tables))
	copy(out, d.tables)
	return out
}

// Member loads the rows of a listed table. Unlisted tables are absent.
func (d *Database) Member(name string) (any, bool, error) {
	for _, t := range d.tables {
		if t == name {
			rows, err := d.Rows(name)
			return rows, true, err
		}
	}
	return nil, false, nil
}

// Rows reads every row of table as a column-name map
func (d *Database) Rows(table string) ([]any, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := d.db.Query(fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	result := []any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return result, nil
}

func supported(driver string) bool {
	for _, d := range Drivers {
		if d == driver {
			return true
		}
	}
	return false
}

// sqliteDSN anchors a relative database file at the module folder
func sqliteDSN(dsn, moduleDir string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	native := filepath.FromSlash(dsn)
	if filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(moduleDir, native)
}

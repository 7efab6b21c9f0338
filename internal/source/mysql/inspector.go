package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderjulianmartinez/textfit/internal/source"
	"github.com/alexanderjulianmartinez/textfit/pkg/types"
)

type Inspector struct {
	db      *sql.DB
	schema  string
	timeout time.Duration
}

// NewInspector opens and pings a MySQL connection. dsn may be a driver DSN
// or a mysql:// URL. An empty schema means the connection's default
// database.
func NewInspector(ctx context.Context, dsn, schema string, timeout time.Duration) (*Inspector, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}

	return NewWithDB(db, schema, timeout), nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB, schema string, timeout time.Duration) *Inspector {
	return &Inspector{
		db:      db,
		schema:  schema,
		timeout: timeout,
	}
}

func (i *Inspector) Close() error {
	return i.db.Close()
}

func (i *Inspector) Dialect() source.Dialect {
	return Dialect{}
}

func (i *Inspector) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout > 0 {
		return context.WithTimeout(ctx, i.timeout)
	}
	return context.WithCancel(ctx)
}

const textColumnsQuery = `
		SELECT COLUMN_NAME, DATA_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		  AND TABLE_NAME = ?
		  AND DATA_TYPE IN ('text', 'tinytext', 'mediumtext', 'longtext')
		ORDER BY ORDINAL_POSITION`

const columnNamesQuery = `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

func (i *Inspector) TextColumns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, textColumnsQuery, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query text columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols = append(cols, types.ColumnInfo{
			Name:     name,
			DataType: dataType,
		})
	}
	return cols, rows.Err()
}

func (i *Inspector) ColumnNames(ctx context.Context, table string) ([]string, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, columnNamesQuery, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (i *Inspector) tableRef(table string) string {
	return Dialect{}.TableRef(i.schema, table)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/alexanderjulianmartinez/textfit/internal/source"
	"github.com/alexanderjulianmartinez/textfit/pkg/types"
)

type Dialect struct{}

func (Dialect) Name() string { return "PostgreSQL" }

func (Dialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d Dialect) TableRef(schema, table string) string {
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d Dialect) AlterColumn(column, target string) string {
	col := d.QuoteIdent(column)
	clause := "ALTER COLUMN " + col + " TYPE " + target
	if target == "TIME" {
		clause += " USING " + col + "::time"
	}
	return clause
}

type Inspector struct {
	db      *sql.DB
	schema  string
	timeout time.Duration
}

// NewInspector opens and pings a Postgres connection. A "+driver" suffix in
// the URL scheme (postgresql+psycopg2://) is accepted and dropped.
func NewInspector(ctx context.Context, dsn, schema string, timeout time.Duration) (*Inspector, error) {
	db, err := sql.Open("postgres", NormalizeDSN(dsn))
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
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return NewWithDB(db, schema, timeout), nil
}

func NewWithDB(db *sql.DB, schema string, timeout time.Duration) *Inspector {
	return &Inspector{db: db, schema: schema, timeout: timeout}
}

// NormalizeDSN strips a "+driver" suffix from URL schemes. Key=value DSNs
// are returned unchanged.
func NormalizeDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	base, _, _ := strings.Cut(scheme, "+")
	return base + "://" + rest
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

func (i *Inspector) tableRef(table string) string {
	return Dialect{}.TableRef(i.schema, table)
}

func (i *Inspector) TextColumns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		  AND table_name = $2
		  AND (data_type = 'text'
		    OR (data_type = 'character varying' AND character_maximum_length IS NULL))
		ORDER BY ordinal_position`, i.schema, table)
	if err != nil {
		return nil, fmt.Errorf("query text columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var c types.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (i *Inspector) ColumnNames(ctx context.Context, table string) ([]string, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	rows, err := i.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		  AND table_name = $2
		ORDER BY ordinal_position`, i.schema, table)
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

func (i *Inspector) ColumnStats(ctx context.Context, table, column string) (source.ColumnStats, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	col := pq.QuoteIdentifier(column)
	query := fmt.Sprintf(`
		SELECT
		  MAX(CHAR_LENGTH(%[1]s)) AS max_len,
		  SUM(CASE WHEN %[1]s IS NULL OR %[1]s = '' THEN 0 ELSE 1 END) AS non_nulls
		FROM %[2]s`, col, i.tableRef(table))

	var maxLen, nonEmpty sql.NullInt64
	if err := i.db.QueryRowContext(ctx, query).Scan(&maxLen, &nonEmpty); err != nil {
		return source.ColumnStats{}, fmt.Errorf("measure %s.%s: %w", table, column, err)
	}
	return source.ColumnStats{MaxLen: maxLen.Int64, NonEmpty: nonEmpty.Int64}, nil
}

func (i *Inspector) HasNonTimeValues(ctx context.Context, table, column, pattern string) (bool, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	col := pq.QuoteIdentifier(column)
	query := fmt.Sprintf(`
		SELECT EXISTS(
		  SELECT 1 FROM %[2]s
		  WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		    AND %[1]s !~ $1
		)`, col, i.tableRef(table))

	var bad bool
	if err := i.db.QueryRowContext(ctx, query, pattern).Scan(&bad); err != nil {
		return false, fmt.Errorf("check time format of %s.%s: %w", table, column, err)
	}
	return bad, nil
}

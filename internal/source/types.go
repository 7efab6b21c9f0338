package source

import (
	"context"

	"github.com/alexanderjulianmartinez/textfit/pkg/types"
)

// TimePattern matches H:MM, HH:MM and HH:MM:SS values.
const TimePattern = `^[0-2]?[0-9]:[0-5][0-9](:[0-5][0-9])?$`

type ColumnStats struct {
	MaxLen   int64
	NonEmpty int64
}

// Dialect renders identifiers and DDL fragments for one database flavour.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	// TableRef quotes table, qualified by schema when schema is not empty.
	TableRef(schema, table string) string
	// AlterColumn returns the per-column clause of an ALTER TABLE statement,
	// e.g. "MODIFY COLUMN `c` VARCHAR(40)".
	AlterColumn(column, target string) string
}

// Prober is the catalog and data access needed to size text columns.
type Prober interface {
	Dialect() Dialect
	TextColumns(ctx context.Context, table string) ([]types.ColumnInfo, error)
	ColumnNames(ctx context.Context, table string) ([]string, error)
	ColumnStats(ctx context.Context, table, column string) (ColumnStats, error)
	// HasNonTimeValues reports whether any non-empty value of column fails
	// to match pattern.
	HasNonTimeValues(ctx context.Context, table, column, pattern string) (bool, error)
}

package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderjulianmartinez/textfit/internal/source"
)

func (i *Inspector) ColumnStats(ctx context.Context, table, column string) (source.ColumnStats, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	col := Dialect{}.QuoteIdent(column)
	query := fmt.Sprintf(`
		SELECT
		  MAX(CHAR_LENGTH(%[1]s)) AS max_len,
		  SUM(CASE WHEN %[1]s IS NULL OR %[1]s = '' THEN 0 ELSE 1 END) AS non_nulls
		FROM %[2]s`, col, i.tableRef(table))

	var maxLen, nonEmpty sql.NullInt64
	if err := i.db.QueryRowContext(ctx, query).Scan(&maxLen, &nonEmpty); err != nil {
		return source.ColumnStats{}, fmt.Errorf("measure %s.%s: %w", table, column, err)
	}
	return source.ColumnStats{
		MaxLen:   maxLen.Int64,
		NonEmpty: nonEmpty.Int64,
	}, nil
}

func (i *Inspector) HasNonTimeValues(ctx context.Context, table, column, pattern string) (bool, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	col := Dialect{}.QuoteIdent(column)
	query := fmt.Sprintf(`
		SELECT EXISTS(
		  SELECT 1 FROM %[2]s
		  WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		    AND %[1]s NOT REGEXP ?
		  LIMIT 1
		) AS bad`, col, i.tableRef(table))

	var bad bool
	if err := i.db.QueryRowContext(ctx, query, pattern).Scan(&bad); err != nil {
		return false, fmt.Errorf("check time format of %s.%s: %w", table, column, err)
	}
	return bad, nil
}

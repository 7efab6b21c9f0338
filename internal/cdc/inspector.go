package cdc

import (
	"context"
	"slices"
)

type ColumnInfo struct {
	Type     string
	Nullable bool
}

type TableSchema struct {
	Columns map[string]ColumnInfo
}

type Result struct {
	ConnectorReachable bool
	// CapturedBy maps a captured table name to the connectors capturing it.
	CapturedBy   map[string][]string
	TableSchemas map[string]TableSchema // from the schema history topic, may be empty
	Warnings     []string
}

// Captures reports whether table is in some connector's include list and
// returns the connector names.
func (r *Result) Captures(table string) ([]string, bool) {
	if r == nil {
		return nil, false
	}
	names, ok := r.CapturedBy[table]
	return names, ok
}

// HistoryColumn returns the column as recorded in the schema history.
func (r *Result) HistoryColumn(table, column string) (ColumnInfo, bool) {
	if r == nil {
		return ColumnInfo{}, false
	}
	col, ok := r.TableSchemas[table].Columns[column]
	return col, ok
}

// HistoryType returns the column type recorded in the schema history.
func (r *Result) HistoryType(table, column string) (string, bool) {
	col, ok := r.HistoryColumn(table, column)
	return col.Type, ok
}

// AddCapture records that connector captures table.
func (r *Result) AddCapture(table, connector string) {
	if r.CapturedBy == nil {
		r.CapturedBy = map[string][]string{}
	}
	if !slices.Contains(r.CapturedBy[table], connector) {
		r.CapturedBy[table] = append(r.CapturedBy[table], connector)
	}
}

type Inspector interface {
	Name() string
	Inspect(ctx context.Context) (*Result, error)
}

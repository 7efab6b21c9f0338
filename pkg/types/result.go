package types

// ColumnInfo is a large-text column as reported by the catalog.
type ColumnInfo struct {
	Name     string
	DataType string
}

// AnalysisResult is the recommendation for a single column.
type AnalysisResult struct {
	Column   string
	From     string
	MaxLen   int64
	NonEmpty int64
	TimeLike bool
	To       string
	Reason   string
}

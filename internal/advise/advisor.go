package advise

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alexanderjulianmartinez/textfit/internal/cdc"
	"github.com/alexanderjulianmartinez/textfit/internal/source"
	"github.com/alexanderjulianmartinez/textfit/pkg/types"
)

const timeReason = "Semua nilai cocok pola HH:MM(:SS), lebih tepat TIME"

type Report struct {
	// Schema qualifies Table in the generated DDL. Empty means the
	// connection's default schema.
	Schema  string
	Table   string
	Columns []types.ColumnInfo
	Results []types.AnalysisResult
	// Indexes are the index candidates that exist in the table, in input
	// order, each at most once.
	Indexes []string
	CDC     *cdc.Result
}

// Empty reports whether the table has no large-text columns.
func (r *Report) Empty() bool {
	return len(r.Columns) == 0
}

type Advisor struct {
	prober source.Prober
	logger *slog.Logger
}

func New(prober source.Prober, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{prober: prober, logger: logger}
}

// Analyze measures every large-text column of table and validates the
// index candidates against the table's columns. When the table has no
// large-text columns the returned report is Empty and no further queries
// are made.
func (a *Advisor) Analyze(ctx context.Context, table string, candidates []string) (*Report, error) {
	cols, err := a.prober.TextColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	report := &Report{Table: table, Columns: cols}
	if len(cols) == 0 {
		a.logger.Info("no text columns found", "table", table)
		return report, nil
	}
	a.logger.Debug("text columns found", "table", table, "count", len(cols))

	for _, col := range cols {
		res, err := a.AnalyzeColumn(ctx, table, col)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
	}

	existing, err := a.prober.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}
	report.Indexes = MatchCandidates(candidates, existing)
	if dropped := len(candidates) - len(report.Indexes); dropped > 0 {
		a.logger.Debug("index candidates skipped", "table", table, "skipped", dropped)
	}
	return report, nil
}

// AnalyzeColumn produces the recommendation for one column.
func (a *Advisor) AnalyzeColumn(ctx context.Context, table string, col types.ColumnInfo) (types.AnalysisResult, error) {
	stats, err := a.prober.ColumnStats(ctx, table, col.Name)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	res := types.AnalysisResult{
		Column:   col.Name,
		From:     strings.ToUpper(col.DataType),
		MaxLen:   stats.MaxLen,
		NonEmpty: stats.NonEmpty,
	}

	if LikelyTime(col.Name) && timeLengths[stats.MaxLen] {
		bad, err := a.prober.HasNonTimeValues(ctx, table, col.Name, source.TimePattern)
		if err != nil {
			return types.AnalysisResult{}, err
		}
		res.TimeLike = !bad
	}

	if res.TimeLike {
		res.To = "TIME"
		res.Reason = timeReason
	} else {
		size := RoundSize(stats.MaxLen)
		res.To = fmt.Sprintf("VARCHAR(%d)", size)
		res.Reason = fmt.Sprintf("max_len=%d, pakai buffer ×2 → %d", stats.MaxLen, size)
	}

	a.logger.Debug("column analyzed",
		"column", col.Name,
		"max_len", stats.MaxLen,
		"non_empty", stats.NonEmpty,
		"to", res.To,
	)
	return res, nil
}

// MatchCandidates keeps the candidates present in existing, preserving
// input order and dropping repeats. Matching is case-sensitive.
func MatchCandidates(candidates, existing []string) []string {
	present := make(map[string]bool, len(existing))
	for _, c := range existing {
		present[c] = true
	}

	var out []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if present[c] && !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	return out
}

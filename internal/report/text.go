// Package report renders an advise.Report as copy-pasteable text.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexanderjulianmartinez/textfit/internal/advise"
	"github.com/alexanderjulianmartinez/textfit/internal/source"
)

const closingNote = "[NOTE] Jalankan ALTER TABLE dulu. Setelah sukses, jalankan CREATE INDEX di kolom yang sering dipakai filter."

type Writer struct {
	w       io.Writer
	dialect source.Dialect
	err     error
}

func NewWriter(w io.Writer, dialect source.Dialect) *Writer {
	return &Writer{w: w, dialect: dialect}
}

// Write prints the whole report. An empty report prints only the
// informational line.
func (tw *Writer) Write(r *advise.Report) error {
	if r.Empty() {
		tw.printf("[INFO] Tidak ada kolom TEXT di `%s`. (Mungkin sudah VARCHAR semua?)\n", r.Table)
		return tw.err
	}

	tw.header(fmt.Sprintf("Kolom TEXT yang terdeteksi di `%s`", r.Table))
	for _, c := range r.Columns {
		tw.printf("- %s (%s)\n", c.Name, c.DataType)
	}

	tw.alterTable(r)
	tw.indexes(r)
	if r.CDC != nil {
		tw.cdc(r)
	}

	tw.printf("\n%s\n", closingNote)
	return tw.err
}

func (tw *Writer) alterTable(r *advise.Report) {
	tw.header(fmt.Sprintf("REKOMENDASI ALTER TABLE (copy-paste ke %s)", tw.dialect.Name()))
	tw.printf("ALTER TABLE %s\n", tw.dialect.TableRef(r.Schema, r.Table))
	for i, res := range r.Results {
		sep := ","
		if i == len(r.Results)-1 {
			sep = ";"
		}
		tw.printf("  %s%s  -- %s\n", tw.dialect.AlterColumn(res.Column, res.To), sep, res.Reason)
	}
}

func (tw *Writer) indexes(r *advise.Report) {
	tw.header("SARAN INDEX (opsional, setelah ALTER dijalankan)")
	if len(r.Indexes) == 0 {
		tw.printf("(Tidak ada kandidat index dari INDEX_CANDIDATES yang cocok dengan kolom di tabel.)\n")
		return
	}
	table := tw.dialect.TableRef(r.Schema, r.Table)
	for _, c := range r.Indexes {
		tw.printf("CREATE INDEX %s ON %s (%s);\n", IndexName(c), table, tw.dialect.QuoteIdent(c))
	}
}

// IndexName derives an unquoted index name from a column name. Anything
// other than letters, digits and underscores becomes an underscore.
func IndexName(column string) string {
	return "idx_" + strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.ToLower(column))
}

func (tw *Writer) cdc(r *advise.Report) {
	tw.header("STATUS CDC (Debezium)")
	res := r.CDC
	if !res.ConnectorReachable {
		tw.printf("[WARN] Kafka Connect tidak dapat dihubungi; status CDC tidak diketahui.\n")
	} else if connectors, ok := res.Captures(r.Table); ok {
		tw.printf("[WARN] Tabel `%s` di-capture oleh connector %s. ALTER TABLE akan menghasilkan schema change event.\n",
			r.Table, strings.Join(connectors, ", "))
		for _, rec := range r.Results {
			if col, ok := res.HistoryColumn(r.Table, rec.Column); ok {
				null := "NULL"
				if !col.Nullable {
					null = "NOT NULL"
				}
				tw.printf("- %s: tipe di schema history = %s %s, rekomendasi = %s\n", rec.Column, col.Type, null, rec.To)
			}
		}
	} else {
		tw.printf("Tabel `%s` tidak di-capture oleh connector CDC mana pun.\n", r.Table)
	}
	for _, w := range res.Warnings {
		tw.printf("- %s\n", w)
	}
}

func (tw *Writer) header(title string) {
	rule := strings.Repeat("=", utf8.RuneCountInString(title))
	tw.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// printf remembers the first write error so callers check once.
func (tw *Writer) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

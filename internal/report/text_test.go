package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alexanderjulianmartinez/textfit/internal/advise"
	"github.com/alexanderjulianmartinez/textfit/internal/cdc"
	"github.com/alexanderjulianmartinez/textfit/internal/source/mysql"
	"github.com/alexanderjulianmartinez/textfit/internal/source/postgres"
	"github.com/alexanderjulianmartinez/textfit/pkg/types"
)

func notesReport() *advise.Report {
	return &advise.Report{
		Table:   "t",
		Columns: []types.ColumnInfo{{Name: "notes", DataType: "text"}},
		Results: []types.AnalysisResult{{
			Column: "notes", From: "TEXT", MaxLen: 50, NonEmpty: 4,
			To: "VARCHAR(100)", Reason: "max_len=50, pakai buffer ×2 → 100",
		}},
		Indexes: []string{"notes"},
	}
}

func TestWrite_MySQL(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(notesReport()); err != nil {
		t.Fatal(err)
	}

	want := "\n" +
		"=================================\n" +
		"Kolom TEXT yang terdeteksi di `t`\n" +
		"=================================\n" +
		"- notes (text)\n" +
		"\n" +
		"=============================================\n" +
		"REKOMENDASI ALTER TABLE (copy-paste ke MySQL)\n" +
		"=============================================\n" +
		"ALTER TABLE `t`\n" +
		"  MODIFY COLUMN `notes` VARCHAR(100);  -- max_len=50, pakai buffer ×2 → 100\n" +
		"\n" +
		"================================================\n" +
		"SARAN INDEX (opsional, setelah ALTER dijalankan)\n" +
		"================================================\n" +
		"CREATE INDEX idx_notes ON `t` (`notes`);\n" +
		"\n" +
		closingNote + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestWrite_MultipleColumnsSeparators(t *testing.T) {
	r := notesReport()
	r.Columns = append(r.Columns, types.ColumnInfo{Name: "jam_masuk", DataType: "text"})
	r.Results = append(r.Results, types.AnalysisResult{
		Column: "jam_masuk", To: "TIME", TimeLike: true,
		Reason: "Semua nilai cocok pola HH:MM(:SS), lebih tepat TIME",
	})
	r.Indexes = []string{"NoTiket", "Plat"}

	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, line := range []string{
		"  MODIFY COLUMN `notes` VARCHAR(100),  -- max_len=50, pakai buffer ×2 → 100\n",
		"  MODIFY COLUMN `jam_masuk` TIME;  -- Semua nilai cocok pola HH:MM(:SS), lebih tepat TIME\n",
		"CREATE INDEX idx_notiket ON `t` (`NoTiket`);\nCREATE INDEX idx_plat ON `t` (`Plat`);\n",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("expected %q in output:\n%s", line, out)
		}
	}
}

func TestWrite_NoIndexCandidates(t *testing.T) {
	r := notesReport()
	r.Indexes = nil

	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(Tidak ada kandidat index dari INDEX_CANDIDATES yang cocok dengan kolom di tabel.)\n") {
		t.Fatalf("expected no-candidate line, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "CREATE INDEX idx_") {
		t.Fatalf("unexpected CREATE INDEX statement:\n%s", buf.String())
	}
}

func TestWrite_SchemaQualified(t *testing.T) {
	r := notesReport()
	r.Schema = "shop"

	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"ALTER TABLE `shop`.`t`\n",
		"CREATE INDEX idx_notes ON `shop`.`t` (`notes`);\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}
	if strings.Contains(out, "ALTER TABLE `t`") {
		t.Fatalf("table must be schema qualified:\n%s", out)
	}
}

func TestIndexName(t *testing.T) {
	tests := map[string]string{
		"notes":     "idx_notes",
		"NoTiket":   "idx_notiket",
		"Jam Masuk": "idx_jam_masuk",
		"berat-kg":  "idx_berat_kg",
		"waktu`x":   "idx_waktu_x",
	}
	for in, want := range tests {
		if got := IndexName(in); got != want {
			t.Errorf("IndexName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(&advise.Report{Table: "data_timbang"}); err != nil {
		t.Fatal(err)
	}
	want := "[INFO] Tidak ada kolom TEXT di `data_timbang`. (Mungkin sudah VARCHAR semua?)\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWrite_Postgres(t *testing.T) {
	r := notesReport()
	r.Results = append(r.Results, types.AnalysisResult{Column: "jam", To: "TIME", Reason: "x"})
	r.Indexes = append(r.Indexes, "Jam Masuk")

	var buf bytes.Buffer
	if err := NewWriter(&buf, postgres.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"REKOMENDASI ALTER TABLE (copy-paste ke PostgreSQL)\n",
		"ALTER TABLE \"t\"\n",
		"  ALTER COLUMN \"notes\" TYPE VARCHAR(100),  -- ",
		"  ALTER COLUMN \"jam\" TYPE TIME USING \"jam\"::time;  -- x\n",
		"CREATE INDEX idx_notes ON \"t\" (\"notes\");\n",
		"CREATE INDEX idx_jam_masuk ON \"t\" (\"Jam Masuk\");\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}
}

func TestWrite_CDCSection(t *testing.T) {
	r := notesReport()
	r.Results = append(r.Results, types.AnalysisResult{Column: "jam_masuk", To: "TIME", Reason: "x"})
	r.CDC = &cdc.Result{
		ConnectorReachable: true,
		CapturedBy:         map[string][]string{"t": {"pabrik-cdc"}},
		TableSchemas: map[string]cdc.TableSchema{
			"t": {Columns: map[string]cdc.ColumnInfo{
				"notes":     {Type: "TEXT", Nullable: true},
				"jam_masuk": {Type: "TEXT", Nullable: false},
			}},
		},
		Warnings: []string{"Connector pabrik-cdc health: connector=RUNNING tasks=[0:RUNNING]"},
	}

	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"STATUS CDC (Debezium)\n",
		"[WARN] Tabel `t` di-capture oleh connector pabrik-cdc.",
		"- notes: tipe di schema history = TEXT NULL, rekomendasi = VARCHAR(100)\n",
		"- jam_masuk: tipe di schema history = TEXT NOT NULL, rekomendasi = TIME\n",
		"- Connector pabrik-cdc health: connector=RUNNING tasks=[0:RUNNING]\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}
	if !strings.HasSuffix(out, closingNote+"\n") {
		t.Fatalf("closing note must stay last")
	}
}

func TestWrite_CDCNotCaptured(t *testing.T) {
	r := notesReport()
	r.CDC = &cdc.Result{ConnectorReachable: true}

	var buf bytes.Buffer
	if err := NewWriter(&buf, mysql.Dialect{}).Write(r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Tabel `t` tidak di-capture oleh connector CDC mana pun.\n") {
		t.Fatalf("expected not-captured line:\n%s", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWrite_PropagatesWriteError(t *testing.T) {
	if err := NewWriter(failingWriter{}, mysql.Dialect{}).Write(notesReport()); err == nil {
		t.Fatalf("expected write error")
	}
}

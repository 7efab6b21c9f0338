package debezium

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/alexanderjulianmartinez/textfit/internal/cdc"
)

const maxHistoryMessages = 500

// ReadHistoryDDL reads up to 500 messages from a Debezium schema history
// topic and returns the DDL they carry. It gives up after three seconds
// without failing, since the history topic is an optional source.
func ReadHistoryDDL(ctx context.Context, brokers []string, topic string) ([]string, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers provided")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer r.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ddls []string
	for count := 0; count < maxHistoryMessages; count++ {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			break
		}
		if ddl := historyDDL(m.Value); ddl != "" {
			ddls = append(ddls, ddl)
		}
	}

	if len(ddls) == 0 {
		return nil, fmt.Errorf("no DDL found in kafka topic %s", topic)
	}
	return ddls, nil
}

// historyDDL pulls the ddl field out of a history record. Non-JSON
// messages are skipped.
func historyDDL(value []byte) string {
	var rec struct {
		DDL string `json:"ddl"`
	}
	if err := json.Unmarshal(value, &rec); err != nil {
		return ""
	}
	return rec.DDL
}

var (
	reCreate = regexp.MustCompile("(?is)CREATE\\s+TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?(?:`?[^`\\s.(]+`?\\.)?`?([^`\\s.(]+)`?\\s*\\(")
	reCol    = regexp.MustCompile("(?is)^`([^`]+)`\\s+([a-z]+(?:\\s*\\([^)]*\\))?)")
)

// ParseCreateTables extracts column types and nullability from CREATE
// TABLE statements. Later statements for the same table win.
func ParseCreateTables(ddls []string) map[string]map[string]cdc.ColumnInfo {
	schemas := map[string]map[string]cdc.ColumnInfo{}
	for _, ddl := range ddls {
		for _, loc := range reCreate.FindAllStringSubmatchIndex(ddl, -1) {
			table := ddl[loc[2]:loc[3]]
			body, ok := parenBody(ddl[loc[1]-1:])
			if !ok {
				continue
			}
			cols := map[string]cdc.ColumnInfo{}
			for _, def := range splitTopLevel(body) {
				cm := reCol.FindStringSubmatch(strings.TrimSpace(def))
				if cm == nil {
					continue
				}
				upper := strings.ToUpper(def)
				cols[cm[1]] = cdc.ColumnInfo{
					Type:     strings.ToUpper(strings.Join(strings.Fields(cm[2]), "")),
					Nullable: !strings.Contains(upper, "NOT NULL"),
				}
			}
			if len(cols) > 0 {
				schemas[table] = cols
			}
		}
	}
	return schemas
}

// parenBody returns the text between s[0] == '(' and its matching ')'.
func parenBody(s string) (string, bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

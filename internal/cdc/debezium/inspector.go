package debezium

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderjulianmartinez/textfit/internal/cdc"
	"github.com/alexanderjulianmartinez/textfit/internal/config"
)

// HistoryReader returns the DDL statements recorded in a schema history
// topic, oldest first.
type HistoryReader func(ctx context.Context, brokers []string, topic string) ([]string, error)

type Inspector struct {
	cfg         config.CDCConfig
	client      *http.Client
	readHistory HistoryReader
}

type ConnectorConfig struct {
	Config map[string]interface{} `json:"config"`
}

type ConnectorStatus struct {
	Name      string `json:"name"`
	Connector struct {
		State    string `json:"state"`
		WorkerID string `json:"worker_id"`
	} `json:"connector"`
	Tasks []struct {
		ID       int    `json:"id"`
		State    string `json:"state"`
		WorkerID string `json:"worker_id"`
	} `json:"tasks"`
}

var (
	historyTopicKeys   = []string{"schema.history.internal.kafka.topic", "database.history.kafka.topic"}
	historyBrokersKeys = []string{"schema.history.internal.kafka.bootstrap.servers", "database.history.kafka.bootstrap.servers"}
	snapshotOffModes   = map[string]bool{"never": true, "schema_only": true, "no_data": true}
)

func New(cfg config.CDCConfig) *Inspector {
	return &Inspector{
		cfg:         cfg,
		client:      &http.Client{Timeout: 5 * time.Second},
		readHistory: ReadHistoryDDL,
	}
}

// WithHistoryReader replaces the Kafka schema history reader.
func (i *Inspector) WithHistoryReader(r HistoryReader) *Inspector {
	i.readHistory = r
	return i
}

func (i *Inspector) Name() string {
	return "debezium"
}

// Inspect queries the Kafka Connect REST API for connectors, the tables
// they capture and their health. An unreachable endpoint is reported in the
// result rather than as an error.
func (i *Inspector) Inspect(ctx context.Context) (*cdc.Result, error) {
	base := strings.TrimRight(i.cfg.ConnectURL, "/")

	var connectors []string
	status, err := i.getJSON(ctx, base+"/connectors/", &connectors)
	if err != nil {
		return &cdc.Result{
			ConnectorReachable: false,
			Warnings:           []string{err.Error()},
		}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("Debezium returned status: %d", status)
	}

	res := &cdc.Result{ConnectorReachable: true}
	for _, connector := range connectors {
		connectorURL := base + "/connectors/" + url.PathEscape(connector)

		var connConfig ConnectorConfig
		if status, err := i.getJSON(ctx, connectorURL, &connConfig); err != nil || status != http.StatusOK {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Connector %s config unavailable", connector))
			continue
		}

		for _, table := range includedTables(stringValue(connConfig.Config, "table.include.list")) {
			res.AddCapture(table, connector)
		}

		if mode := stringValue(connConfig.Config, "snapshot.mode"); snapshotOffModes[mode] {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Connector %s has snapshot.mode=%s; snapshots disabled or schema-only (CDC may miss initial data). This check will not attempt to trigger snapshots.",
				connector, mode))
		}

		var st ConnectorStatus
		if status, err := i.getJSON(ctx, connectorURL+"/status", &st); err == nil && status == http.StatusOK {
			res.Warnings = append(res.Warnings, healthWarnings(connector, st)...)
		}

		topic := firstString(connConfig.Config, historyTopicKeys)
		brokers := splitList(firstString(connConfig.Config, historyBrokersKeys))
		if topic != "" && len(brokers) > 0 && i.readHistory != nil {
			ddls, err := i.readHistory(ctx, brokers, topic)
			if err != nil {
				continue
			}
			for table, cols := range ParseCreateTables(ddls) {
				if res.TableSchemas == nil {
					res.TableSchemas = map[string]cdc.TableSchema{}
				}
				res.TableSchemas[table] = cdc.TableSchema{Columns: cols}
			}
		}
	}
	return res, nil
}

func (i *Inspector) getJSON(ctx context.Context, target string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", target, err)
	}
	return resp.StatusCode, nil
}

func healthWarnings(connector string, st ConnectorStatus) []string {
	var (
		parts  []string
		failed []int
	)
	for _, t := range st.Tasks {
		parts = append(parts, fmt.Sprintf("%d:%s", t.ID, t.State))
		if t.State == "FAILED" {
			failed = append(failed, t.ID)
		}
	}

	warnings := []string{
		fmt.Sprintf("Connector %s health: connector=%s tasks=[%s]", connector, st.Connector.State, strings.Join(parts, " ")),
	}
	if st.Connector.State == "FAILED" {
		warnings = append(warnings, fmt.Sprintf("Connector %s is FAILED", connector))
	}
	if len(failed) > 0 {
		warnings = append(warnings, fmt.Sprintf("Connector %s has failed task(s): %v", connector, failed))
		if st.Connector.State == "RUNNING" {
			warnings = append(warnings, fmt.Sprintf("Connector %s may be in restart loop: connector RUNNING but tasks failing", connector))
		}
	}
	return warnings
}

// includedTables extracts table names from a table.include.list value,
// dropping the database or schema prefix.
func includedTables(list string) []string {
	var tables []string
	for _, table := range splitList(list) {
		if parts := strings.Split(table, "."); len(parts) == 2 {
			tables = append(tables, parts[1])
		} else {
			tables = append(tables, table)
		}
	}
	return tables
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringValue(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if s := stringValue(m, k); s != "" {
			return s
		}
	}
	return ""
}

package cmd

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

type tableVerification struct {
	TableName     string `json:"table_name"`
	PublishedRows int64  `json:"published_rows"`
	StoredRows    int64  `json:"stored_rows"`
	Match         bool   `json:"match"`
}

// loadSummary is written after every load as <processed>/load_summary.{json,csv}.
type loadSummary struct {
	RunID         string              `json:"run_id"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
	DurationSecs  float64             `json:"duration_secs"`
	Schema        string              `json:"schema"`
	SnapshotFiles []string            `json:"snapshot_files,omitempty"`
	Tables        []tableVerification `json:"tables"`
}

// verifyTables compares published row counts against what the warehouse
// reports after commit. counts is keyed by schema-qualified name.
func verifyTables(schema string, published []warehouse.Published, counts map[string]int64) []tableVerification {
	out := make([]tableVerification, 0, len(published))
	for _, p := range published {
		stored := counts[schema+"."+p.Table]
		out = append(out, tableVerification{
			TableName:     p.Table,
			PublishedRows: p.Rows,
			StoredRows:    stored,
			Match:         p.Rows == stored,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableName < out[j].TableName })
	return out
}

func (s loadSummary) mismatches() int {
	n := 0
	for _, t := range s.Tables {
		if !t.Match {
			n++
		}
	}
	return n
}

func writeLoadSummary(dir string, s loadSummary) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	jsonPath := filepath.Join(dir, "load_summary.json")
	csvPath := filepath.Join(dir, "load_summary.csv")
	if err := writeSummaryJSON(s, jsonPath); err != nil {
		return "", "", err
	}
	if err := writeSummaryCSV(s, csvPath); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeSummaryJSON(summary loadSummary, path string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeSummaryCSV(summary loadSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"table", "published_rows", "stored_rows", "match"}); err != nil {
		return err
	}
	for _, t := range summary.Tables {
		row := []string{
			t.TableName,
			strconv.FormatInt(t.PublishedRows, 10),
			strconv.FormatInt(t.StoredRows, 10),
			strconv.FormatBool(t.Match),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

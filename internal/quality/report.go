package quality

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	CSVReport  = "quality_report.csv"
	JSONReport = "quality_report.json"
)

// WriteReports writes the CSV and JSON reports into dir and returns their paths.
func WriteReports(dir string, s Summary) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	csvPath := filepath.Join(dir, CSVReport)
	jsonPath := filepath.Join(dir, JSONReport)
	if err := writeSummaryCSV(s.Results, csvPath); err != nil {
		return "", "", err
	}
	if err := writeSummaryJSON(s, jsonPath); err != nil {
		return "", "", err
	}
	return csvPath, jsonPath, nil
}

func writeSummaryJSON(s Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeSummaryCSV(results []Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"check", "status", "info"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write([]string{r.Check, string(r.Status), r.Info}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

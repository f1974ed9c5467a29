package artifact

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MetricsSchema is the table layout the training pipeline writes metrics
// reports into. List columns hold JSON arrays.
const MetricsSchema = `
    CREATE TABLE IF NOT EXISTS metrics_report (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        accuracy REAL NOT NULL,
        classification_report TEXT NOT NULL,
        roc_auc TEXT NOT NULL,
        fpr TEXT NOT NULL,
        tpr TEXT NOT NULL,
        recall TEXT NOT NULL,
        precision TEXT NOT NULL,
        pr_auc TEXT NOT NULL,
        trained_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );`

const latestMetricsQuery = `
    SELECT accuracy, classification_report, roc_auc, fpr, tpr, recall, precision, pr_auc
    FROM metrics_report
    ORDER BY trained_at DESC, id DESC
    LIMIT 1`

// metricsDSN builds a read-only SQLite URI. The path is escaped so that
// '?' and '#' are not read as the query or fragment.
func metricsDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file:" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath() + "?mode=ro&_busy_timeout=5000"
}

func loadMetricsSQLite(path string) (*MetricsReport, error) {
	database, err := sql.Open("sqlite3", metricsDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open metrics database: %w", err)
	}
	defer database.Close()

	var (
		report                                  MetricsReport
		rocAUC, fpr, tpr, recall, precision, pr string
	)
	err = database.QueryRow(latestMetricsQuery).Scan(
		&report.Accuracy, &report.ClassificationReport,
		&rocAUC, &fpr, &tpr, &recall, &precision, &pr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("metrics database has no report rows")
	}
	if err != nil {
		return nil, fmt.Errorf("query metrics report: %w", err)
	}

	columns := []struct {
		name string
		raw  string
		dst  interface{}
	}{
		{"roc_auc", rocAUC, &report.ROCAUC},
		{"fpr", fpr, &report.FPR},
		{"tpr", tpr, &report.TPR},
		{"recall", recall, &report.Recall},
		{"precision", precision, &report.Precision},
		{"pr_auc", pr, &report.PRAUC},
	}
	for _, col := range columns {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decode column %s: %w", col.name, err)
		}
	}
	return &report, nil
}

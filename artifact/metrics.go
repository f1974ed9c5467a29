package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// MetricsReport is the evaluation summary produced by training. Every
// per-class slice is indexed by class in label order.
type MetricsReport struct {
	Accuracy             float64     `json:"accuracy"`
	ClassificationReport string      `json:"classification_report"`
	ROCAUC               []float64   `json:"roc_auc"`
	FPR                  [][]float64 `json:"fpr"`
	TPR                  [][]float64 `json:"tpr"`
	Recall               [][]float64 `json:"recall"`
	Precision            [][]float64 `json:"precision"`
	PRAUC                []float64   `json:"pr_auc"`
}

// NumClasses returns the class count the report covers.
func (m *MetricsReport) NumClasses() int {
	return len(m.ROCAUC)
}

// Clone returns a deep copy of the report.
func (m *MetricsReport) Clone() *MetricsReport {
	if m == nil {
		return nil
	}
	c := *m
	c.ROCAUC = cloneFloats(m.ROCAUC)
	c.PRAUC = cloneFloats(m.PRAUC)
	c.FPR = cloneCurves(m.FPR)
	c.TPR = cloneCurves(m.TPR)
	c.Recall = cloneCurves(m.Recall)
	c.Precision = cloneCurves(m.Precision)
	return &c
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneCurves(v [][]float64) [][]float64 {
	if v == nil {
		return nil
	}
	out := make([][]float64, len(v))
	for i, curve := range v {
		out[i] = cloneFloats(curve)
	}
	return out
}

// Validate checks ranges and that all per-class arrays line up with classCount.
func (m *MetricsReport) Validate(classCount int) error {
	if m == nil {
		return errors.New("metrics report is nil")
	}
	if !inUnitInterval(m.Accuracy) {
		return fmt.Errorf("accuracy %v outside [0,1]", m.Accuracy)
	}
	lengths := []struct {
		field string
		n     int
	}{
		{"roc_auc", len(m.ROCAUC)},
		{"fpr", len(m.FPR)},
		{"tpr", len(m.TPR)},
		{"recall", len(m.Recall)},
		{"precision", len(m.Precision)},
		{"pr_auc", len(m.PRAUC)},
	}
	for _, l := range lengths {
		if l.n != classCount {
			return fmt.Errorf("%s has %d entries, expected %d classes", l.field, l.n, classCount)
		}
	}
	for class := 0; class < classCount; class++ {
		if !inUnitInterval(m.ROCAUC[class]) {
			return fmt.Errorf("roc_auc[%d] = %v outside [0,1]", class, m.ROCAUC[class])
		}
		if !inUnitInterval(m.PRAUC[class]) {
			return fmt.Errorf("pr_auc[%d] = %v outside [0,1]", class, m.PRAUC[class])
		}
		if len(m.FPR[class]) != len(m.TPR[class]) {
			return fmt.Errorf("class %d: fpr has %d points, tpr has %d", class, len(m.FPR[class]), len(m.TPR[class]))
		}
		if len(m.Recall[class]) != len(m.Precision[class]) {
			return fmt.Errorf("class %d: recall has %d points, precision has %d", class, len(m.Recall[class]), len(m.Precision[class]))
		}
		for _, curve := range [][]float64{m.FPR[class], m.TPR[class], m.Recall[class], m.Precision[class]} {
			for _, v := range curve {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("class %d: non-finite curve value", class)
				}
			}
		}
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func loadMetrics(path string) (*MetricsReport, error) {
	if isSQLitePath(path) {
		return loadMetricsSQLite(path)
	}
	payload, err := readText(path)
	if err != nil {
		return nil, err
	}
	return decodeMetrics(payload)
}

// metricsFields lists the keys a metrics report must carry. A missing or null
// key would otherwise decode to a zero value.
var metricsFields = []string{"accuracy", "classification_report", "roc_auc", "fpr", "tpr", "recall", "precision", "pr_auc"}

func decodeMetrics(payload []byte) (*MetricsReport, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode metrics report: %w", err)
	}
	for _, field := range metricsFields {
		value, ok := raw[field]
		if !ok || string(value) == "null" {
			return nil, fmt.Errorf("metrics report is missing %s", field)
		}
	}
	var report MetricsReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode metrics report: %w", err)
	}
	return &report, nil
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irisserve/artifact"
	"irisserve/client"
)

func TestPrintMetrics(t *testing.T) {
	var out bytes.Buffer
	printMetrics(&out, &artifact.MetricsReport{
		Accuracy:             0.9667,
		ClassificationReport: "report text",
		ROCAUC:               []float64{1, 0.99, 0.98},
		FPR:                  [][]float64{{0, 1}, {0, 0.5, 1}, {0, 1}},
		TPR:                  [][]float64{{1, 1}, {0, 1, 1}, {1, 1}},
		Recall:               [][]float64{{1, 0}, {1, 0}, {1, 0}},
		Precision:            [][]float64{{1, 1}, {1, 1}, {1, 1}},
		PRAUC:                []float64{1, 0.97, 0.96},
	})

	text := out.String()
	for _, want := range []string{"Accuracy: 0.97", "report text", "Versicolor AUC = 0.99  (3 points)", "Virginica  PR AUC = 0.96"} {
		assert.Contains(t, text, want)
	}
}

func TestPredictRejectsAllZero(t *testing.T) {
	err := run("predict", []string{"-api", "http://127.0.0.1:1"}, &bytes.Buffer{})
	require.ErrorIs(t, err, client.ErrDegenerateInput)
}

func TestUnknownCommand(t *testing.T) {
	assert.Error(t, run("train", nil, &bytes.Buffer{}))
}

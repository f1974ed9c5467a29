package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"irisserve/artifact"
	"irisserve/inference"
	"irisserve/ml"
)

type fixedClassifier struct {
	index int
}

func (f fixedClassifier) Predict(features []float64) (int, error) { return f.index, nil }
func (f fixedClassifier) NumFeatures() int                       { return 4 }

const setosaBody = `{"sepal_length": 5.1, "sepal_width": 3.5, "petal_length": 1.4, "petal_width": 0.2}`

func testReport() *artifact.MetricsReport {
	return &artifact.MetricsReport{
		Accuracy:             0.9667,
		ClassificationReport: "              precision    recall  f1-score   support\n\n    accuracy                           0.97        30\n",
		ROCAUC:               []float64{1, 0.99, 0.99},
		FPR:                  [][]float64{{0, 0, 1}, {0, 0.05, 1}, {0, 0.1, 1}},
		TPR:                  [][]float64{{0, 1, 1}, {0, 0.9, 1}, {0, 0.95, 1}},
		Recall:               [][]float64{{1, 1, 0}, {1, 0.9, 0}, {1, 0.95, 0}},
		Precision:            [][]float64{{0.33, 1, 1}, {0.33, 0.95, 1}, {0.33, 0.9, 1}},
		PRAUC:                []float64{1, 0.97, 0.98},
	}
}

func newTestService(t *testing.T, classifier ml.Classifier, metrics *artifact.MetricsReport) *inference.Service {
	t.Helper()
	if classifier == nil {
		tree, err := ml.NewDecisionTree([]ml.TreeNode{
			{FeatureIdx: 2, Threshold: 2.45, LeftChild: 1, RightChild: 2},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
			{FeatureIdx: 3, Threshold: 1.75, LeftChild: 3, RightChild: 4},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 2, IsLeaf: true},
		})
		require.NoError(t, err)
		classifier = tree
	}
	store, err := artifact.NewStore(classifier, artifact.CanonicalFeatures, metrics, inference.NumClasses)
	require.NoError(t, err)
	svc, err := inference.NewService(store, inference.WithPredictionCache(16))
	require.NoError(t, err)
	return svc
}

func newTestHandler(t *testing.T, classifier ml.Classifier, metrics *artifact.MetricsReport) http.Handler {
	t.Helper()
	return NewHandler(DefaultServerConfig(), newTestService(t, classifier, metrics), nil)
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func TestHandlePredict(t *testing.T) {
	h := newTestHandler(t, nil, testReport())

	cases := []struct {
		path string
		body string
		want string
	}{
		{"/predict", setosaBody, "Setosa"},
		{"/predict/", `{"sepal_length": 6.0, "sepal_width": 2.7, "petal_length": 5.1, "petal_width": 1.6}`, "Versicolor"},
		{"/predict", `{"sepal_length": 6.3, "sepal_width": 3.3, "petal_length": 6.0, "petal_width": 2.5}`, "Virginica"},
		{"/predict", `{"sepal_length": 0, "sepal_width": 0, "petal_length": 0, "petal_width": 0}`, "Setosa"},
		{"/predict", setosaBody + "\n  ", "Setosa"},
	}
	for _, tc := range cases {
		w := doRequest(h, http.MethodPost, tc.path, tc.body)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", tc.body, w.Body.String())

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, tc.want, payload["prediction"], tc.body)
		assert.Len(t, payload, 1)
	}
}

func TestHandlePredictInvalidInput(t *testing.T) {
	h := newTestHandler(t, nil, testReport())

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing field", `{"sepal_length": 5.1, "sepal_width": 3.5, "petal_length": 1.4}`, http.StatusUnprocessableEntity, codeInvalidInput},
		{"null field", `{"sepal_length": null, "sepal_width": 3.5, "petal_length": 1.4, "petal_width": 0.2}`, http.StatusUnprocessableEntity, codeInvalidInput},
		{"overflow to infinity", `{"sepal_length": 1e999, "sepal_width": 3.5, "petal_length": 1.4, "petal_width": 0.2}`, http.StatusUnprocessableEntity, codeInvalidInput},
		{"wrong type", `{"sepal_length": true, "sepal_width": 3.5, "petal_length": 1.4, "petal_width": 0.2}`, http.StatusUnprocessableEntity, codeInvalidInput},
		{"malformed json", `{"sepal_length": `, http.StatusBadRequest, codeBadRequest},
		{"not an object", `[1, 2, 3, 4]`, http.StatusBadRequest, codeBadRequest},
		{"trailing garbage", setosaBody + " garbage", http.StatusBadRequest, codeBadRequest},
		{"second object", setosaBody + setosaBody, http.StatusBadRequest, codeBadRequest},
		{"stray closing brace", setosaBody + "}", http.StatusBadRequest, codeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(h, http.MethodPost, "/predict", tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, tc.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandlePredictTooLarge(t *testing.T) {
	store, err := artifact.NewStore(fixedClassifier{}, artifact.CanonicalFeatures, nil, 3)
	require.NoError(t, err)
	svc, err := inference.NewService(store)
	require.NoError(t, err)
	config := DefaultServerConfig()
	config.MaxBodyBytes = 16
	h := NewHandler(config, svc, nil)

	w := doRequest(h, http.MethodPost, "/predict", setosaBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandlePredictCancelledRequest(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHandlers(mux, &Handlers{svc: newTestService(t, nil, nil), logger: zap.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(setosaBody)).WithContext(ctx)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prediction":"Setosa"}`, w.Body.String())
}

func TestHandlePredictUnknownClassIndex(t *testing.T) {
	h := newTestHandler(t, fixedClassifier{index: 5}, nil)

	w := doRequest(h, http.MethodPost, "/predict", setosaBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, codeInternal, resp.Code)
	assert.NotContains(t, resp.Error, "5", "internal details leaked")
}

func TestHandleMetrics(t *testing.T) {
	h := newTestHandler(t, nil, testReport())

	first := doRequest(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, first.Code)
	second := doRequest(h, http.MethodGet, "/metrics/", "")
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	var report artifact.MetricsReport
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &report))
	assert.Equal(t, testReport().Accuracy, report.Accuracy)
	assert.Len(t, report.ROCAUC, inference.NumClasses)
	assert.Len(t, report.PRAUC, inference.NumClasses)
	for class := range report.FPR {
		assert.Len(t, report.TPR[class], len(report.FPR[class]), "class %d", class)
		assert.Len(t, report.Precision[class], len(report.Recall[class]), "class %d", class)
	}

	// Field order is part of the contract.
	body := first.Body.String()
	last := -1
	for _, key := range []string{`"accuracy"`, `"classification_report"`, `"roc_auc"`, `"fpr"`, `"tpr"`, `"recall"`, `"precision"`, `"pr_auc"`} {
		idx := strings.Index(body, key)
		require.Greater(t, idx, last, "field %s out of order in %s", key, body)
		last = idx
	}
}

func TestHandleMetricsUnavailable(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	for i := 0; i < 2; i++ {
		w := doRequest(h, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, codeMetricsUnavailable, decodeError(t, w).Code)
	}

	w := doRequest(h, http.MethodPost, "/predict", setosaBody)
	assert.Equal(t, http.StatusOK, w.Code, "predict should still work")
}

func TestHandlersNotReady(t *testing.T) {
	svc := inference.Unavailable(&artifact.ArtifactLoadError{Artifact: artifact.KindClassifier, Path: "/secret/model.json", Err: errors.New("corrupt")})
	h := NewHandler(DefaultServerConfig(), svc, nil)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodPost, "/predict", setosaBody},
		{http.MethodGet, "/metrics", ""},
	} {
		w := doRequest(h, req.method, req.path, req.body)
		require.Equal(t, http.StatusServiceUnavailable, w.Code, "%s %s", req.method, req.path)
		resp := decodeError(t, w)
		assert.Equal(t, codeNotReady, resp.Code)
		assert.NotContains(t, resp.Error, "/secret")
	}

	w := doRequest(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandler(t, nil, testReport())

	w := doRequest(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ok","state":"ready","metrics":true}`, strings.TrimSpace(w.Body.String()))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil, testReport())
	w := doRequest(h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, nil, testReport())
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8501", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Chain(RecoveryMiddleware(zap.NewNop()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

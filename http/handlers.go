package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"irisserve/inference"
)

// 错误码
const (
	codeBadRequest         = "bad_request"
	codeInvalidInput       = "invalid_input"
	codePayloadTooLarge    = "payload_too_large"
	codeInternal           = "internal_error"
	codeNotReady           = "not_ready"
	codeMetricsUnavailable = "metrics_unavailable"
)

// Handlers 推理服务处理器
type Handlers struct {
	svc    *inference.Service
	logger *zap.Logger
}

// RegisterHandlers 注册所有处理器
func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.handleHealth)

	// 原仪表盘使用带斜杠的路径
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("POST /predict/{$}", h.handlePredict)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("GET /metrics/{$}", h.handleMetrics)
}

// PredictRequest 预测请求。字段为指针以区分缺失与零值
type PredictRequest struct {
	SepalLength *json.Number `json:"sepal_length"`
	SepalWidth  *json.Number `json:"sepal_width"`
	PetalLength *json.Number `json:"petal_length"`
	PetalWidth  *json.Number `json:"petal_width"`
}

// PredictResponse 预测响应
type PredictResponse struct {
	Prediction inference.ClassLabel `json:"prediction"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Metrics bool   `json:"metrics"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		State:   h.svc.State().String(),
		Metrics: h.svc.HasMetrics(),
	}
	if h.svc.State() != inference.Ready {
		resp.Status = "unavailable"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			zap.L().Warn("failed to encode JSON response", zap.Error(err))
		}
		return
	}
	respondJSON(w, resp)
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		h.writeDecodeError(w, err)
		return
	}
	// 对象之后只允许空白
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		h.writeDecodeError(w, err)
		return
	}
	vector, err := req.FeatureVector()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	label, err := h.svc.Predict(r.Context(), vector)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, PredictResponse{Prediction: label})
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	payload, err := h.svc.MetricsJSON()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("write metrics response", zap.Error(err))
	}
}

// FeatureVector 将请求转换为特征向量。缺失字段视为无效输入
func (req PredictRequest) FeatureVector() (inference.FeatureVector, error) {
	var v inference.FeatureVector
	fields := []struct {
		name string
		raw  *json.Number
		dst  *float64
	}{
		{"sepal_length", req.SepalLength, &v.SepalLength},
		{"sepal_width", req.SepalWidth, &v.SepalWidth},
		{"petal_length", req.PetalLength, &v.PetalLength},
		{"petal_width", req.PetalWidth, &v.PetalWidth},
	}

	for _, f := range fields {
		if f.raw == nil {
			return v, &inference.InvalidInputError{Field: f.name, Reason: "field is required"}
		}
		x, err := strconv.ParseFloat(f.raw.String(), 64)
		// 溢出的数值解析为±Inf，由服务层以非有限值拒绝
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return v, &inference.InvalidInputError{Field: f.name, Reason: fmt.Sprintf("%q is not a number", f.raw.String())}
		}
		*f.dst = x
	}
	return v, nil
}

func (h *Handlers) writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, fmt.Sprintf("invalid value for %s: expected a number", typeErr.Field))
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body must be a JSON object")
	}
}

// writeServiceError 将服务错误映射为HTTP状态。内部错误只记录日志，不向客户端泄露细节
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())
	switch {
	case errors.Is(err, inference.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err.Error())
	case errors.Is(err, inference.ErrNotReady):
		h.logger.Error("request rejected: service not ready", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeNotReady, "service is not ready")
	case errors.Is(err, inference.ErrMetricsUnavailable):
		h.logger.Warn("metrics requested but not loaded", zap.String("request_id", requestID))
		writeError(w, http.StatusServiceUnavailable, codeMetricsUnavailable, "metrics report is not available")
	default:
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		zap.L().Warn("failed to encode JSON response", zap.Error(err))
	}
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON response", zap.Error(err))
	}
}

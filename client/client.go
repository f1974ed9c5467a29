// Package client calls the prediction and metrics endpoints over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"irisserve/artifact"
	"irisserve/inference"
)

// ErrDegenerateInput is returned by ValidateNonDegenerate for an all-zero vector.
var ErrDegenerateInput = errors.New("all feature values are zero")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether the failure was on the server side.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ValidateNonDegenerate rejects a vector whose four values are all zero. The
// server accepts such input; callers that treat it as "not filled in" check
// here before calling Predict.
func ValidateNonDegenerate(v inference.FeatureVector) error {
	if v.IsZero() {
		return ErrDegenerateInput
	}
	return nil
}

// Predict returns the predicted species name.
func (c *Client) Predict(ctx context.Context, v inference.FeatureVector) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var resp struct {
		Prediction string `json:"prediction"`
	}
	if err := c.do(ctx, http.MethodPost, "/predict", payload, &resp); err != nil {
		return "", err
	}
	if resp.Prediction == "" {
		return "", errors.New("api returned empty prediction")
	}
	return resp.Prediction, nil
}

func (c *Client) Metrics(ctx context.Context) (*artifact.MetricsReport, error) {
	var report artifact.MetricsReport
	if err := c.do(ctx, http.MethodGet, "/metrics", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

type Health struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Metrics bool   `json:"metrics"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

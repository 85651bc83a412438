package ratelookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/infrastructure/resilience"
)

const estimatesPath = "/api/v1/search/estimates"

// ProbeResult reports whether the rate API answered a sample estimate request.
type ProbeResult struct {
	Success bool            `json:"success"`
	Status  int             `json:"status,omitempty"`
	Latency string          `json:"latency,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type FreightosClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
	now        func() time.Time
}

func NewFreightosClient(cfg config.FreightosConfig, breaker *resilience.Breaker) *FreightosClient {
	return &FreightosClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		now:        time.Now,
	}
}

type estimateContainer struct {
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

type estimateRequest struct {
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	Containers  []estimateContainer `json:"containers"`
	ReadyBy     string              `json:"readyBy"`
}

// Probe sends a Shanghai to Los Angeles 40ft estimate. Transport failures
// are reported in the result rather than returned.
func (c *FreightosClient) Probe(ctx context.Context) (*ProbeResult, error) {
	if c.apiKey == "" {
		return &ProbeResult{Success: false, Error: "Missing FREIGHTOS_API_KEY in environment variables."}, nil
	}

	body, err := json.Marshal(estimateRequest{
		Origin:      "CNSHA",
		Destination: "USLAX",
		Containers:  []estimateContainer{{Quantity: 1, Type: "40ST"}},
		ReadyBy:     c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate request: %w", err)
	}

	result := &ProbeResult{}
	started := c.now()
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+estimatesPath, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return err
		}

		result.Status = resp.StatusCode
		result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
		if json.Valid(payload) {
			result.Data = payload
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("rate api returned %d", resp.StatusCode)
		}
		return nil
	})
	result.Latency = c.now().Sub(started).String()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}

	return result, nil
}

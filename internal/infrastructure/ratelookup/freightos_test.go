package ratelookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketlive/internal/config"
	"marketlive/internal/infrastructure/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_MissingKey(t *testing.T) {
	c := NewFreightosClient(config.FreightosConfig{BaseURL: "http://unused"}, nil)
	res, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "FREIGHTOS_API_KEY")
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, estimatesPath, r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req estimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CNSHA", req.Origin)
		assert.Equal(t, "USLAX", req.Destination)

		_, _ = w.Write([]byte(`{"estimates":[]}`))
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("freightos"), nil)
	c := NewFreightosClient(config.FreightosConfig{BaseURL: srv.URL, APIKey: "key-1"}, breaker)

	res, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"estimates":[]}`, string(res.Data))
}

func TestProbe_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("freightos"), nil)
	c := NewFreightosClient(config.FreightosConfig{BaseURL: srv.URL, APIKey: "key-1"}, breaker)

	res, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadGateway, res.Status)
	assert.NotEmpty(t, res.Error)
}

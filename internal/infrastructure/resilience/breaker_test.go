package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "marketlive/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_TripsAndRecovers(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		Name:             "stripe",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 2,
	}, nil)
	ctx := context.Background()
	vendorErr := errors.New("502 from vendor")

	calls := 0
	failing := func(context.Context) error { calls++; return vendorErr }

	assert.ErrorIs(t, b.Execute(ctx, failing), vendorErr)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, failing), vendorErr)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Execute(ctx, failing)
	assert.ErrorIs(t, err, appErrors.ErrVendorUnavailable)
	assert.Contains(t, err.Error(), "stripe")
	assert.Equal(t, 2, calls, "open breaker must not call through")

	require.Eventually(t, func() bool { return b.State() == gobreaker.StateHalfOpen }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_PassesContext(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig("docusign"), nil)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	err := b.Execute(ctx, func(got context.Context) error {
		assert.Equal(t, "v", got.Value(key{}))
		return nil
	})
	require.NoError(t, err)
}

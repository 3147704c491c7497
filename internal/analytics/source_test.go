package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sellerstats/internal/analytics"
	"github.com/noah-isme/backend-sellerstats/internal/resilience"
)

func TestGuardedSourceOpensAfterFailures(t *testing.T) {
	source := &staticSource{err: errors.New("db down")}
	guarded := analytics.GuardedSource{
		Source:  source,
		Breaker: resilience.NewBreaker("dataset-test", 2, 0.5, time.Minute),
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := guarded.LoadDataset(ctx)
		require.EqualError(t, err, "db down")
	}
	_, err := guarded.LoadDataset(ctx)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.Equal(t, 2, source.calls)
}

func TestGuardedSourcePassesData(t *testing.T) {
	guarded := analytics.GuardedSource{Source: &staticSource{data: sampleDataset()}}
	data, err := guarded.LoadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Sellers, 1)
}

package analytics

import (
	"context"

	"github.com/noah-isme/backend-sellerstats/internal/resilience"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// GuardedSource fails fast while the underlying store keeps erroring.
type GuardedSource struct {
	Source  DatasetSource
	Breaker *resilience.Breaker
}

// LoadDataset implements DatasetSource.
func (g GuardedSource) LoadDataset(ctx context.Context) (*sellerstats.Dataset, error) {
	if g.Breaker == nil {
		return g.Source.LoadDataset(ctx)
	}
	var data *sellerstats.Dataset
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = g.Source.LoadDataset(ctx)
		return err
	})
	return data, err
}

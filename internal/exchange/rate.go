// Package exchange supplies the USD to VES quote that gets snapshotted onto
// new orders.
package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateProvider yields the current exchange rate as bolívares per US dollar.
type RateProvider interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
}

// staticProvider serves a fixed rate taken from configuration. Deployments
// update it through restarts; orders keep whatever rate they were created
// under.
type staticProvider struct {
	rate decimal.Decimal
}

// NewStaticProvider creates a provider that always returns rate.
func NewStaticProvider(rate decimal.Decimal) (RateProvider, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("exchange rate must be positive, got %s", rate)
	}
	return &staticProvider{rate: rate}, nil
}

func (p *staticProvider) CurrentRate(_ context.Context) (decimal.Decimal, error) {
	return p.rate, nil
}

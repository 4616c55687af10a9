package payments

import (
	"context"
	"fmt"
	"sync/atomic"
)

// FakeGateway issues deterministic order ids without leaving the process.
// Used in development when no provider credentials are configured, and in
// tests.
type FakeGateway struct {
	seq atomic.Int64

	// Err, when set, is returned by every call.
	Err error
}

// NewFakeGateway creates an in-process gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// CreateOrder returns a synthetic order id.
func (g *FakeGateway) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return fmt.Sprintf("order_fake_%06d", g.seq.Add(1)), nil
}

var _ Gateway = (*FakeGateway)(nil)

package charge

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitcharge/internal/models"
)

// Dispatcher hands every charge of an allocated receipt to a sink.
type Dispatcher struct {
	sink        Sink
	concurrency int
	metrics     *Metrics
}

// NewDispatcher creates a dispatcher. With concurrency <= 1 charges are sent
// one at a time in receipt order; otherwise up to concurrency charges are in
// flight and completion order is unspecified. metrics may be nil.
func NewDispatcher(sink Sink, concurrency int, metrics *Metrics) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{sink: sink, concurrency: concurrency, metrics: metrics}
}

// Dispatch sends every charge of allocated and returns how many succeeded.
// The first failure stops charges that have not started yet.
func (d *Dispatcher) Dispatch(ctx context.Context, allocated *models.Receipt) (int, error) {
	charges, err := FromReceipt(allocated)
	if err != nil {
		return 0, err
	}

	if d.concurrency == 1 {
		for i, c := range charges {
			if err := ctx.Err(); err != nil {
				return i, err
			}
			if err := d.send(ctx, c); err != nil {
				return i, err
			}
		}
		return len(charges), nil
	}

	results := make([]bool, len(charges))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, c := range charges {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := d.send(gCtx, c); err != nil {
				return err
			}
			results[i] = true
			return nil
		})
	}
	err = g.Wait()

	sent := 0
	for _, ok := range results {
		if ok {
			sent++
		}
	}
	return sent, err
}

func (d *Dispatcher) send(ctx context.Context, c Charge) error {
	err := d.sink.Charge(ctx, c)
	d.metrics.observe(c, err)
	if err != nil {
		slog.Error("Charge failed", "handle", c.Handle, "amount", c.Amount.StringFixed(2), "error", err)
		return fmt.Errorf("failed to charge %s: %w", c.Handle, err)
	}
	return nil
}

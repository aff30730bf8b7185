package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmynk/splitcharge/internal/calculator"
	"github.com/mmynk/splitcharge/internal/charge"
	"github.com/mmynk/splitcharge/internal/models"
	"github.com/mmynk/splitcharge/internal/receiptfile"
	"github.com/mmynk/splitcharge/internal/render"
	"github.com/mmynk/splitcharge/internal/storage"
)

// ChargeOptions controls a single charge run.
type ChargeOptions struct {
	Allocation   calculator.Options
	PrintReceipt bool // Print the input receipt before allocating
	Concurrency  int
}

// ChargeResult reports what a charge run did.
type ChargeResult struct {
	Input     *models.Receipt
	Allocated *models.Receipt
	Summary   *calculator.Summary
	Submitted int
}

// ChargeService turns receipt files into charges.
type ChargeService struct {
	aliases storage.AliasStore
	sink    charge.Sink
	out     io.Writer
	metrics *charge.Metrics
}

// NewChargeService creates a ChargeService. aliases and metrics may be nil;
// tables are written to out.
func NewChargeService(aliases storage.AliasStore, sink charge.Sink, out io.Writer, metrics *charge.Metrics) *ChargeService {
	return &ChargeService{aliases: aliases, sink: sink, out: out, metrics: metrics}
}

// ChargeFile loads the receipt at path, using the alias book as default
// aliases, and charges it.
func (s *ChargeService) ChargeFile(ctx context.Context, path string, opts ChargeOptions) (*ChargeResult, error) {
	var defaults map[string]string
	if s.aliases != nil {
		table, err := s.aliases.AliasTable(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read alias book: %w", err)
		}
		defaults = table
	}

	receipt, err := receiptfile.Load(path, defaults)
	if err != nil {
		return nil, err
	}
	slog.Debug("Receipt loaded", "path", path, "receipt", receipt.Name, "items", len(receipt.Items))

	return s.ChargeReceipt(ctx, receipt, opts)
}

// ChargeReceipt allocates receipt and dispatches the resulting charges.
// Nothing is dispatched unless allocation succeeds.
func (s *ChargeService) ChargeReceipt(ctx context.Context, receipt *models.Receipt, opts ChargeOptions) (*ChargeResult, error) {
	if opts.PrintReceipt {
		if err := render.Receipt(s.out, receipt); err != nil {
			return nil, fmt.Errorf("failed to print receipt: %w", err)
		}
	}

	allocated, err := calculator.BatchReceipt(receipt, opts.Allocation)
	if err != nil {
		slog.Error("Allocation failed", "receipt", receipt.Name, "error", err)
		return nil, err
	}

	summary, err := calculator.Summarize(allocated)
	if err != nil {
		return nil, err
	}
	slog.Info("Receipt allocated",
		"receipt", receipt.Name,
		"charges", len(allocated.Items),
		"charged", summary.Charged.StringFixed(2),
		"residual", summary.Residual.StringFixed(2),
	)

	if err := render.Receipt(s.out, allocated); err != nil {
		return nil, fmt.Errorf("failed to print allocation: %w", err)
	}
	render.Summary(s.out, summary)

	result := &ChargeResult{Input: receipt, Allocated: allocated, Summary: summary}

	dispatcher := charge.NewDispatcher(s.sink, opts.Concurrency, s.metrics)
	result.Submitted, err = dispatcher.Dispatch(ctx, allocated)
	if err != nil {
		return result, err
	}

	slog.Info("Charges submitted", "receipt", receipt.Name, "count", result.Submitted)
	return result, nil
}

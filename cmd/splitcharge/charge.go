package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmynk/splitcharge/internal/auth"
	"github.com/mmynk/splitcharge/internal/calculator"
	"github.com/mmynk/splitcharge/internal/charge"
	"github.com/mmynk/splitcharge/internal/config"
	"github.com/mmynk/splitcharge/internal/service"
	"github.com/mmynk/splitcharge/internal/storage"
)

const (
	tokenDuration = 5 * time.Minute
	retryDelay    = time.Second
)

func newChargeCmd(a *app) *cobra.Command {
	var (
		execute      bool
		printReceipt bool
	)

	cmd := &cobra.Command{
		Use:   "charge RECEIPT_FILE",
		Short: "Allocate a receipt and send one charge per participant bundle",
		Long: `Allocate a receipt and send one charge per participant bundle.

Without --execute the charges are only printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.charge(cmd, expandHome(args[0]), execute, printReceipt)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&execute, "execute", false, "submit charges to the payment gateway instead of printing them")
	flags.BoolVar(&printReceipt, "print-receipt", true, "print the input receipt before allocating")
	flags.Bool("itemized", true, "list every item in the charge notes")
	flags.Bool("strict", false, "fail when a single item line cannot fit in a note")
	flags.Int("max-note-length", calculator.DefaultMaxNoteLength, "maximum characters per charge note")
	flags.Int("concurrency", config.DefaultConcurrency, "charges submitted in parallel")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func (a *app) charge(cmd *cobra.Command, path string, execute, printReceipt bool) error {
	cfg := a.cfg

	sink, err := a.newSink(cmd, execute)
	if err != nil {
		return err
	}

	book, err := a.openAliasBook(false)
	if err != nil {
		return fmt.Errorf("failed to open alias book: %w", err)
	}
	var aliases storage.AliasStore
	if book != nil {
		defer book.Close()
		aliases = book
	}

	reg := prometheus.NewRegistry()
	svc := service.NewChargeService(aliases, sink, cmd.OutOrStdout(), charge.NewMetrics(reg))

	_, err = svc.ChargeFile(cmd.Context(), path, service.ChargeOptions{
		Allocation: calculator.Options{
			Itemized:      cfg.Itemized,
			MaxNoteLength: cfg.MaxNoteLength,
			Strict:        cfg.StrictNotes,
		},
		PrintReceipt: printReceipt,
		Concurrency:  cfg.Concurrency,
	})

	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(expandHome(cfg.MetricsFile), reg); werr != nil {
			slog.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}

	return err
}

func (a *app) newSink(cmd *cobra.Command, execute bool) (charge.Sink, error) {
	if !execute {
		return charge.NewDryRunSink(cmd.OutOrStdout()), nil
	}

	cfg := a.cfg
	if err := cfg.RequireGateway(); err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenSource(cfg.Gateway.Secret, cfg.Gateway.Payer, tokenDuration)
	if err != nil {
		return nil, err
	}

	slog.Info("Submitting charges to gateway", "url", cfg.Gateway.URL, "payer", cfg.Gateway.Payer)
	return charge.NewGatewaySink(charge.GatewayConfig{
		URL:           cfg.Gateway.URL,
		Timeout:       cfg.Gateway.Timeout,
		RetryAttempts: cfg.Gateway.RetryAttempts,
		RetryDelay:    retryDelay,
	}, tokens), nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcharge/internal/config"
)

func TestMain(m *testing.M) {
	color.Disable()
	os.Exit(m.Run())
}

// run executes the CLI with a throwaway home and working directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeReceipt(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dinner.json")
	body := `{
	  "name": "Dinner",
	  "date": "2024-03-09",
	  "total": 110,
	  "items": [["Pizza", ["Al", "bob"], 50], ["Soda", ["everyone"], 50]]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestChargeDryRun(t *testing.T) {
	home := isolate(t)

	out, err := run(t, "charge", writeReceipt(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Charging Al $55.00")
	assert.Contains(t, out, "Charging bob $55.00")
	assert.Contains(t, out, "$27.50: Everyone split")

	_, statErr := os.Stat(filepath.Join(home, ".config", "splitcharge", "aliases.db"))
	assert.True(t, os.IsNotExist(statErr), "a dry run must not create the alias book")
}

func TestChargeUsesAliasBook(t *testing.T) {
	isolate(t)

	out, err := run(t, "alias", "set", "Al", "alice-h")
	require.NoError(t, err)
	assert.Contains(t, out, "Al -> alice-h")

	out, err = run(t, "alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice-h")

	out, err = run(t, "charge", "--itemized=false", "--print-receipt=false", writeReceipt(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Charging alice-h $55.00:\nDinner\n")

	_, err = run(t, "alias", "rm", "Al")
	require.NoError(t, err)
}

func TestChargeExecuteRequiresGateway(t *testing.T) {
	isolate(t)

	_, err := run(t, "charge", "--execute", writeReceipt(t))
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestChargeRejectsInvalidFlags(t *testing.T) {
	isolate(t)

	_, err := run(t, "charge", "--concurrency=100", writeReceipt(t))
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestChargeWritesMetricsFile(t *testing.T) {
	isolate(t)
	metrics := filepath.Join(t.TempDir(), "splitcharge.prom")

	_, err := run(t, "charge", "--metrics-file", metrics, writeReceipt(t))
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `splitcharge_charges_total{result="submitted"} 2`)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/pat")

	assert.Equal(t, "/home/pat", expandHome("~"))
	assert.Equal(t, "/home/pat/receipts/a.json", expandHome("~/receipts/a.json"))
	assert.Equal(t, "~pat/a.json", expandHome("~pat/a.json"))
	assert.Equal(t, "rel/a.json", expandHome("rel/a.json"))
}

// Command splitcharge allocates a shared receipt across the people on it and
// requests one payment per person, bundling items to fit the note limit.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmynk/splitcharge/internal/config"
	"github.com/mmynk/splitcharge/internal/storage/sqlite"
	"github.com/mmynk/splitcharge/pkg/logging"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("splitcharge failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "splitcharge",
		Short:         "Split a receipt and request payment from everyone on it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./splitcharge.yaml or ~/.config/splitcharge/splitcharge.yaml)")
	flags.String("log-level", config.DefaultLogLevel, "debug, info, warn or error")
	flags.String("alias-db", config.DefaultAliasDB, "path to the alias book database")

	root.AddCommand(newChargeCmd(a), newAliasCmd(a))
	return root
}

// flagKeys maps CLI flags to config keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"alias-db":        "alias_db",
	"itemized":        "itemized",
	"strict":          "strict_notes",
	"max-note-length": "max_note_length",
	"concurrency":     "concurrency",
	"metrics-file":    "metrics_file",
}

// load binds the flags the running command knows about and reads the config.
func (a *app) load(cmd *cobra.Command) error {
	a.v = config.New(expandHome(a.configFile))
	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := a.v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	slog.Debug("Configuration loaded", "config_file", a.v.ConfigFileUsed())
	return nil
}

// openAliasBook opens the alias book. Unless create is set, a missing
// database yields a nil store rather than an empty file on disk.
func (a *app) openAliasBook(create bool) (*sqlite.SQLiteStore, error) {
	path := expandHome(a.cfg.AliasDB)
	if path == "" {
		return nil, nil
	}
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Debug("No alias book", "path", path)
			return nil, nil
		}
	}
	return sqlite.New(path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

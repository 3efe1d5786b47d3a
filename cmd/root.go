package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/facebridge/internal/config"
	"github.com/andresmejia3/facebridge/internal/store"
	"github.com/andresmejia3/facebridge/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// Cfg is the environment configuration, after flag overrides
	Cfg *config.Config
	// Prefs is the durable preference store shared by subcommands
	Prefs store.Preferences
	// Log is the structured logger handed to the bridge and transports
	Log *slog.Logger

	prefsBackend string
	prefsPath    string
	dbURL        string
	logLevel     string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "facebridge",
	Short:   "Host bridge for web-based face capture and matching",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)

		Log = utils.NewLogger(os.Stderr, Cfg.Log.Level, Cfg.Log.Format)
		slog.SetDefault(Log)

		if cmd == versionCmd {
			return nil
		}

		// Use the command's context (which will be cancellable) for the connection
		Prefs, err = store.Open(cmd.Context(), Cfg.Prefs.Backend, Cfg.Prefs.Path, Cfg.Prefs.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open preferences (%s): %w", Cfg.Prefs.Backend, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Prefs != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			Prefs.Close(context.Background())
		}
	},
}

// applyFlagOverrides lets explicit flags win over the environment.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("prefs-backend") {
		Cfg.Prefs.Backend = prefsBackend
	}
	if flags.Changed("prefs-path") {
		Cfg.Prefs.Path = prefsPath
	}
	if flags.Changed("db") {
		Cfg.Prefs.DatabaseURL = dbURL
		if !flags.Changed("prefs-backend") {
			Cfg.Prefs.Backend = store.BackendPostgres
		}
	}
	if flags.Changed("log-level") {
		Cfg.Log.Level = logLevel
	}
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&prefsBackend, "prefs-backend", "", "Preference store: file, postgres or memory (default: $PREFS_BACKEND or file)")
	pf.StringVar(&prefsPath, "prefs-path", "", "YAML file for the file preference store")
	pf.StringVar(&dbURL, "db", "", "PostgreSQL connection string (implies --prefs-backend=postgres)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"physioeval/internal/config"
	"physioeval/internal/logging"
	"physioeval/internal/repository/sqlite"
	"physioeval/internal/service"
)

// app holds everything a command needs once the root command has loaded
// configuration and opened the database.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger

	conn        *sqlite.Conn
	bus         *service.EventBus
	evaluations *service.EvaluationService
	exchange    *service.ExchangeService
	users       *sqlite.UserStore
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around a. Post-run hooks do not run
// when a command fails, so the caller must close a afterwards.
func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		dbPath     string
		logLevel   string
		logFormat  string
	)

	rootCmd := &cobra.Command{
		Use:           "physioeval",
		Short:         "Physiotherapy evaluation store",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			a.cfg = cfg
			a.cfgPath = path
			a.log = logging.New(cfg.Log, cmd.ErrOrStderr())
			if path != "" {
				a.log.Debug().Str("path", path).Msg("config loaded")
			}

			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", XDG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console, json")

	rootCmd.AddCommand(initCmd(a))
	rootCmd.AddCommand(configCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(saveCmd(a))
	rootCmd.AddCommand(updateCmd(a))
	rootCmd.AddCommand(deleteCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(importCmd(a))
	rootCmd.AddCommand(watchCmd(a))
	rootCmd.AddCommand(userCmd(a))

	return rootCmd
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		resolved, err := config.ResolvePath(path)
		if err != nil {
			return nil, path, err
		}
		return config.LoadFromPath(resolved)
	}
	return config.Load()
}

// open connects to the database, makes sure the schema exists and builds
// the services.
func (a *app) open(ctx context.Context) error {
	conn, err := sqlite.Open(a.cfg.Database.Path, sqlite.Options{
		CacheSizeKB: a.cfg.Database.CacheSizeKB,
		BusyTimeout: a.cfg.Database.BusyTimeout.Duration(),
	}, a.log)
	if err != nil {
		return err
	}

	if err := conn.EnsureSchema(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := conn.EnsureIndexes(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	a.conn = conn
	a.bus = service.NewEventBus()
	a.evaluations = service.NewEvaluationService(sqlite.New(conn, a.log), a.bus, a.log)
	a.exchange = service.NewExchangeService(a.evaluations, a.bus, a.log)
	a.users = sqlite.NewUserStore(conn, 0, a.log)
	return nil
}

func (a *app) close() error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

func initCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and optionally a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			writeConfig, _ := cmd.Flags().GetString("write-config")
			if writeConfig != "" {
				if err := a.cfg.Save(writeConfig); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", writeConfig)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s (%d tables)\n",
				a.cfg.Database.Path, len(sqlite.AggregateTables())+1)
			return nil
		},
	}
	cmd.Flags().String("write-config", "", "Also write the effective config to this path")
	return cmd
}

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfgPath != "" {
				fmt.Fprintf(out, "Config file: %s\n", a.cfgPath)
			} else {
				fmt.Fprintf(out, "Config file: none (defaults; create one at %s)\n", config.DefaultConfigPath())
				fmt.Fprintln(out, "Searched:")
				for _, p := range config.SearchPaths() {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}
			fmt.Fprintln(out, a.cfg.Summary())
			return nil
		},
	}
}

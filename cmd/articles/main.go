// Command articles runs the article store server and its two front-ends:
// a full-screen terminal UI and a line-oriented console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/client"
	"github.com/irfansharif/articles/pkg/config"
	"github.com/irfansharif/articles/pkg/console"
	"github.com/irfansharif/articles/pkg/logger"
	"github.com/irfansharif/articles/pkg/server"
	"github.com/irfansharif/articles/pkg/storage"
	"github.com/irfansharif/articles/pkg/tui"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		endpoint   string
	)

	load := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		if endpoint != "" {
			cfg.Endpoint = endpoint
		}
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("%w (in %s)", err, configPathOrDefault(configPath))
		}
		return cfg, nil
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit articles in a terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	cmd := &cobra.Command{
		Use:           "articles",
		Short:         "A small article store with terminal front-ends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          tuiCmd.RunE,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.articles/articles.toml)")
	cmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "server base URL, overrides the config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the article store HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	})

	cmd.AddCommand(tuiCmd)

	var noPrompt bool
	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Edit articles with line commands read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runConsole(cmd.Context(), cfg, noPrompt)
		},
	}
	consoleCmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "do not print a prompt (for scripted input)")
	cmd.AddCommand(consoleCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "articles %s\n", Version)
		},
	})

	return cmd
}

func configPathOrDefault(p string) string {
	if p == "" {
		return config.Path()
	}
	return p
}

func runServer(ctx context.Context, cfg config.Config) error {
	paths := []string{"stdout"}
	if cfg.Log.File != "" {
		paths = append(paths, cfg.Log.File)
	}
	log, err := logger.New(cfg.Log.Level, paths...)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Server.Driver, cfg.Server.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("Opened article store", zap.String("driver", cfg.Server.Driver))

	return server.New(cfg.Server.Addr, store, log).Run(ctx)
}

// frontendLogger logs to the configured file only; the terminal belongs to
// the front-end.
func frontendLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), nil
	}
	return logger.New(cfg.Log.Level, cfg.Log.File)
}

func runTUI(ctx context.Context, cfg config.Config) error {
	log, err := frontendLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	api := client.New(cfg.Endpoint, client.WithLogger(log))
	model := tui.New(ctx, api, log, cfg.StatusDuration())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func runConsole(ctx context.Context, cfg config.Config, noPrompt bool) error {
	log, err := frontendLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var opts []console.Option
	if noPrompt {
		opts = append(opts, console.WithoutPrompt())
	}
	api := client.New(cfg.Endpoint, client.WithLogger(log))
	c := console.New(api, os.Stdout, log, opts...)
	// A failed initial load is reported and the console stays usable for
	// reload.
	_ = c.Load(ctx)
	return c.Run(ctx, os.Stdin)
}

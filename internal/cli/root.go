package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beamdeck/internal/backend"
	"beamdeck/internal/config"
	"beamdeck/internal/logging"
	"beamdeck/internal/mission"
	"beamdeck/internal/observability"
	"beamdeck/internal/present"
	"beamdeck/internal/transport"
	"beamdeck/internal/tui"
	"beamdeck/internal/version"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath string
	APIURL     string
	LogLevel   string
}

// NewRootCmd constructs the base CLI command tree. Without a subcommand it
// opens the interactive mission deck.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "beamdeck",
		Short:         "Beamdeck – terminal mission control for the Beam.me agent swarm",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ./beamdeck.yaml or ./configs/beamdeck.yaml)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "Mission backend base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(NewHistoryCmd(opts))
	cmd.AddCommand(NewAgentsCmd(opts))
	cmd.AddCommand(NewRunCmd(opts))
	cmd.AddCommand(NewDoctorCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, config.Overrides{APIURL: opts.APIURL, LogLevel: opts.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// app is the wired client stack shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	backend *backend.Client
	ctrl    *mission.Controller
}

func newApp(opts *Options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics := observability.NewMetrics()

	tc := transport.New(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithMetrics(metrics),
		transport.WithLogger(logger),
	)
	bc := backend.New(tc)
	ctrl := mission.NewController(bc, present.NewAdapter(cfg.Source.BaseURL),
		mission.WithLogger(logger),
		mission.WithMetrics(metrics),
	)
	logger.Debug("client stack ready",
		zap.String("api", tc.BaseURL()),
		zap.String("session", tc.SessionID()),
		zap.Duration("timeout", cfg.API.Timeout),
	)
	return &app{cfg: cfg, logger: logger, metrics: metrics, backend: bc, ctrl: ctrl}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// serveMetrics starts the Prometheus listener when an address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		a.logger.Info("metrics listener starting", zap.String("addr", addr))
		if err := a.metrics.Serve(ctx, addr); err != nil {
			a.logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}

func runTUI(ctx context.Context, opts *Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.serveMetrics(ctx)

	a.logger.Info("starting mission deck", zap.String("version", version.Full()), zap.String("api", a.cfg.API.BaseURL))
	err = tui.Run(ctx, a.ctrl, tui.Options{
		Launcher:   a.cfg.UI.Launcher,
		AltScreen:  a.cfg.UI.AltScreen,
		BackendURL: a.cfg.API.BaseURL,
		Logger:     a.logger,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

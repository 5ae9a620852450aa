package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sonath21/spotify-controls/internal/config"
	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/Sonath21/spotify-controls/internal/indicator"
	"github.com/Sonath21/spotify-controls/internal/mpris"
	"github.com/Sonath21/spotify-controls/internal/presenter"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the now-playing indicator",
	Long: `Watch the configured player on the session bus and render its state to
the terminal. Transport commands can be typed on stdin: next, prev,
toggle.`,
	RunE: runDaemon,
}

// AppOptions is the daemon's dependency graph, kept as a variable so tests
// can check it with fx.ValidateApp.
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newLogger,
		loadConfig,
		newBusClient,
		newWatcher,
		newFetcher,
		newSubscriber,
		newDispatcher,
		newIndicator,
		newPresenter,
		newCommandReader,
	),

	fx.Invoke(registerHooks),
)

func runDaemon(cmd *cobra.Command, args []string) error {
	app := fx.New(AppOptions)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return app.Stop(context.Background())
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration loaded",
		zap.String("busName", cfg.Player.BusName),
		zap.Int("metadataAttempts", cfg.Metadata.FetchAttempts),
		zap.Duration("metadataRetryDelay", cfg.MetadataRetryDelay()))
	return cfg, nil
}

func newBusClient(lc fx.Lifecycle, logger *zap.Logger) (mpris.BusClient, error) {
	client, err := mpris.NewStdBusClient()
	if err != nil {
		return nil, fmt.Errorf("session bus connection failed: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close bus connection", zap.Error(err))
			}
			return nil
		},
	})
	return client, nil
}

func newWatcher(logger *zap.Logger, client mpris.BusClient, cfg *config.Config) domain.Watcher {
	return mpris.NewNameWatcher(logger, client, cfg.Player.BusName)
}

func newFetcher(logger *zap.Logger, client mpris.BusClient, cfg *config.Config) domain.Fetcher {
	return mpris.NewPropertyFetcher(logger, client, cfg.Player.BusName)
}

func newSubscriber(logger *zap.Logger, client mpris.BusClient, cfg *config.Config) domain.Subscriber {
	return mpris.NewChangeSubscriber(logger, client, cfg.Player.BusName)
}

func newDispatcher(logger *zap.Logger, client mpris.BusClient, cfg *config.Config) domain.Dispatcher {
	return mpris.NewCommandDispatcher(logger, client, cfg.Player.BusName)
}

func newIndicator(logger *zap.Logger, w domain.Watcher, f domain.Fetcher, s domain.Subscriber, cfg *config.Config) *indicator.Indicator {
	return indicator.New(logger, w, f, s, indicator.Options{
		MetadataAttempts:   cfg.Metadata.FetchAttempts,
		MetadataRetryDelay: cfg.MetadataRetryDelay(),
	})
}

func newPresenter(logger *zap.Logger, cfg *config.Config) *presenter.Terminal {
	return presenter.NewTerminal(logger, os.Stdout, cfg.RenderDebounce())
}

func newCommandReader(logger *zap.Logger, dispatcher domain.Dispatcher) *presenter.CommandReader {
	return presenter.NewCommandReader(logger, os.Stdin, dispatcher)
}

func registerHooks(lc fx.Lifecycle, logger *zap.Logger, ind *indicator.Indicator, term *presenter.Terminal, reader *presenter.CommandReader) {
	runCtx, cancelRun := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ind.Start(ctx); err != nil {
				cancelRun()
				return err
			}
			go term.Run(runCtx, ind.Snapshots())
			go reader.Run(runCtx)
			logger.Info("spotify-controls daemon started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelRun()
			ind.Stop()
			logger.Info("Shutting down")
			return nil
		},
	})
}

// Command goalbot polls a live-football feed and pushes goal alerts and
// kickoff reminders to subscribers.
//
// Usage:
//
//	goalbot serve
//	goalbot once --subscribe
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/goal-alerts/internal/app"
	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/observability"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "goalbot",
		Short:         "Live football goal alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(onceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "goalbot:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poller, the HTTP API and the Discord bot until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
				a, err := app.New(cfg, logger)
				if err != nil {
					return err
				}
				defer func() {
					if err := a.Close(); err != nil {
						logger.Warn("close app failed", "error", err)
					}
				}()

				p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
				p.Go(a.Run)
				p.Go(func(ctx context.Context) error {
					return observability.ServePprof(ctx, observability.NewPprofServer(cfg), logger)
				})
				return p.Wait()
			})
		},
	}
}

func onceCmd() *cobra.Command {
	var subscribe bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and print what the front-ends would show",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
				a, err := app.New(cfg, logger, app.WithoutChat())
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				alerts := a.Alerts()
				if subscribe {
					for _, tier := range []subscriber.Tier{subscriber.TierReminder, subscriber.TierLive} {
						if err := alerts.Subscribe(ctx, "console", tier); err != nil {
							return err
						}
					}
				}

				result := a.Poller().Cycle(ctx)
				logger.InfoContext(ctx, "cycle finished",
					"cycle_id", result.ID,
					"goals", result.Goals,
					"fixtures", result.Fixtures,
					"reminders", result.Reminders,
					"duration", result.Duration,
				)

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, alerts.ListLiveNow(ctx))
				fmt.Fprintln(out)
				fmt.Fprintln(out, alerts.ListUpcoming(ctx))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&subscribe, "subscribe", false, "Subscribe a console recipient so alerts from this cycle are logged")
	return cmd
}

// withRuntime loads config, sets up logging and telemetry, and runs fn under
// a context cancelled by SIGINT/SIGTERM.
func withRuntime(parent context.Context, fn func(context.Context, config.Config, *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, shutdownLogs, err := observability.InitBetterStackLogger(cfg, logging.NewJSON(cfg.LogLevel))
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope failed", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("shutdown uptrace failed", "error", err)
		}
		if err := shutdownLogs(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown logger:", err)
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("goalbot starting",
		"env", cfg.AppEnv,
		"version", cfg.ServiceVersion,
		"provider", cfg.Provider.Name,
		"discord", cfg.Discord.Enabled,
	)
	return fn(ctx, cfg, logger)
}

// Package cli is the command-line surface: it translates cobra commands into
// engine invocations and owns process wiring.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"statusloop/internal/config"
	"statusloop/internal/interval"
	"statusloop/internal/logging"
	"statusloop/internal/reconcile"
	"statusloop/internal/schedule"
	"statusloop/internal/secret"
	"statusloop/internal/slack"
	"statusloop/internal/web"
)

var (
	cfgPath   string
	envFile   string
	verbosity int
)

// NewRootCmd creates the root CLI command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statusloop",
		Short: "Keeps a Slack status and DND snooze in sync with a TOML schedule",
		Long:  "statusloop expands a declarative schedule of recurring time windows and reconciles the active window against the remote Slack status each tick.",
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "schedule file path (overrides STATUSLOOP_SCHEDULE)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading configuration")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, up to -vvv)")

	cmd.AddCommand(
		newDaemonCmd(),
		newServeCmd(),
		newStatusCmd(),
		newApplyCmd(),
		newCheckCmd(),
		newShellCmd(),
	)

	return cmd
}

func loadOptions() (*config.Options, zerolog.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("load env file: %w", err)
		}
	} else {
		// Best effort: a .env next to the process is picked up when present.
		_ = godotenv.Load()
	}

	opts, err := config.LoadOptions()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if cfgPath != "" {
		opts.SchedulePath = cfgPath
	}

	logger := logging.Setup(verbosity)
	return opts, logger, nil
}

// buildEngine wires the full pipeline including the Slack client. Secret
// loading failure is fatal here: there is no degraded mode without a token.
func buildEngine(opts *config.Options, logger zerolog.Logger) (*reconcile.Engine, error) {
	token, err := secret.NewDir(opts.SecretsDir).Load("slack_token")
	if err != nil {
		return nil, err
	}
	client := slack.New(token, "", logger)
	return reconcile.New(config.NewFileSource(opts.SchedulePath), client, opts, nil, logger)
}

// buildPreviewEngine wires an engine with no remote collaborator, for
// commands that only resolve the schedule locally.
func buildPreviewEngine(opts *config.Options, logger zerolog.Logger) (*reconcile.Engine, error) {
	return reconcile.New(config.NewFileSource(opts.SchedulePath), nil, opts, nil, logger)
}

func newDaemonCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the reconciliation loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := loadOptions()
			if err != nil {
				return err
			}
			engine, err := buildEngine(opts, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := reconcile.NewRunner(engine)
			loop := &interval.Loop{
				IntervalSeconds: opts.IntervalSeconds,
				Cycle:           runner.Cycle,
				Strict:          strict,
				Logger:          logger,
			}
			logger.Info().Int("interval_s", opts.IntervalSeconds).Str("schedule", opts.SchedulePath).Msg("statusloop daemon started")
			loop.Start(ctx)

			<-ctx.Done()
			loop.Stop()
			logger.Info().Msg("statusloop daemon stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "re-raise panics from a cycle instead of logging them")
	return cmd
}

func newServeCmd() *cobra.Command {
	var strict bool
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation loop plus the snapshot HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := loadOptions()
			if err != nil {
				return err
			}
			if addr != "" {
				opts.HTTPAddr = addr
			}
			engine, err := buildEngine(opts, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := reconcile.NewRunner(engine)
			loop := &interval.Loop{
				IntervalSeconds: opts.IntervalSeconds,
				Cycle:           runner.Cycle,
				Strict:          strict,
				Logger:          logger,
			}
			loop.Start(ctx)
			defer loop.Stop()

			srv := web.New(runner, opts.HTTPAddr, logger)
			logger.Info().Str("addr", opts.HTTPAddr).Msg("snapshot API listening")

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "bind address for the snapshot API (overrides STATUSLOOP_HTTP_ADDR)")
	cmd.Flags().BoolVar(&strict, "strict", false, "re-raise panics from a cycle instead of logging them")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Resolve the schedule for now and print the result, without remote calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := loadOptions()
			if err != nil {
				return err
			}
			engine, err := buildPreviewEngine(opts, logger)
			if err != nil {
				return err
			}

			outcome, err := engine.Preview(reconcile.NewState())
			if err != nil {
				return err
			}

			view := map[string]any{}
			if outcome.Resolved.Active() {
				view["active"] = map[string]any{
					"id":           outcome.Resolved.ID,
					"icon":         outcome.Resolved.Icon,
					"message":      outcome.Resolved.Message,
					"doNotDisturb": outcome.Resolved.DoNotDisturb,
					"until":        outcome.Resolved.End.Format(time.RFC3339),
				}
			}
			if outcome.Next != nil {
				view["next"] = map[string]any{
					"id":    outcome.Next.ID,
					"start": outcome.Next.Start.Format(time.RFC3339),
					"in":    outcome.Until.String(),
				}
			}

			out, _ := json.MarshalIndent(view, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Run a single reconciliation cycle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := loadOptions()
			if err != nil {
				return err
			}
			engine, err := buildEngine(opts, logger)
			if err != nil {
				return err
			}

			outcome, err := engine.RunCycle(cmd.Context(), reconcile.NewState())
			if err != nil {
				return err
			}
			fmt.Printf("cycle finished: %s\n", outcome.Action)
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Parse and validate the schedule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := loadOptions()
			if err != nil {
				return err
			}
			table, err := config.Weekdays(opts.Locale)
			if err != nil {
				return err
			}

			raw, err := config.NewFileSource(opts.SchedulePath).ReadScheduleText()
			if err != nil {
				return err
			}
			file, err := config.Parse(raw)
			if err != nil {
				return err
			}
			entries := schedule.BuildEntries(file, table, logger)

			fmt.Printf("%s: %d of %d entries valid\n", opts.SchedulePath, len(entries), len(file.Entries))
			if len(entries) < len(file.Entries) {
				return fmt.Errorf("%d invalid entries (see warnings above)", len(file.Entries)-len(entries))
			}
			return nil
		},
	}
}

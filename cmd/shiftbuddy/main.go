package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"shiftbuddy/internal/bootstrap"
	journeydto "shiftbuddy/internal/modules/journey/dto"
	"shiftbuddy/internal/platform/config"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/platform/logging"
)

func main() {
	if _, err := config.LoadDotEnv(config.DotEnvFiles...); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	dataDir  string
	apiURL   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "shiftbuddy",
		Short:         "Track slot journeys from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", ".", "directory holding shiftbuddy.yaml, state and receipts")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "slot-track API base url (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "trace|debug|info|warn|error (overrides config)")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newJourneyCmd(opts))
	return root
}

func loadConfig(opts *globalOptions) (config.Config, error) {
	cfg, err := config.Load(opts.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func loadApp(opts *globalOptions, logOut io.Writer) (*bootstrap.App, config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, config.Config{}, err
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: logOut, JSON: cfg.LogJSON})
	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return nil, config.Config{}, err
	}
	return app, cfg, nil
}

func newTUICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the shiftbuddy terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			// The alt screen owns the terminal; log lines would tear it.
			app, _, err := loadApp(opts, io.Discard)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(opts.dataDir, app)
		},
	}
}

func newJourneyCmd(opts *globalOptions) *cobra.Command {
	journey := &cobra.Command{Use: "journey", Short: "Drive the active slot journey"}
	var asJSON bool
	journey.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	// withApp runs fn against a freshly wired app and closes it afterwards.
	withApp := func(cmd *cobra.Command, fn func(*bootstrap.App) error) error {
		app, _, err := loadApp(opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(app)
	}
	showJourney := func(cmd *cobra.Command, out journeydto.JourneyOutput) error {
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		printJourney(cmd.OutOrStdout(), out)
		return nil
	}
	showRefresh := func(cmd *cobra.Command, out journeydto.RefreshOutput, err error) error {
		if asJSON {
			if jsonErr := writeJSON(cmd.OutOrStdout(), out); jsonErr != nil {
				return jsonErr
			}
			return err
		}
		printRefresh(cmd.OutOrStdout(), out)
		return err
	}

	journey.AddCommand(&cobra.Command{
		Use:   "start <slot-id>",
		Short: "Start (or resume) the journey for a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Start(context.Background(), args[0])
				if err != nil && out.Journey.SlotID == "" {
					return err
				}
				return showRefresh(cmd, out, err)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active journey",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Show(context.Background())
				if err != nil {
					return err
				}
				return showJourney(cmd, out)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Re-derive the journey from the slot track",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Refresh(context.Background())
				if err != nil && out.Journey.SlotID == "" {
					return err
				}
				return showRefresh(cmd, out, err)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Advance the journey one step locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Next(context.Background())
				if err != nil {
					return err
				}
				return showJourney(cmd, out)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "set-step <step>",
		Short: "Jump to a step by key (reach) or index (1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.SetStep(context.Background(), args[0])
				if err != nil {
					return err
				}
				return showJourney(cmd, out)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "set-flag <flag> <true|false>",
		Short: "Set a progress flag; the step moves to match it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("flag value must be true or false, got %q", args[1])
			}
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.SetFlag(context.Background(), args[0], value)
				if err != nil {
					return err
				}
				return showJourney(cmd, out)
			})
		},
	})

	var note string
	completeCmd := &cobra.Command{
		Use:   "complete",
		Short: "Confirm the current step with the slot-track API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Complete(context.Background(), note)
				if err != nil && out.Journey.SlotID == "" {
					return err
				}
				return showRefresh(cmd, out, err)
			})
		},
	}
	completeCmd.Flags().StringVar(&note, "note", "", "note attached to the confirmation")
	journey.AddCommand(completeCmd)

	var rating int
	var comment string
	feedbackCmd := &cobra.Command{
		Use:   "feedback --rating <1-5>",
		Short: "Submit feedback to finish the journey",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Feedback(context.Background(), rating, comment)
				if err != nil && out.Journey.SlotID == "" {
					return err
				}
				if asJSON {
					if jsonErr := writeJSON(cmd.OutOrStdout(), out); jsonErr != nil {
						return jsonErr
					}
					return err
				}
				printJourney(cmd.OutOrStdout(), out.Journey)
				if out.ReceiptPath != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "receipt=%s\n", out.ReceiptPath)
				}
				return err
			})
		},
	}
	feedbackCmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	feedbackCmd.Flags().StringVar(&comment, "comment", "", "free-form feedback")
	journey.AddCommand(feedbackCmd)

	journey.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the active journey to its first step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				out, err := app.JourneyCLI.Reset(context.Background())
				if err != nil {
					return err
				}
				return showJourney(cmd, out)
			})
		},
	})

	journey.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Forget the active journey",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				if err := app.JourneyCLI.Close(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "journey closed")
				return nil
			})
		},
	})

	var historySlot string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List the slot-track rows seen by the last refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(app *bootstrap.App) error {
				rows, err := app.JourneyCLI.History(context.Background(), historySlot, historyLimit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rows)
				}
				if len(rows) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no track history")
					return nil
				}
				for _, row := range rows {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", row.Step, row.Status, formatTime(row.UpdatedAt))
				}
				return nil
			})
		},
	}
	historyCmd.Flags().StringVar(&historySlot, "slot", "", "slot id (defaults to the active journey)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum rows")
	journey.AddCommand(historyCmd)

	var interval time.Duration
	var metricsAddr string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the active journey on an interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cfg, err := loadApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if interval <= 0 {
				interval = cfg.WatchInterval
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := app.Logger.Named("watch")
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server stopped", logging.KeyError, err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				logger.Info("serving metrics", "addr", metricsAddr)
			}
			return runWatch(ctx, cmd.OutOrStdout(), app.JourneyCLI.Refresh, interval, logger)
		},
	}
	watchCmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (defaults to watch_interval from config)")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	journey.AddCommand(watchCmd)

	return journey
}

// runWatch refreshes immediately and then on every tick. It prints a line
// whenever the step changes and returns once ctx is done or the journey is
// finished. Failed refreshes are logged and retried on the next tick.
func runWatch(ctx context.Context, w io.Writer, refresh func(context.Context) (journeydto.RefreshOutput, error), interval time.Duration, logger hclog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastStep := -1
	for {
		out, err := refresh(ctx)
		switch {
		case errors.Is(err, apperrors.ErrNoActiveJourney):
			return err
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("refresh failed", logging.KeyOutcome, string(out.Outcome), logging.KeyError, err)
		case out.Outcome == journeydto.RefreshApplied && out.Journey.Step != lastStep:
			lastStep = out.Journey.Step
			printRefresh(w, out)
		}
		if out.Journey.Finished {
			_, _ = fmt.Fprintln(w, "journey finished")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printJourney(w io.Writer, out journeydto.JourneyOutput) {
	upload := out.AvailableUpload
	if upload == "" {
		upload = "none"
	}
	_, _ = fmt.Fprintf(w, "slot=%s step=%d (%s) finished=%t confirm=%t upload=%s\n",
		out.SlotID, out.Step, out.StepLabel, out.Finished, out.ConfirmEnabled, upload)
	f := out.Flags
	_, _ = fmt.Fprintf(w, "flags odometer=%t destination=%t image=%t consent=%t treatment=%t progress_note=%t feedback=%t\n",
		f.OdometerUploaded, f.DestinationReached, f.ImageUploaded, f.ConsentFormUploaded, f.TreatmentStarted, f.ProgressNoteUploaded, f.FeedbackSubmitted)
}

func printRefresh(w io.Writer, out journeydto.RefreshOutput) {
	line := fmt.Sprintf("refresh %s completed=%d", out.Outcome, out.CompletedSteps)
	if out.RequestID != "" {
		line += " request=" + out.RequestID
	}
	if out.Err != "" {
		line += " error=" + strconv.Quote(out.Err)
	}
	_, _ = fmt.Fprintln(w, line)
	printJourney(w, out.Journey)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

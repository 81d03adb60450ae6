package bootstrap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	journeyinadapter "shiftbuddy/internal/modules/journey/adapter/in"
	journeyoutadapter "shiftbuddy/internal/modules/journey/adapter/out"
	journeyservice "shiftbuddy/internal/modules/journey/service"
	journeyusecase "shiftbuddy/internal/modules/journey/usecase"
	"shiftbuddy/internal/platform/clock"
	"shiftbuddy/internal/platform/config"
	"shiftbuddy/internal/platform/id"
	"shiftbuddy/internal/platform/logging"
	"shiftbuddy/internal/platform/retry"
	uiapp "shiftbuddy/internal/ui/app"
)

type App struct {
	JourneyCLI journeyinadapter.CLIHandler
	JourneyTUI journeyinadapter.TUIHandler
	Registry   *prometheus.Registry
	Logger     hclog.Logger

	projector *journeyoutadapter.SQLiteTrackProjector
}

func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	clk := clock.SystemClock{}
	ids := id.UUID{}

	policy := retry.NewPolicy(retry.BackoffMode(cfg.Retry.Mode), cfg.Retry.Initial, cfg.Retry.Max, cfg.Retry.MaxRetries)
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}
	tracker := journeyoutadapter.NewHTTPSlotTracker(cfg.APIURL, cfg.APIToken, cfg.RequestTimeout, policy, nil)

	projector, err := journeyoutadapter.NewSQLiteTrackProjector(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new track projector: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := journeyoutadapter.NewPrometheusRecorder(registry)

	journeyUC := journeyusecase.NewInteractor(
		journeyservice.NewJourneyService(clk, ids, tracker, logger.Named("service")),
		clk,
		tracker,
		journeyoutadapter.NewFileJourneyStore(cfg.StateDir()),
		projector,
		journeyoutadapter.NewVaultReceiptStore(cfg.DataDir),
		recorder,
		logger,
	)

	return &App{
		JourneyCLI: journeyinadapter.NewCLIHandler(journeyUC),
		JourneyTUI: journeyinadapter.NewTUIHandler(journeyUC),
		Registry:   registry,
		Logger:     logger,
		projector:  projector,
	}, nil
}

// Close releases the track database.
func (a *App) Close() error {
	if a.projector == nil {
		return nil
	}
	return a.projector.Close()
}

func RunTUI(dataDir string, app *App) error {
	model := uiapp.NewModel(dataDir, app.JourneyTUI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

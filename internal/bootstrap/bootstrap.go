package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"photopipe-server-go/internal/app/services"
	"photopipe-server-go/internal/domain/eventbus"
	"photopipe-server-go/internal/domain/metrics"
	"photopipe-server-go/internal/domain/pipeline"
	"photopipe-server-go/internal/domain/removal"
	"photopipe-server-go/internal/domain/removal/adapters/legacy"
	"photopipe-server-go/internal/domain/removal/adapters/localneural"
	"photopipe-server-go/internal/domain/removal/adapters/remoteapi"
	"photopipe-server-go/internal/domain/stage"
	"photopipe-server-go/internal/domain/store"
	"photopipe-server-go/internal/domain/vision"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
	"photopipe-server-go/internal/platform/observability"
	"photopipe-server-go/internal/platform/storage"
	transport "photopipe-server-go/internal/transport/http"
	"photopipe-server-go/internal/transport/http/imaging"
)

// App holds every wired component of a running server.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	bus       *eventbus.Bus
	collector *metrics.Collector
	chain     []*removal.Backend
	orch      *pipeline.Orchestrator

	outputs    store.Store
	jobs       *storage.JobRepository
	analyzer   *vision.Analyzer
	processing *services.Processing

	engine  http.Handler
	cron    *cron.Cron
	httpSrv *http.Server

	obsShutdown observability.ShutdownFunc
}

type initStep struct {
	name string
	run  func(ctx context.Context, app *App) error
}

// steps run strictly in order; each may rely on everything before it.
var steps = []initStep{
	{"eventbus", setupEventBus},
	{"telemetry", setupTelemetry},
	{"removal-chain", setupChain},
	{"output-store", setupOutputStore},
	{"job-history", setupJobHistory},
	{"vision", setupVision},
	{"pipeline", setupPipeline},
	{"http", setupHTTP},
	{"cleanup-cron", setupCleanupCron},
}

// NewApp loads configuration and wires every component.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	loaded, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
		Format:   cfg.Log.Format,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindBootstrap, "bootstrap", "initialize logging", err)
	}

	app := &App{cfg: cfg, logger: logger}
	for _, step := range steps {
		if err := step.run(ctx, app); err != nil {
			logger.Close()
			return nil, errors.Wrap(errors.KindBootstrap, "bootstrap",
				fmt.Sprintf("init step %s", step.name), err)
		}
		logger.Debug("init step complete", "step", step.name)
	}
	logger.Info("server wired", "config", loaded.Path, "backends", len(app.chain))
	return app, nil
}

func setupEventBus(ctx context.Context, app *App) error {
	app.bus = eventbus.New()
	return nil
}

func setupTelemetry(ctx context.Context, app *App) error {
	app.collector = metrics.NewCollector()
	shutdown, err := observability.Setup(ctx, observability.Config{Enabled: true}, app.logger.Slog())
	if err != nil {
		return err
	}
	app.obsShutdown = shutdown
	if observability.Enabled() {
		return eventbus.AttachMetricSink(app.bus)
	}
	return nil
}

func setupChain(ctx context.Context, app *App) error {
	reg := removal.NewRegistry()
	for _, register := range []func(*removal.Registry) error{
		localneural.RegisterWith,
		remoteapi.RegisterWith,
		legacy.RegisterWith,
	} {
		if err := register(reg); err != nil {
			return err
		}
	}

	chain, err := removal.BuildChain(app.cfg.Models, app.cfg.Health, reg, app.logger)
	if err != nil {
		return err
	}
	app.chain = chain
	return nil
}

func setupOutputStore(ctx context.Context, app *App) error {
	outputs, err := store.NewStore(app.cfg.Storage, app.logger)
	if err != nil {
		return err
	}
	app.outputs = outputs
	return nil
}

func setupJobHistory(ctx context.Context, app *App) error {
	db, err := storage.InitDB(app.cfg.Database, app.logger)
	if err != nil {
		return err
	}
	app.jobs = storage.NewJobRepository(db)
	return nil
}

func setupVision(ctx context.Context, app *App) error {
	if !app.cfg.Vision.Enabled {
		return nil
	}
	analyzer, err := vision.NewAnalyzer(app.cfg.Vision, app.logger)
	if err != nil {
		return err
	}
	app.analyzer = analyzer
	return nil
}

func setupPipeline(ctx context.Context, app *App) error {
	table := stage.NewTable(app.cfg.Styles)
	app.orch = pipeline.NewOrchestrator(app.cfg.Pipeline, app.chain, table, app.collector, app.bus, app.logger)
	app.processing = services.NewProcessing(app.cfg.Pipeline, app.orch, app.outputs, app.jobs, app.logger)
	return nil
}

func setupHTTP(ctx context.Context, app *App) error {
	svc := imaging.NewService(app.processing, app.orch, app.collector, app.analyzer, app.jobs, app.logger)

	outputDir := ""
	if local, ok := app.outputs.(*store.LocalStore); ok {
		outputDir = local.Dir()
	}
	app.engine = transport.NewRouter(app.logger, outputDir, app.cfg.Storage.BaseURL, svc)

	app.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.cfg.Server.IP, app.cfg.Server.Port),
		Handler: app.engine,
	}
	return nil
}

func setupCleanupCron(ctx context.Context, app *App) error {
	spec := app.cfg.Storage.CleanupSpec
	if spec == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		cleanCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if removed, err := app.outputs.Cleanup(cleanCtx); err != nil {
			app.logger.Warn("output cleanup failed", "error", err)
		} else if removed > 0 {
			app.logger.Info("output cleanup done", "removed", removed)
		}
	})
	if err != nil {
		return errors.Wrap(errors.KindBootstrap, "bootstrap", "schedule cleanup", err)
	}
	app.cron = c
	return nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.engine }

// Run serves HTTP until the context is cancelled or a signal arrives,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cron != nil {
		a.cron.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", a.httpSrv.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.KindTransport, "bootstrap", "http server", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})
	return g.Wait()
}

func (a *App) shutdown() {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown incomplete", "error", err)
	}

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.bus.WaitAsync()

	for _, backend := range a.chain {
		if err := backend.Close(); err != nil {
			a.logger.Warn("backend close failed", "backend", backend.Descriptor().Name, "error", err)
		}
	}
	if err := a.outputs.Close(); err != nil {
		a.logger.Warn("output store close failed", "error", err)
	}
	if a.obsShutdown != nil {
		a.obsShutdown(shutdownCtx)
	}
	a.logger.Close()
}

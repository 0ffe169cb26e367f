package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/ssherwood/historymap/internal/config"
	"github.com/ssherwood/historymap/internal/geo"
	"github.com/ssherwood/historymap/internal/historymap"
	"github.com/ssherwood/historymap/internal/mapview"
	"github.com/ssherwood/historymap/internal/session"
	"github.com/ssherwood/historymap/internal/shared"
	"github.com/yugabyte/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel/sdk/log"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Application interface {
	Initialize(ctx context.Context) error
	Run()
	Shutdown(ctx context.Context) error
}

type HistoryMapApplication struct {
	Server          *http.Server
	Router          *mux.Router
	TracerProvider  *trace.TracerProvider
	MetricsProvider *metricsdk.MeterProvider
	LoggerProvider  *log.LoggerProvider
	DB              *pgxpool.Pool
	Layer           *mapview.Layer
	Hub             *mapview.Hub
	Controller      *session.Controller

	logFile        io.Closer
	stopGeolocator context.CancelFunc
}

func (app *HistoryMapApplication) Initialize(ctx context.Context) error {
	consoleHandler, logFile := shared.InitializeLogging()
	app.logFile = logFile
	if config.DotEnvLoaded() {
		slog.Debug("Loaded configuration from .env")
	}

	if config.OTELLogsEnabled {
		lp, err := shared.InitializeLoggingProvider(ctx)
		if err != nil {
			return err
		}
		app.LoggerProvider = lp
		slog.SetDefault(slog.New(shared.NewGlobalOTLPLogHandler(consoleHandler)))
	}

	if config.OTELTracerEnabled {
		tp, err := shared.InitTracerProvider(ctx)
		if err != nil {
			return err
		}
		app.TracerProvider = tp
	}

	if config.OTELMeterEnabled {
		mp, err := shared.InitializeMetricProvider(ctx)
		if err != nil {
			return err
		}
		app.MetricsProvider = mp
	}

	var audit historymap.AuditRecorder
	if config.DBEnabled {
		db, err := shared.InitializeDB(ctx)
		if err != nil {
			return err
		}
		app.DB = db

		// force establishing at least one valid connection
		if err = shared.PingDB(ctx, db); err != nil {
			return err
		}

		repository := historymap.NewRepository(db)
		if err = repository.EnsureSchema(ctx); err != nil {
			return err
		}
		audit = repository
	}

	mode, err := session.ParseReimportMode(config.ReimportMode)
	if err != nil {
		return err
	}

	app.Layer = mapview.NewLayer()
	app.Hub = mapview.NewHub(app.Layer)
	app.Controller = session.NewController(app.Layer,
		session.WithReimportMode(mode),
		session.WithZoom(config.MapZoom),
	)

	// the lookup outlives Initialize's ctx; Shutdown cancels it
	geoCtx, cancel := context.WithCancel(context.Background())
	app.stopGeolocator = cancel

	var reporter *geo.Reported
	var locator geo.Locator
	if !math.IsNaN(config.GeoLatitude) && !math.IsNaN(config.GeoLongitude) {
		locator = geo.Static{Point: geo.Point{Latitude: config.GeoLatitude, Longitude: config.GeoLongitude}}
	} else {
		reporter = geo.NewReported()
		locator = reporter
	}
	app.Controller.StartGeolocation(geoCtx, locator)

	app.Router = mux.NewRouter()
	app.Router.Use(otelmux.Middleware(config.ServiceName))

	service := historymap.NewService(app.Controller, app.Layer, reporter, audit, config.MaxUploadBytes)
	_ = historymap.NewHandler(app.Router, service, app.Hub, historymap.PageConfig{
		Title:          config.ServiceName,
		TileURL:        config.MapTileURL,
		Attribution:    config.MapTileAttribution,
		ReportLocation: reporter != nil,
	})

	app.Server = &http.Server{
		Handler:      app.Router,
		Addr:         config.ServerAddress,
		WriteTimeout: config.ServerWriteTimeout,
		ReadTimeout:  config.ServerReadTimeout,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	slog.Info("Application initialized", config.SlogServiceName,
		"reimport_mode", mode.String(), "audit", audit != nil, "browser_geolocation", reporter != nil)
	return nil
}

func (app *HistoryMapApplication) Run() {
	go func() {
		slog.Info("Starting application", config.SlogServiceName, config.SlogServiceAddress)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Failed to start application", config.SlogServiceName, config.ErrAttr(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// create a context with timeout for the shutdown process
	cancelContext, cancelFn := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancelFn()

	if err := app.Shutdown(cancelContext); err != nil {
		slog.Info("Failed to gracefully shutdown", config.SlogServiceName, config.ErrAttr(err))
	}

	slog.Info("Application stopped.", config.SlogServiceName)
}

// Shutdown - invokes the global shutdown on the app to remove/close open resources
func (app *HistoryMapApplication) Shutdown(ctx context.Context) error {
	slog.Info("Application shutting down...", config.SlogServiceName)

	var errs []error

	if app.stopGeolocator != nil {
		app.stopGeolocator()
	}

	if app.Server != nil {
		if err := app.Server.Shutdown(ctx); err != nil {
			slog.Warn("Unable to shutdown HTTP server", config.SlogServiceName, config.ErrAttr(err))
			errs = append(errs, err)
		}
	}

	if app.Hub != nil {
		app.Hub.Close()
	}

	if app.MetricsProvider != nil {
		if err := app.MetricsProvider.Shutdown(ctx); err != nil {
			slog.Warn("Unable to shutdown OTEL metrics provider", config.SlogServiceName, config.ErrAttr(err))
			errs = append(errs, err)
		}
	}

	if app.TracerProvider != nil {
		if err := app.TracerProvider.Shutdown(ctx); err != nil {
			slog.Warn("Unable to shutdown OTEL tracer provider", config.ErrAttr(err))
			errs = append(errs, err)
		}
	}

	if app.DB != nil {
		app.DB.Close()
	}

	// last, so the shutdown of everything above is still exported
	if app.LoggerProvider != nil {
		if err := app.LoggerProvider.Shutdown(ctx); err != nil {
			slog.Warn("Unable to shutdown OTEL logger provider", config.ErrAttr(err))
			errs = append(errs, err)
		}
	}

	if app.logFile != nil {
		_ = app.logFile.Close()
	}

	return errors.Join(errs...)
}

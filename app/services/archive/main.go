package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/archive/app/services/archive/handlers"
	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/sys/ledger"
	"github.com/ardanlabs/archive/business/sys/snapshot"
	"github.com/ardanlabs/archive/foundation/events"
	"github.com/ardanlabs/archive/foundation/logger"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ARCHIVE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// The chain defaults are the values the deployed terminal uses, changing
	// any of them produces a different history.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		Chain struct {
			GenesisTime      string        `conf:"default:2024-01-01T00:00:00Z"`
			AvgBlockTime     time.Duration `conf:"default:10m"`
			DifficultyPrefix string        `conf:"default:0000"`
			MasterSeed       uint32        `conf:"default:8472934"`
		}
		Ledger struct {
			Host    string
			Timeout time.Duration `conf:"default:3s"`
		}
		Snapshot struct {
			Kind string `conf:"help:memory|disk|pebble or empty for none"`
			Path string
		}
		Cache struct {
			Size int `conf:"default:1000"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "archive terminal history service",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "ARCHIVE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Archive Support

	genesis, err := time.Parse(time.RFC3339, cfg.Chain.GenesisTime)
	if err != nil {
		return fmt.Errorf("parsing genesis time: %w", err)
	}

	chain, err := procedural.New(procedural.Config{
		GenesisTime:      genesis.UTC(),
		AvgBlockTime:     cfg.Chain.AvgBlockTime,
		DifficultyPrefix: cfg.Chain.DifficultyPrefix,
		MasterSeed:       cfg.Chain.MasterSeed,
	})
	if err != nil {
		return fmt.Errorf("constructing chain: %w", err)
	}

	// The snapshot is an optional store of history exported by the
	// archive tooling. Blocks found there are served before asking the
	// game backend.
	snap, err := snapshot.Open(cfg.Snapshot.Kind, cfg.Snapshot.Path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	if snap != nil {
		log.Infow("startup", "status", "snapshot opened", "kind", cfg.Snapshot.Kind, "path", cfg.Snapshot.Path)
		defer snap.Close()
	}

	// Events are sent to any websocket client that is connected into the
	// system through the events package.
	evts := events.New()

	archiveCfg := archive.Config{
		Log:       log,
		Chain:     chain,
		Snapshot:  snap,
		Evts:      evts,
		CacheSize: cfg.Cache.Size,
	}

	// Without a backend host every block is generated locally.
	if cfg.Ledger.Host != "" {
		log.Infow("startup", "status", "using game backend", "host", cfg.Ledger.Host)
		archiveCfg.Ledger = ledger.New(cfg.Ledger.Host, cfg.Ledger.Timeout)
	}

	core, err := archive.NewCore(archiveCfg)
	if err != nil {
		return fmt.Errorf("constructing archive: %w", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, core)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Archive:     core,
		Evts:        evts,
		CorsOrigins: cfg.Web.CorsOrigin,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dastsc/nexus/internal/api"
	"github.com/dastsc/nexus/internal/config"
	"github.com/dastsc/nexus/internal/feed"
	"github.com/dastsc/nexus/internal/hub"
	"github.com/dastsc/nexus/internal/log"
	"github.com/dastsc/nexus/internal/pipeline"
	"github.com/dastsc/nexus/internal/profile"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (mock feed from fixtures.txt)")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to config.yml")
)

func newSource(cfg config.FeedConfig) (feed.Source, error) {
	switch cfg.Mode {
	case "serial":
		return feed.NewSerialSource(cfg.SerialPort)
	case "mock":
		data, err := os.ReadFile(cfg.MockFixture)
		if err != nil {
			return nil, err
		}
		return feed.NewMockSource(data, 0), nil
	default:
		interval := time.Duration(cfg.PollIntervalMS) * time.Millisecond
		return feed.NewFileSource(cfg.Path, interval, nil), nil
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *devMode {
		cfg.Feed.Mode = "mock"
		if cfg.Feed.MockFixture == "" {
			cfg.Feed.MockFixture = "fixtures.txt"
		}
	}

	lg := log.New(cfg.Log)

	profiles, err := profile.LoadDir(cfg.ProfilesDir, lg)
	if err != nil {
		lg.Warn("loading profiles", "dir", cfg.ProfilesDir, "error", err)
	}
	catalog := profile.NewCatalog(profiles)
	lg.Info("profiles loaded", "count", catalog.Len(), "dir", cfg.ProfilesDir)

	engine := pipeline.New(catalog,
		pipeline.WithTuning(cfg.Clearance),
		pipeline.WithLogger(lg))

	source, err := newSource(cfg.Feed)
	if err != nil {
		lg.Error("creating telemetry source", "mode", cfg.Feed.Mode, "error", err)
		os.Exit(1)
	}
	defer source.Close()

	wsHub := hub.New(engine, lg)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the telemetry source
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := source.Monitor(ctx); err != nil && err != context.Canceled {
			lg.Error("monitoring telemetry source", "error", err)
		}
		lg.Info("monitor routine terminated")
	}()

	// subscribe to raw lines and pump them through the engine, pushing
	// every interpreted result out to connected dashboards
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := source.Subscribe()
		defer source.Unsubscribe(id)
		for {
			select {
			case line := <-c:
				if res, ok := engine.Tick(line); ok {
					wsHub.Broadcast(res)
				}
			case <-ctx.Done():
				lg.Info("subscribe routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(engine, wsHub, cfg.Feed.Path, cfg.ProfilesDir, lg).ServeMux()

		server := &http.Server{
			Addr:    cfg.Server.Listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			lg.Info("http server listening", "addr", cfg.Server.Listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				lg.Error("http server", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		lg.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("http server shutdown", "error", err)
		}
		lg.Info("HTTP server routine stopped")
	}()

	wg.Wait()
	lg.Info("graceful shutdown complete")
}

//go:build linux

// glyphkey-ibus is the Linux IBus Input Method Engine.
//
// It connects to the IBus daemon via D-Bus and turns typed code sequences
// into text according to the glyphkey configuration.
//
// Installation:
//  1. Copy binary to /usr/local/bin/glyphkey-ibus
//  2. Run glyphkey-ibus -install to write the IBus component file
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
//
// The configuration file is watched and reloaded while the engine runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sync/errgroup"

	"glyphkey/internal/config"
	"glyphkey/internal/health"
	"glyphkey/internal/ime"
	"glyphkey/internal/logging"
	"glyphkey/internal/metrics"
	"glyphkey/internal/store"
)

const version = "0.1.0"

func main() {
	installFlag := flag.Bool("install", false, "Install IBus component")
	uninstallFlag := flag.Bool("uninstall", false, "Uninstall IBus component")
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics and /healthz on this address (e.g. 127.0.0.1:9464)")
	flag.Bool("ibus", false, "Started by the IBus daemon")
	flag.Parse()

	if *installFlag {
		path, err := installComponent()
		if err != nil {
			log.Fatalf("Failed to install: %v", err)
		}
		log.Printf("Installed %s. Run 'ibus restart' to load.", path)
		return
	}

	if *uninstallFlag {
		if err := uninstallComponent(); err != nil {
			log.Fatalf("Failed to uninstall: %v", err)
		}
		log.Println("Uninstalled successfully.")
		return
	}

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   version,
		Component: "glyphkey-ibus",
	})

	var err error
	if crash.Recover(func() { err = run(*configPath, *metricsAddr, crash) }) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(configPath, metricsAddr string, crash *logging.CrashHandler) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("Config %s not found, starting with an empty dataset", configPath)
		cfg = config.DefaultConfig()
	case err != nil:
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	registry := metrics.NewRegistry("glyphkey")
	engineMetrics := metrics.NewEngine(registry)
	opts := []ime.EngineOption{ime.WithMetrics(engineMetrics)}
	checker := health.NewChecker()
	if cfg.Journal.Enabled {
		journal, err := store.Open(cfg.JournalPath())
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, ime.WithJournal(journal))
		checker.Register("journal", false, 0, journal.Ping)
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	checker.Register("dbus", true, 0, func(context.Context) error {
		if !conn.Connected() {
			return errors.New("session bus disconnected")
		}
		return nil
	})

	factory := ime.NewIBusFactory(conn, cfg, logger, opts...)

	loader.OnChange(func(next *config.Config) {
		if err := factory.Reload(next); err != nil {
			engineMetrics.ReloadErrors.Inc()
			logger.Error("reload failed", "path", next.Path(), "error", err)
		}
	})
	if cfg.Path() != "" {
		if err := loader.Watch(); err != nil {
			logger.Warn("config watch unavailable", "error", err)
		}
	}
	defer loader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer crash.RecoverGoroutine()
		return factory.Serve(ctx, conn)
	})
	g.Go(func() error {
		defer crash.RecoverGoroutine()
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-loader.Errors():
				logger.Warn("config reload rejected", "error", err)
			}
		}
	})

	if metricsAddr != "" {
		logger.Info("health checks registered", "checks", checker.Names())
		mux := http.NewServeMux()
		mux.Handle("/metrics", registry.HTTPHandler())
		mux.Handle("/healthz", checker.Handler())
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			defer crash.RecoverGoroutine()
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	checker.SetReady(true)
	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// newLogger writes to the log file: the IBus daemon discards the standard
// streams of the engines it spawns.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	if lc.Output != "stdout" {
		lc.Output = "file"
	}
	lc.Component = "glyphkey-ibus"
	return logging.New(lc)
}

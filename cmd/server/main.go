package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"keyword-intel/internal/app"
	"keyword-intel/internal/config"
	"keyword-intel/internal/handler"
	"keyword-intel/pkg/logger"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	application := &Application{}

	flag.StringVar(&application.configPath, "config", "", "Configuration file path (optional; KWI_* env vars override)")
	flag.BoolVar(&application.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewManager().Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logger.Level = "debug"
	}

	log := logger.New(cfg.Logger)
	logger.SetLogger(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := app.Build(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer engine.Close()

	controller := handler.NewController(engine.Service, handler.ControllerConfig{
		Defaults:    cfg.Defaults,
		IncludeSERP: cfg.Aggregation.IncludeSERP,
		Gatherer:    reg,
	}, log)
	server := handler.NewApp(controller)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.WithField("addr", addr).Info("Starting keyword-intel server")
		errChan <- server.Listen(addr)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server stopped: %w", err)
	case <-sigChan:
		log.Info("Shutdown signal received")
	}

	cancel()
	if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Graceful shutdown incomplete")
	}
	log.Info("Server stopped")

	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"annotator/internal/config"
	"annotator/internal/logger"
	"annotator/internal/repository/sqlite"
	"annotator/internal/route"
	"annotator/internal/service"
	"annotator/internal/service/ai"
	"annotator/internal/service/ai/gocvnet"
	"annotator/internal/service/ai/onnx"
	"annotator/internal/service/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	manager    *service.Manager
}

// NewApp loads configuration and wires the index, detector and manager.
func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, manager, hub, err := NewManager(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		manager:    manager,
	}, nil
}

// NewManager opens the index database and builds a manager around it. The
// caller closes the returned database.
func NewManager(cfg *config.Config, log *logger.Logger) (*sqlite.DB, *service.Manager, *websocket.HubService, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	detector, renderer := NewDetector(cfg, log)
	hub := websocket.NewHubService(log)
	manager := service.NewManager(sqlite.NewImageRepository(db), sqlite.NewAnnotationRepository(db),
		detector, renderer, hub, cfg, log)

	return db, manager, hub, nil
}

// NewDetector builds the configured detector backend. A missing or broken
// model is logged and yields a nil detector so the server still starts.
func NewDetector(cfg *config.Config, log *logger.Logger) (ai.Detector, ai.Renderer) {
	renderer := gocvnet.NewRenderer()
	opts := ai.OptionsFromConfig(cfg)

	var (
		detector ai.Detector
		err      error
	)
	switch cfg.DetectorBackend {
	case config.BackendONNX:
		var d *onnx.Detector
		if d, err = onnx.New(opts, cfg.ONNXLibraryPath, log); err == nil {
			detector = d
		}
	case config.BackendGoCV:
		var d *gocvnet.Detector
		if d, err = gocvnet.New(opts, log); err == nil {
			detector = d
		}
	default:
		err = fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}

	if err != nil {
		if errors.Is(err, ai.ErrModelNotFound) {
			log.Warning("Model not found at %s - label generation disabled", cfg.ModelPath)
		} else {
			log.Warning("Could not initialize detector: %v", err)
		}
		return nil, renderer
	}
	return detector, renderer
}

// Run serves HTTP until SIGINT or SIGTERM.
func (a *App) Run() error {
	go a.hubService.Run()

	router := route.SetupRoutes(a.manager, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚀 Annotation Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 AI Model: %s (%s)\n", a.config.ModelPath, a.config.DetectorBackend)
	fmt.Printf("🏷️  Classes: %v\n", a.config.ClassNames)
	fmt.Printf("📁 Waiting for directory selection via API...\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-stop:
		a.logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(ctx)
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	a.hubService.Stop()
	if err := a.manager.Close(); err != nil {
		a.logger.Error("Error closing detector: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	a.logger.Close()
}

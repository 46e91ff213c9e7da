package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"faceoverlay/internal/config"
	"faceoverlay/internal/logger"
	"faceoverlay/internal/repository/sqlite"
	"faceoverlay/internal/routes"
	"faceoverlay/internal/services"
	"faceoverlay/internal/services/ai"
	"faceoverlay/internal/services/camera"
	"faceoverlay/internal/services/pipeline"
	"faceoverlay/internal/services/readiness"
	"faceoverlay/internal/services/render"
	"faceoverlay/internal/services/summary"
	"faceoverlay/internal/services/websocket"
	"faceoverlay/internal/ui"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	analyzer   *ai.FaceAnalyzer
	gate       *readiness.Gate
	loop       *pipeline.Loop
	overlay    *ui.MatSurface // nil bez podglądu
	hubService *websocket.HubService
	manager    *services.Manager
}

// NewAnalyzer builds the inference engine from the configuration.
func NewAnalyzer(cfg *config.Config, logger *logger.Logger) *ai.FaceAnalyzer {
	return ai.NewFaceAnalyzer(ai.Options{
		DetectorModelPath:   cfg.DetectorModelPath,
		AgeGenderModelPath:  cfg.AgeGenderModelPath,
		ExpressionModelPath: cfg.ExpressionModelPath,
		ONNXRuntimeLibPath:  cfg.ONNXRuntimeLibPath,
		DetectionWidth:      cfg.DetectionWidth,
		ScoreThreshold:      cfg.ScoreThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	}, logger)
}

func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}

	analyzer := NewAnalyzer(cfg, log)
	gate := readiness.NewGate(log, analyzer.Loaders()...)
	projector := summary.NewProjector()
	recorder := render.NewRecorder()

	loop := pipeline.New(pipeline.Options{
		Gate:      gate,
		Engine:    analyzer,
		Renderer:  render.NewRenderer(),
		Projector: projector,
		Clock:     pipeline.NewDisplayClock(cfg.RefreshHz),
		Logger:    log,
	})

	var overlay *ui.MatSurface
	if cfg.Preview {
		overlay = ui.NewMatSurface()
		loop.AttachSurface(render.Multi{recorder, overlay})
	} else {
		loop.AttachSurface(recorder)
	}

	hub := websocket.NewHubService(log)

	mng := services.NewManager(services.Dependencies{
		Loop:      loop,
		Gate:      gate,
		Projector: projector,
		Recorder:  recorder,
		Hub:       hub,
		Runs:      sqlite.NewRunRepository(db),
		OpenStream: func() (services.Stream, error) {
			capture, err := camera.Open(camera.Options{
				DeviceID:  cfg.CameraIndex,
				TargetFPS: cfg.CameraFPS,
				Width:     cfg.CameraWidth,
				Height:    cfg.CameraHeight,
			}, log)
			if err != nil {
				return nil, err
			}
			return capture, nil
		},
	}, cfg, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		analyzer:   analyzer,
		gate:       gate,
		loop:       loop,
		overlay:    overlay,
		hubService: hub,
		manager:    mng,
	}, nil
}

// Run starts model loading, the detection loop and the HTTP server, and
// blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background services
	go a.hubService.Run(ctx)
	go a.gate.Load(ctx)

	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	defer a.manager.Stop()

	if err := a.manager.AttachStream(); err != nil {
		a.logger.Warning("Camera unavailable: %v", err)
	}

	// Setup routes
	router := routes.SetupRoutes(a.manager, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚀 Face Overlay Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎥 Camera: %d\n", a.config.CameraIndex)
	fmt.Printf("🤖 Models: %s, %s, %s\n", a.config.DetectorModelPath, a.config.AgeGenderModelPath, a.config.ExpressionModelPath)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if a.overlay != nil {
		// Okno podglądu blokuje; jego zamknięcie kończy serwer
		go func() {
			if err := <-serverErr; err != nil {
				a.logger.Error("HTTP server failed: %v", err)
			}
			cancel()
		}()
		ui.RunPreview(ctx, a.manager, a.overlay, a.logger)
		cancel()
	} else {
		select {
		case <-ctx.Done():
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	return server.Shutdown(shutdownCtx)
}

// Close releases the models, database and log files.
func (a *App) Close() error {
	var errs []error
	if a.overlay != nil {
		errs = append(errs, a.overlay.Close())
	}
	errs = append(errs, a.analyzer.Close(), a.db.Close(), a.logger.Close())
	return errors.Join(errs...)
}

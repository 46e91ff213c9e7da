package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"faceoverlay/internal/config"
	"faceoverlay/internal/handlers"
	"faceoverlay/internal/logger"
	"faceoverlay/internal/middleware"
	"faceoverlay/internal/services"
)

// indexHandler serves static/index.html when the viewer page is deployed.
func indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	filePath := filepath.Join("static", "index.html")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// API endpoints
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(manager.GetWebsocketService(), logger))
	mux.HandleFunc("/api/summary", handlers.SummaryHandler(manager, logger))
	mux.HandleFunc("/api/status", handlers.StatusHandler(manager, logger))
	mux.HandleFunc("/api/stream/attach", handlers.AttachStreamHandler(manager, logger))
	mux.HandleFunc("/api/stream/detach", handlers.DetachStreamHandler(manager, logger))
	mux.HandleFunc("/api/runs", handlers.RunsHandler(manager, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(logger))

	mux.HandleFunc("/logs/info/clear", handlers.ClearLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handlers.ClearLogsHandler(logger, "error.log"))

	mux.HandleFunc("/", indexHandler)

	// Apply middleware
	return middleware.AuthMiddleware(cfg.APIToken, mux)
}

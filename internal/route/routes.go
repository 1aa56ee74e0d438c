package route

import (
	"net/http"
	"os"
	"path/filepath"

	"annotator/internal/config"
	"annotator/internal/handler"
	"annotator/internal/logger"
	"annotator/internal/middleware"
	"annotator/internal/service"

	"github.com/gorilla/mux"
)

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers static file serving, API endpoints, log and auth
// endpoints, and wraps the router with the CORS and authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", handler.HealthHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/browse-directories", handler.BrowseDirectoriesHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/set-directory", handler.SetDirectoryHandler(manager, logger)).Methods("POST")
	api.HandleFunc("/images", handler.ImagesHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/image/{filename}", handler.ServeImageHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/annotations/{filename}", handler.GetAnnotationsHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/annotations/{filename}", handler.SaveAnnotationsHandler(manager, logger)).Methods("POST")
	api.HandleFunc("/classes", handler.ClassesHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/stats", handler.StatsHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/generate-labels", handler.GenerateLabelsHandler(manager, logger)).Methods("POST")
	api.HandleFunc("/reindex", handler.ReindexHandler(manager, logger)).Methods("POST")
	api.HandleFunc("/preview/{filename}", handler.PreviewHandler(manager, logger)).Methods("GET")
	api.HandleFunc("/events", handler.EventsWebsocketHandler(manager, logger))

	// Log endpoints
	r.HandleFunc("/logs/{level}", handler.ShowLogsHandler(logger)).Methods("GET")
	r.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Auth endpoints
	auth := middleware.NewAuthenticator(cfg.Password)
	r.HandleFunc("/auth/login", handler.LoginHandler(auth, logger))
	r.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> <static>/settings.html
	r.NotFoundHandler = dynamicHTMLHandler(cfg.StaticDirectory)

	// Apply middleware
	return middleware.CORSMiddleware(middleware.AuthMiddleware(auth, r))
}

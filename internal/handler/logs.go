package handler

import (
	"net/http"
	"os"

	"annotator/internal/logger"

	"github.com/gorilla/mux"
)

// ShowLogsHandler serves the log file named by the {level} route variable.
func ShowLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, ok := levelFromRequest(w, r)
		if !ok {
			return
		}
		serveLogFile(w, r, logger.Path(level), level.FileName())
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, filePath, filename string) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates the log file named by {level}.
func ClearLogsHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, ok := levelFromRequest(w, r)
		if !ok {
			return
		}
		if err := logger.CleanLogs(level); err != nil {
			http.Error(w, "Unable to clear log", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func levelFromRequest(w http.ResponseWriter, r *http.Request) (logger.Level, bool) {
	level, err := logger.ParseLevel(mux.Vars(r)["level"])
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return level, true
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"annotator/internal/dto"
	"annotator/internal/logger"
	"annotator/internal/service"
)

// HealthHandler reports the server state and the active directories.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := manager.Health()
		data := dto.HealthData{
			Status:        h.Status,
			DirectorySet:  h.DirectorySet,
			DetectorReady: h.DetectorReady,
			Clients:       h.Clients,
		}
		if h.DirectorySet {
			data.DataDir = &h.DatasetDir
			data.ImagesDir = &h.ImagesDir
			data.LabelsDir = &h.LabelsDir
		}
		sendJSON(w, logger, http.StatusOK, data)
	}
}

// BrowseDirectoriesHandler lists directories that look like datasets.
func BrowseDirectoriesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := manager.Browse()
		sendJSON(w, logger, http.StatusOK, dto.BrowseData{
			Directories: result.Directories,
			Home:        result.Home,
		})
	}
}

// SetDirectoryHandler handles POST /api/set-directory.
func SetDirectoryHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.SetDirectoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, logger, "Invalid JSON body")
			return
		}
		logger.Info("Received set-directory request: %s", req.Directory)
		if req.Directory == "" {
			badRequest(w, logger, "Directory path is required")
			return
		}

		autoGenerate := true
		if req.AutoGenerate != nil {
			autoGenerate = *req.AutoGenerate
		}

		result, err := manager.SetDirectory(r.Context(), req.Directory, autoGenerate)
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}

		sendJSON(w, logger, http.StatusOK, dto.SetDirectoryData{
			Success:          true,
			Directory:        result.Directory,
			ImagesDir:        result.ImagesDir,
			LabelsDir:        result.LabelsDir,
			ImagesCount:      result.ImagesCount,
			ExistingLabels:   result.ExistingLabels,
			GeneratedLabels:  result.Generation.Generated,
			EmptyLabels:      result.Generation.Empty,
			GenerationErrors: result.Generation.Errors,
			TotalLabels:      result.TotalLabels,
			FileTypes:        result.FileTypes,
		})
	}
}

// ClassesHandler returns the class map and the ordered class list.
func ClassesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classes := manager.Classes()
		list := make([]dto.ClassItem, 0, len(classes))
		for _, id := range classes.IDs() {
			list = append(list, dto.ClassItem{ID: id, Name: classes[id]})
		}
		sendJSON(w, logger, http.StatusOK, dto.ClassesData{
			Classes:   classes,
			ClassList: list,
		})
	}
}

// StatsHandler returns annotation progress. Without a directory it answers
// with zeros and needs_directory instead of an error.
func StatsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := manager.Stats()
		if errors.Is(err, service.ErrNoDirectory) {
			sendJSON(w, logger, http.StatusOK, dto.StatsData{
				ClassDistribution: []dto.ClassCount{},
				NeedsDirectory:    true,
			})
			return
		}
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}

		distribution := make([]dto.ClassCount, 0, len(stats.ClassDistribution))
		for _, c := range stats.ClassDistribution {
			distribution = append(distribution, dto.ClassCount{
				ClassID:   c.ClassID,
				ClassName: c.ClassName,
				Count:     c.Count,
			})
		}
		sendJSON(w, logger, http.StatusOK, dto.StatsData{
			TotalImages:       stats.TotalImages,
			LabeledImages:     stats.LabeledImages,
			UnlabeledImages:   stats.UnlabeledImages,
			TotalAnnotations:  stats.TotalAnnotations,
			TotalSizeBytes:    stats.TotalSizeBytes,
			PerKind:           stats.PerKind,
			ClassDistribution: distribution,
			CompletionRate:    stats.CompletionRate,
		})
	}
}

// GenerateLabelsHandler runs label generation for images without labels.
func GenerateLabelsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := manager.GenerateMissing(r.Context())
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}
		sendJSON(w, logger, http.StatusOK, dto.GenerationData{
			Success:   true,
			Total:     result.Total,
			Generated: result.Generated,
			Empty:     result.Empty,
			Errors:    result.Errors,
		})
	}
}

// ReindexHandler rebuilds the index from the dataset on disk.
func ReindexHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := manager.Reindex(r.Context())
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}
		sendJSON(w, logger, http.StatusOK, dto.ReindexData{Success: true, Indexed: n})
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"annotator/internal/dto"
	"annotator/internal/logger"
	"annotator/internal/model"
	"annotator/internal/service"
	"annotator/internal/yolo"

	"github.com/gorilla/mux"
)

// ImagesHandler lists the indexed images of the active dataset.
// Optional query parameters: labeled, class, kind, page and limit.
// Without limit every matching image is returned.
func ImagesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 0)

		filter := &model.ImageFilter{Kind: strings.ToLower(q.Get("kind"))}
		if v := q.Get("labeled"); v != "" {
			labeled, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(w, logger, "Invalid labeled parameter")
				return
			}
			filter.Labeled = &labeled
		}
		if v := q.Get("class"); v != "" {
			classID, err := strconv.Atoi(v)
			if err != nil {
				badRequest(w, logger, "Invalid class parameter")
				return
			}
			filter.ClassID = &classID
		}
		if limit > 0 {
			filter.Limit = limit
			filter.Offset = (page - 1) * limit
		}

		images, total, err := manager.ListImages(filter)
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}

		cwd, _ := os.Getwd()
		infos := make([]dto.ImageInfo, 0, len(images))
		for _, img := range images {
			infos = append(infos, dto.ImageInfo{
				Filename:   img.Filename,
				Path:       displayPath(cwd, img.FilePath),
				Kind:       img.Kind,
				Width:      img.Width,
				Height:     img.Height,
				HasLabels:  img.HasLabels,
				LabelCount: img.LabelCount,
			})
		}

		sendJSON(w, logger, http.StatusOK, dto.ImagesData{
			Images:  infos,
			Total:   total,
			Page:    page,
			Limit:   limit,
			Classes: manager.Classes(),
		})
	}
}

// displayPath is path relative to cwd when it lies below it, else path.
func displayPath(cwd, path string) string {
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// ServeImageHandler serves an image file of the active dataset.
func ServeImageHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := manager.ImagePath(mux.Vars(r)["filename"])
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// GetAnnotationsHandler returns the boxes of one image in pixel corners.
func GetAnnotationsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anns, err := manager.Annotations(mux.Vars(r)["filename"])
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}

		boxes := make([]dto.AnnotationBox, 0, len(anns.Boxes))
		for _, b := range anns.Boxes {
			boxes = append(boxes, dto.AnnotationBox{
				ID:        b.ID,
				ClassID:   b.ClassID,
				ClassName: b.ClassName,
				X1:        b.Rect.Min.X,
				Y1:        b.Rect.Min.Y,
				X2:        b.Rect.Max.X,
				Y2:        b.Rect.Max.Y,
				Width:     b.Rect.Dx(),
				Height:    b.Rect.Dy(),
			})
		}

		sendJSON(w, logger, http.StatusOK, dto.AnnotationsData{
			Filename:     anns.Filename,
			Width:        anns.Width,
			Height:       anns.Height,
			Annotations:  boxes,
			SkippedLines: anns.SkippedLines,
		})
	}
}

// SaveAnnotationsHandler replaces the label file of one image.
func SaveAnnotationsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := mux.Vars(r)["filename"]

		var req dto.SaveAnnotationsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, logger, "Invalid JSON body")
			return
		}

		boxes := make([]service.BoxInput, len(req.Annotations))
		for i, a := range req.Annotations {
			boxes[i] = service.BoxInput{
				ClassID: a.ClassID,
				Box:     yolo.Box{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2},
			}
		}

		n, err := manager.SaveAnnotations(filename, boxes)
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}

		sendJSON(w, logger, http.StatusOK, dto.SaveAnnotationsData{
			Success:         true,
			Message:         fmt.Sprintf("Saved %d annotations for %s", n, filename),
			AnnotationCount: n,
		})
	}
}

// PreviewHandler renders the saved boxes onto the image as JPEG.
func PreviewHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := manager.Preview(mux.Vars(r)["filename"])
		if err != nil {
			sendErrorResponse(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(data); err != nil {
			logger.Error("Error writing preview: %v", err)
		}
	}
}

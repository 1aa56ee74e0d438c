package service

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"annotator/internal/config"
	"annotator/internal/logger"
	"annotator/internal/model"
	"annotator/internal/repository"
	"annotator/internal/service/ai"
	"annotator/internal/service/storage"
	"annotator/internal/service/websocket"
	"annotator/internal/yolo"
)

var (
	ErrNoDirectory        = errors.New("no directory selected. Please select a dataset directory first")
	ErrInvalidAnnotation  = errors.New("invalid annotation")
	ErrNoRenderer         = errors.New("preview renderer not available")
	ErrPreviewUnsupported = errors.New("preview is not available for this file type")
)

// Manager owns the active dataset and coordinates the index, the detector
// and event broadcasting.
type Manager struct {
	dataset   *storage.Dataset
	datasetMu sync.RWMutex

	imageRepo      repository.ImageRepository
	annotationRepo repository.AnnotationRepository
	indexMu        sync.Mutex

	detector ai.Detector
	renderer ai.Renderer
	genMu    sync.Mutex

	websocketService *websocket.HubService
	classes          model.ClassMap
	numWorkers       int
	browseBases      []string
	logger           *logger.Logger
}

// NewManager wires the manager. detector and renderer may be nil.
func NewManager(imageRepo repository.ImageRepository, annotationRepo repository.AnnotationRepository,
	detector ai.Detector, renderer ai.Renderer, websocketService *websocket.HubService,
	config *config.Config, logger *logger.Logger) *Manager {
	numWorkers := config.ProcessingWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	return &Manager{
		imageRepo:        imageRepo,
		annotationRepo:   annotationRepo,
		detector:         detector,
		renderer:         renderer,
		websocketService: websocketService,
		classes:          model.NewClassMap(config.ClassNames),
		numWorkers:       numWorkers,
		browseBases:      config.DatasetRoots,
		logger:           logger,
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

// Classes returns the configured class map.
func (m *Manager) Classes() model.ClassMap {
	return m.classes
}

// DetectorReady reports whether auto-labeling is available.
func (m *Manager) DetectorReady() bool {
	return m.detector != nil
}

// Dataset returns the active dataset or ErrNoDirectory.
func (m *Manager) Dataset() (*storage.Dataset, error) {
	m.datasetMu.RLock()
	defer m.datasetMu.RUnlock()

	if m.dataset == nil {
		return nil, ErrNoDirectory
	}
	return m.dataset, nil
}

// ImagePath resolves a file of the active dataset.
func (m *Manager) ImagePath(name string) (string, error) {
	ds, err := m.Dataset()
	if err != nil {
		return "", err
	}
	return ds.ImagePath(name)
}

// ListImages returns one page of indexed images and the total matching count.
func (m *Manager) ListImages(filter *model.ImageFilter) ([]model.Image, int, error) {
	if _, err := m.Dataset(); err != nil {
		return nil, 0, err
	}

	images, err := m.imageRepo.GetAll(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.imageRepo.GetTotalCount(filter)
	if err != nil {
		m.logger.Error("Error counting images: %v", err)
		total = len(images)
	}
	return images, total, nil
}

// Annotations loads the label file of an image in pixel coordinates.
func (m *Manager) Annotations(name string) (*ImageAnnotations, error) {
	ds, err := m.Dataset()
	if err != nil {
		return nil, err
	}
	path, err := ds.ImagePath(name)
	if err != nil {
		return nil, err
	}

	width, height := m.dimensions(path)
	labels, err := ds.ReadLabels(name)
	if err != nil {
		return nil, err
	}
	m.logLabelIssues(name, labels.ReadStats)

	result := &ImageAnnotations{
		Filename:     name,
		Width:        width,
		Height:       height,
		Boxes:        make([]AnnotationBox, 0, len(labels.Annotations)),
		SkippedLines: labels.Skipped,
	}
	for i, a := range labels.Annotations {
		result.Boxes = append(result.Boxes, AnnotationBox{
			ID:        i,
			ClassID:   a.ClassID,
			ClassName: m.classes.Name(a.ClassID),
			Rect:      a.ToBox(width, height).Round(),
		})
	}
	return result, nil
}

// SaveAnnotations converts pixel boxes to label lines, replaces the image's
// label file and updates the index.
func (m *Manager) SaveAnnotations(name string, boxes []BoxInput) (int, error) {
	ds, err := m.Dataset()
	if err != nil {
		return 0, err
	}
	path, err := ds.ImagePath(name)
	if err != nil {
		return 0, err
	}

	width, height := m.dimensions(path)
	anns := make([]yolo.Annotation, 0, len(boxes))
	for i, b := range boxes {
		a, err := yolo.FromBox(b.ClassID, b.Box, width, height)
		if err != nil {
			return 0, fmt.Errorf("%w %d: %v", ErrInvalidAnnotation, i, err)
		}
		anns = append(anns, a)
	}

	if err := ds.SaveAnnotations(name, anns); err != nil {
		return 0, err
	}
	m.syncIndex(ds, name, anns)

	m.logger.Info("Saved %d annotations for %s", len(anns), name)
	m.websocketService.Publish(websocket.Event{
		Type:     websocket.EventAnnotationsSaved,
		Filename: name,
		Count:    len(anns),
	})
	return len(anns), nil
}

// Stats summarizes the index of the active dataset.
func (m *Manager) Stats() (*Stats, error) {
	if _, err := m.Dataset(); err != nil {
		return nil, err
	}

	indexStats, err := m.imageRepo.GetStats()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalImages:      indexStats.TotalImages,
		LabeledImages:    indexStats.LabeledImages,
		UnlabeledImages:  indexStats.TotalImages - indexStats.LabeledImages,
		TotalAnnotations: indexStats.TotalAnnotations,
		TotalSizeBytes:   indexStats.TotalSizeBytes,
		PerKind:          indexStats.PerKind,
	}
	if stats.TotalImages > 0 {
		rate := float64(stats.LabeledImages) / float64(stats.TotalImages) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}

	for _, id := range m.classes.IDs() {
		stats.ClassDistribution = append(stats.ClassDistribution, ClassCount{
			ClassID:   id,
			ClassName: m.classes.Name(id),
			Count:     indexStats.ClassCounts[id],
		})
	}
	var unknown []int
	for id := range indexStats.ClassCounts {
		if _, known := m.classes[id]; !known {
			unknown = append(unknown, id)
		}
	}
	sort.Ints(unknown)
	for _, id := range unknown {
		stats.ClassDistribution = append(stats.ClassDistribution, ClassCount{
			ClassID:   id,
			ClassName: model.UnknownClass,
			Count:     indexStats.ClassCounts[id],
		})
	}
	return stats, nil
}

// Health reports the active directories.
func (m *Manager) Health() Health {
	h := Health{
		Status:        "healthy",
		DetectorReady: m.DetectorReady(),
		Clients:       m.websocketService.GetClientCount(),
	}
	if ds, err := m.Dataset(); err == nil {
		h.DatasetDir = ds.Root
		h.ImagesDir = ds.ImagesDir
		h.LabelsDir = ds.LabelsDir
		h.DirectorySet = true
	}
	return h
}

// Preview renders the saved annotations of an image onto it.
func (m *Manager) Preview(name string) ([]byte, error) {
	if m.renderer == nil {
		return nil, ErrNoRenderer
	}

	anns, err := m.Annotations(name)
	if err != nil {
		return nil, err
	}
	if !storage.IsRaster(storage.KindOf(name)) {
		return nil, ErrPreviewUnsupported
	}
	path, err := m.ImagePath(name)
	if err != nil {
		return nil, err
	}

	overlays := make([]ai.Overlay, len(anns.Boxes))
	for i, b := range anns.Boxes {
		overlays[i] = ai.Overlay{Label: b.ClassName, Rect: b.Rect}
	}
	return m.renderer.Render(path, overlays)
}

// Browse lists dataset candidates under the home directory and the
// configured roots.
func (m *Manager) Browse() BrowseResult {
	home, err := os.UserHomeDir()
	if err != nil {
		m.logger.Warning("Could not resolve home directory: %v", err)
	}

	var bases []string
	if home != "" {
		bases = storage.DefaultBases(home)
	}
	bases = append(bases, m.browseBases...)

	return BrowseResult{
		Directories: storage.Browse(bases),
		Home:        home,
	}
}

// Close releases the detector.
func (m *Manager) Close() error {
	if m.detector == nil {
		return nil
	}
	return m.detector.Close()
}

// dimensions reads the image size, logging when the fallback is used.
func (m *Manager) dimensions(path string) (int, int) {
	width, height, err := storage.Dimensions(path)
	if err != nil {
		m.logger.Warning("Could not get dimensions for %s: %v", path, err)
	}
	return width, height
}

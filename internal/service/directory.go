package service

import (
	"context"
	"fmt"
	"time"

	"annotator/internal/model"
	"annotator/internal/service/storage"
	"annotator/internal/service/websocket"
	"annotator/internal/yolo"
)

// SetDirectory validates dir, makes it the active dataset and rebuilds the
// index. With autoGenerate, missing labels are generated before returning.
func (m *Manager) SetDirectory(ctx context.Context, dir string, autoGenerate bool) (*DirectoryResult, error) {
	ds, err := storage.Open(dir)
	if err != nil {
		m.logger.Error("Rejected directory %s: %v", dir, err)
		return nil, err
	}

	counts, err := ds.Counts()
	if err != nil {
		return nil, err
	}
	existing := ds.LabelFileCount()
	m.logger.Info("Found %d PNG, %d PDF, %d JPG, %d other files in %s",
		counts.PNG, counts.PDF, counts.JPG, counts.Other, ds.ImagesDir)

	if err := m.activate(ctx, ds); err != nil {
		return nil, err
	}

	result := &DirectoryResult{
		Directory:      ds.Root,
		ImagesDir:      ds.ImagesDir,
		LabelsDir:      ds.LabelsDir,
		ImagesCount:    counts.Total(),
		ExistingLabels: existing,
		FileTypes:      counts,
	}

	if autoGenerate {
		m.logger.Info("Auto-generating missing labels...")
		gen, err := m.GenerateMissing(ctx)
		if err != nil {
			return nil, err
		}
		result.Generation = gen
	}
	result.TotalLabels = ds.LabelFileCount()

	m.logger.Info("Directory set successfully: %s (images: %d, existing labels: %d, generated: %d)",
		ds.Root, result.ImagesCount, existing, result.Generation.Generated)
	m.websocketService.Publish(websocket.Event{
		Type:      websocket.EventDirectorySet,
		Directory: ds.Root,
		Total:     result.ImagesCount,
		Count:     result.TotalLabels,
		Generated: result.Generation.Generated,
		Errors:    result.Generation.Errors,
	})
	return result, nil
}

// activate indexes ds and makes it the active dataset. The swap happens
// under indexMu so label writes still in flight for the previous dataset
// cannot reach the new index. On failure the previous dataset stays active
// and its index is rebuilt.
func (m *Manager) activate(ctx context.Context, ds *storage.Dataset) error {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	if _, err := m.reindexLocked(ctx, ds); err != nil {
		if prev, _ := m.Dataset(); prev != nil {
			if _, restoreErr := m.reindexLocked(context.Background(), prev); restoreErr != nil {
				m.logger.Error("Error restoring index of %s: %v", prev.Root, restoreErr)
			}
		}
		return err
	}

	m.datasetMu.Lock()
	m.dataset = ds
	m.datasetMu.Unlock()
	return nil
}

// Reindex rebuilds the image and annotation index from the filesystem and
// returns the number of indexed images.
func (m *Manager) Reindex(ctx context.Context) (int, error) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	ds, err := m.Dataset()
	if err != nil {
		return 0, err
	}
	return m.reindexLocked(ctx, ds)
}

// reindexLocked replaces the index with the content of ds. indexMu must be held.
func (m *Manager) reindexLocked(ctx context.Context, ds *storage.Dataset) (int, error) {
	files, err := ds.Images()
	if err != nil {
		return 0, err
	}

	images := make([]model.Image, 0, len(files))
	labels := make(map[int][]yolo.Annotation)
	now := time.Now()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		width, height := m.dimensions(f.Path)
		l, err := ds.ReadLabels(f.Name)
		if err != nil {
			m.logger.Warning("Skipping labels of %s: %v", f.Name, err)
		}
		m.logLabelIssues(f.Name, l.ReadStats)

		if len(l.Annotations) > 0 {
			labels[len(images)] = l.Annotations
		}
		images = append(images, model.Image{
			Filename:   f.Name,
			Kind:       f.Kind,
			Width:      width,
			Height:     height,
			FilePath:   f.Path,
			FileSize:   f.Size,
			HasLabels:  l.Exists,
			LabelCount: len(l.Annotations),
			IndexedAt:  now,
		})
	}

	if err := m.imageRepo.DeleteAll(); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}
	if err := m.imageRepo.BulkInsert(images); err != nil {
		return 0, fmt.Errorf("failed to index images: %w", err)
	}
	for i, anns := range labels {
		if err := m.annotationRepo.ReplaceForImage(images[i].ID, anns); err != nil {
			return 0, fmt.Errorf("failed to index labels of %s: %w", images[i].Filename, err)
		}
	}

	m.logger.Info("Indexed %d images from %s", len(images), ds.ImagesDir)
	m.websocketService.Publish(websocket.Event{
		Type:  websocket.EventReindexed,
		Total: len(images),
	})
	return len(images), nil
}

// logLabelIssues reports label lines that a read dropped or clamped.
func (m *Manager) logLabelIssues(name string, stats yolo.ReadStats) {
	if stats.Skipped > 0 {
		m.logger.Warning("Skipped %d malformed label lines of %s", stats.Skipped, name)
	}
	if stats.Clamped > 0 {
		m.logger.Warning("Clamped %d out-of-range label lines of %s", stats.Clamped, name)
	}
}

// syncIndex records a new label file for one image. Index failures are
// logged; the label file on disk stays authoritative. Writes for a dataset
// that is no longer active are dropped.
func (m *Manager) syncIndex(ds *storage.Dataset, name string, anns []yolo.Annotation) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	if current, _ := m.Dataset(); current != ds {
		m.logger.Info("Not indexing %s: dataset %s is no longer active", name, ds.Root)
		return
	}

	img, err := m.imageRepo.GetByFilename(name)
	if err != nil {
		m.logger.Error("Error looking up %s in index: %v", name, err)
		return
	}

	if img == nil {
		path, err := ds.ImagePath(name)
		if err != nil {
			m.logger.Error("Error indexing %s: %v", name, err)
			return
		}
		width, height := m.dimensions(path)
		img = &model.Image{
			Filename: name,
			Kind:     storage.KindOf(name),
			Width:    width,
			Height:   height,
			FilePath: path,
		}
		if img.ID, err = m.imageRepo.Insert(img); err != nil {
			m.logger.Error("Error indexing %s: %v", name, err)
			return
		}
	}

	if err := m.imageRepo.UpdateLabelState(img.ID, true, len(anns)); err != nil {
		m.logger.Error("Error updating index for %s: %v", name, err)
		return
	}
	if err := m.annotationRepo.ReplaceForImage(img.ID, anns); err != nil {
		m.logger.Error("Error updating annotations index for %s: %v", name, err)
	}
}

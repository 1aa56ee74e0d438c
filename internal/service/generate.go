package service

import (
	"context"
	"sync"

	"annotator/internal/service/ai"
	"annotator/internal/service/storage"
	"annotator/internal/service/websocket"
)

// GenerationTask is one image waiting for pre-labeling.
type GenerationTask struct {
	Dataset *storage.Dataset
	Image   storage.ImageFile
}

type taskOutcome int

const (
	outcomeGenerated taskOutcome = iota
	outcomeEmpty
	outcomeError
)

// GenerateMissing runs the detector over every raster image of the active
// dataset that has no label file yet. Images without detections get an
// empty label file. Only one run happens at a time.
func (m *Manager) GenerateMissing(ctx context.Context) (GenerationResult, error) {
	ds, err := m.Dataset()
	if err != nil {
		return GenerationResult{}, err
	}
	if m.detector == nil {
		m.logger.Warning("Detector not available - skipping label generation")
		return GenerationResult{}, nil
	}

	m.genMu.Lock()
	defer m.genMu.Unlock()

	pending, err := ds.Unlabeled()
	if err != nil {
		return GenerationResult{}, err
	}
	result := GenerationResult{Total: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	m.logger.Info("Generating labels for %d images with %d workers", len(pending), m.numWorkers)

	processingQueue := make(chan GenerationTask, len(pending))
	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
		done     int
	)

	for i := 0; i < m.numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for task := range processingQueue {
				if ctx.Err() != nil {
					return
				}
				outcome := m.processTask(ctx, task, workerID)

				resultMu.Lock()
				switch outcome {
				case outcomeGenerated:
					result.Generated++
				case outcomeEmpty:
					result.Empty++
				default:
					result.Errors++
				}
				done++
				progress := websocket.Event{
					Type:      websocket.EventGenerationProgress,
					Filename:  task.Image.Name,
					Count:     done,
					Generated: result.Generated,
					Errors:    result.Errors,
					Total:     result.Total,
				}
				resultMu.Unlock()

				m.websocketService.Publish(progress)
			}
		}(i)
	}

	for _, img := range pending {
		processingQueue <- GenerationTask{Dataset: ds, Image: img}
	}
	close(processingQueue)
	wg.Wait()

	m.logger.Info("Label generation complete: %d generated, %d empty, %d errors",
		result.Generated, result.Empty, result.Errors)
	m.websocketService.Publish(websocket.Event{
		Type:      websocket.EventGenerationDone,
		Count:     result.Generated + result.Empty,
		Generated: result.Generated,
		Errors:    result.Errors,
		Total:     result.Total,
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// processTask detects objects in one image and writes its label file.
func (m *Manager) processTask(ctx context.Context, task GenerationTask, workerID int) taskOutcome {
	res, err := m.detector.Detect(ctx, task.Image.Path)
	if err != nil {
		m.logger.Error("Worker %d: error processing %s: %v", workerID, task.Image.Name, err)
		return outcomeError
	}

	anns := ai.ToAnnotations(res)
	if err := task.Dataset.SaveAnnotations(task.Image.Name, anns); err != nil {
		m.logger.Error("Worker %d: error writing labels for %s: %v", workerID, task.Image.Name, err)
		return outcomeError
	}
	m.syncIndex(task.Dataset, task.Image.Name, anns)

	if len(anns) == 0 {
		m.logger.Info("No detections for %s, created empty label file", task.Image.Name)
		return outcomeEmpty
	}
	m.logger.Info("Generated %d labels for %s", len(anns), task.Image.Name)
	return outcomeGenerated
}

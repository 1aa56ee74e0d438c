// Package onnx runs YOLOv8 ONNX models through ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"

	"annotator/internal/logger"
	"annotator/internal/service/ai"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// Detector holds one ONNX Runtime session with preallocated tensors. The
// tensors are shared, so inference is serialized.
type Detector struct {
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	opts       ai.Options
	numAnchors int
	logger     *logger.Logger
	mu         sync.Mutex
}

// New initializes the runtime (once per process) and creates a session.
// libraryPath may be empty to use the platform default.
func New(opts ai.Options, libraryPath string, logger *logger.Logger) (*Detector, error) {
	if _, err := os.Stat(opts.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ai.ErrModelNotFound, opts.ModelPath)
	}
	if opts.NumClasses <= 0 {
		return nil, fmt.Errorf("number of classes must be positive")
	}

	if !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(runtime.NumCPU())

	size := int64(opts.InputSize)
	anchors := ai.Anchors(opts.InputSize)

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+opts.NumClasses), int64(anchors)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	logger.Info("ONNX Runtime session initialized from %s", opts.ModelPath)
	return &Detector{
		session:    session,
		input:      inputTensor,
		output:     outputTensor,
		opts:       opts,
		numAnchors: anchors,
		logger:     logger,
	}, nil
}

// Detect resizes the image to the model input and runs the session.
func (d *Detector) Detect(ctx context.Context, path string) (*ai.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	size := d.opts.InputSize
	resized := imaging.Resize(img, size, size, imaging.Linear)

	d.mu.Lock()
	defer d.mu.Unlock()

	fillInput(d.input.GetData(), resized, size)
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	detections := ai.DecodeYOLOv8(d.output.GetData(), d.opts.NumClasses, d.numAnchors,
		float64(width)/float64(size), float64(height)/float64(size), d.opts.Confidence)

	return &ai.Result{
		Width:      width,
		Height:     height,
		Detections: ai.NonMaxSuppression(detections, d.opts.IOUThreshold),
	}, nil
}

// Close destroys the session and its tensors.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for _, destroy := range []func() error{d.session.Destroy, d.input.Destroy, d.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fillInput writes the image as planar RGB scaled to [0,1].
func fillInput(dst []float32, img *image.NRGBA, size int) {
	plane := size * size
	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			p := row[x*4:]
			dst[i] = float32(p[0]) / 255.0
			dst[plane+i] = float32(p[1]) / 255.0
			dst[2*plane+i] = float32(p[2]) / 255.0
		}
	}
}

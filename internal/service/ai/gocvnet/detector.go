// Package gocvnet runs YOLOv8 ONNX models through the OpenCV DNN module.
package gocvnet

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"annotator/internal/logger"
	"annotator/internal/service/ai"

	"gocv.io/x/gocv"
)

// Detector wraps a gocv.Net. The network is not safe for concurrent use, so
// inference is serialized.
type Detector struct {
	net    gocv.Net
	opts   ai.Options
	logger *logger.Logger
	mu     sync.Mutex
}

// New loads the model and sets backend/target preferences.
func New(opts ai.Options, logger *logger.Logger) (*Detector, error) {
	if _, err := os.Stat(opts.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ai.ErrModelNotFound, opts.ModelPath)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", opts.ModelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network initialized from %s", opts.ModelPath)
	return &Detector{net: net, opts: opts, logger: logger}, nil
}

// Detect runs the network on the image at path.
func (d *Detector) Detect(ctx context.Context, path string) (*ai.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}
	defer mat.Close()

	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// Output shape: [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	width, height := mat.Cols(), mat.Rows()
	detections := ai.DecodeYOLOv8(data, dims[1]-4, dims[2],
		float64(width)/float64(size), float64(height)/float64(size), d.opts.Confidence)

	return &ai.Result{
		Width:      width,
		Height:     height,
		Detections: ai.NonMaxSuppression(detections, d.opts.IOUThreshold),
	}, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

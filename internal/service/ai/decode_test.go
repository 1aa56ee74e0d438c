package ai

import (
	"math"
	"testing"

	"annotator/internal/yolo"
)

// headOutput lays out anchors in the channel-major YOLOv8 format.
func headOutput(numClasses int, anchors [][]float32) []float32 {
	n := len(anchors)
	out := make([]float32, (4+numClasses)*n)
	for i, a := range anchors {
		for ch, v := range a {
			out[ch*n+i] = v
		}
	}
	return out
}

func TestAnchors(t *testing.T) {
	if got := Anchors(640); got != 8400 {
		t.Errorf("Expected 8400 anchors for 640, got %d", got)
	}
	if got := Anchors(320); got != 2100 {
		t.Errorf("Expected 2100 anchors for 320, got %d", got)
	}
}

func TestDecodeYOLOv8(t *testing.T) {
	out := headOutput(2, [][]float32{
		{100, 100, 20, 40, 0.9, 0.1},
		{300, 200, 50, 50, 0.1, 0.2},
		{50, 60, 10, 10, 0.3, 0.7},
	})

	dets := DecodeYOLOv8(out, 2, 3, 2, 0.5, 0.25)
	if len(dets) != 2 {
		t.Fatalf("Expected 2 detections above threshold, got %d", len(dets))
	}

	d := dets[0]
	if d.ClassID != 0 || d.Confidence != 0.9 {
		t.Errorf("Unexpected first detection %+v", d)
	}
	want := yolo.Box{X1: 180, Y1: 40, X2: 220, Y2: 60}
	if d.Box != want {
		t.Errorf("Expected box %+v, got %+v", want, d.Box)
	}
	if dets[1].ClassID != 1 {
		t.Errorf("Expected best class 1 for second detection, got %d", dets[1].ClassID)
	}
}

func TestDecodeYOLOv8_ShortBuffer(t *testing.T) {
	if dets := DecodeYOLOv8(make([]float32, 5), 2, 3, 1, 1, 0.25); dets != nil {
		t.Errorf("Expected nil for short buffer, got %v", dets)
	}
}

func TestIoU(t *testing.T) {
	a := yolo.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}

	var tests = []struct {
		name string
		b    yolo.Box
		want float64
	}{
		{"same", a, 1},
		{"half", yolo.Box{X1: 5, Y1: 0, X2: 15, Y2: 10}, 50.0 / 150.0},
		{"disjoint", yolo.Box{X1: 20, Y1: 20, X2: 30, Y2: 30}, 0},
		{"touching", yolo.Box{X1: 10, Y1: 0, X2: 20, Y2: 10}, 0},
		{"reversed", yolo.Box{X1: 10, Y1: 10, X2: 0, Y2: 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IoU(a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []Detection{
		{ClassID: 0, Confidence: 0.6, Box: yolo.Box{X1: 1, Y1: 1, X2: 11, Y2: 11}},
		{ClassID: 0, Confidence: 0.9, Box: yolo.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{ClassID: 1, Confidence: 0.8, Box: yolo.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{ClassID: 0, Confidence: 0.7, Box: yolo.Box{X1: 50, Y1: 50, X2: 60, Y2: 60}},
	}

	kept := NonMaxSuppression(dets, 0.45)
	if len(kept) != 3 {
		t.Fatalf("Expected 3 detections, got %d: %+v", len(kept), kept)
	}
	if kept[0].Confidence != 0.9 || kept[1].ClassID != 1 || kept[2].Confidence != 0.7 {
		t.Errorf("Unexpected NMS result %+v", kept)
	}
	if dets[0].Confidence != 0.6 {
		t.Error("Input slice should not be reordered")
	}
}

func TestToAnnotations(t *testing.T) {
	res := &Result{
		Width:  200,
		Height: 100,
		Detections: []Detection{
			{ClassID: 2, Confidence: 0.9, Box: yolo.Box{X1: 50, Y1: 25, X2: 150, Y2: 75}},
			{ClassID: 1, Confidence: 0.8, Box: yolo.Box{X1: -20, Y1: -10, X2: 20, Y2: 10}},
			{ClassID: 0, Confidence: 0.5, Box: yolo.Box{X1: 300, Y1: 10, X2: 400, Y2: 20}},
		},
	}

	anns := ToAnnotations(res)
	if len(anns) != 2 {
		t.Fatalf("Expected 2 annotations (off-image box dropped), got %+v", anns)
	}
	want := yolo.Annotation{ClassID: 2, CX: 0.5, CY: 0.5, W: 0.5, H: 0.5}
	if anns[0] != want {
		t.Errorf("Expected %+v, got %+v", want, anns[0])
	}
	if anns[1].CX != 0.05 || anns[1].W != 0.1 {
		t.Errorf("Expected clamped box, got %+v", anns[1])
	}

	if got := ToAnnotations(nil); got == nil || len(got) != 0 {
		t.Errorf("Expected empty slice for nil result, got %v", got)
	}
}

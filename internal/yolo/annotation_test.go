package yolo

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"testing"
)

func TestToBox(t *testing.T) {
	var tests = []struct {
		ann           Annotation
		width, height int
		want          Box
	}{
		{Annotation{0, 0.5, 0.5, 0.5, 0.25}, 640, 480, Box{160, 180, 480, 300}},
		{Annotation{1, 0.5, 0.5, 1, 1}, 100, 50, Box{0, 0, 100, 50}},
		{Annotation{2, 0.1, 0.9, 0.2, 0.2}, 1000, 1000, Box{0, 800, 200, 1000}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+v", tt.ann), func(t *testing.T) {
			got := tt.ann.ToBox(tt.width, tt.height)
			if !boxNear(got, tt.want, 1e-9) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFromBox(t *testing.T) {
	a, err := FromBox(3, Box{160, 180, 480, 300}, 640, 480)
	if err != nil {
		t.Fatalf("FromBox failed: %v", err)
	}
	want := Annotation{3, 0.5, 0.5, 0.5, 0.25}
	if !annNear(a, want, 1e-12) {
		t.Errorf("got %+v, want %+v", a, want)
	}
}

func TestFromBox_ReversedCorners(t *testing.T) {
	a, err := FromBox(0, Box{480, 300, 160, 180}, 640, 480)
	if err != nil {
		t.Fatalf("FromBox failed: %v", err)
	}
	if !annNear(a, Annotation{0, 0.5, 0.5, 0.5, 0.25}, 1e-12) {
		t.Errorf("corners were not normalized: %+v", a)
	}
}

func TestFromBox_ClampsToImage(t *testing.T) {
	a, err := FromBox(1, Box{-10, -10, 50, 50}, 100, 100)
	if err != nil {
		t.Fatalf("FromBox failed: %v", err)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("clamped annotation should validate: %v", err)
	}
	if !annNear(a, Annotation{1, 0.25, 0.25, 0.5, 0.5}, 1e-12) {
		t.Errorf("got %+v", a)
	}
}

func TestFromBox_InvalidInput(t *testing.T) {
	if _, err := FromBox(0, Box{0, 0, 1, 1}, 0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	if _, err := FromBox(-1, Box{0, 0, 1, 1}, 10, 10); !errors.Is(err, ErrInvalidClass) {
		t.Errorf("expected ErrInvalidClass, got %v", err)
	}
}

// Integer pixel boxes must survive bbox -> normalized -> text -> normalized -> bbox.
func TestRoundTrip_IntegerPixelStable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		w := 1 + rng.Intn(4000)
		h := 1 + rng.Intn(4000)
		x1, x2 := rng.Intn(w+1), rng.Intn(w+1)
		y1, y2 := rng.Intn(h+1), rng.Intn(h+1)
		want := image.Rect(x1, y1, x2, y2)

		a, err := FromBox(rng.Intn(4), Box{float64(x1), float64(y1), float64(x2), float64(y2)}, w, h)
		if err != nil {
			t.Fatalf("FromBox failed: %v", err)
		}
		parsed, err := ParseLine(FormatLine(a))
		if err != nil {
			t.Fatalf("ParseLine(%q) failed: %v", FormatLine(a), err)
		}
		got := parsed.ToBox(w, h).Round()
		if got != want {
			t.Fatalf("image %dx%d: got %v, want %v (line %q)", w, h, got, want, FormatLine(a))
		}
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		ann Annotation
		ok  bool
	}{
		{Annotation{0, 0, 0, 0, 0}, true},
		{Annotation{0, 1, 1, 1, 1}, true},
		{Annotation{-1, 0.5, 0.5, 0.1, 0.1}, false},
		{Annotation{0, 1.5, 0.5, 0.1, 0.1}, false},
		{Annotation{0, 0.5, -0.1, 0.1, 0.1}, false},
		{Annotation{0, 0.5, 0.5, math.NaN(), 0.1}, false},
	}

	for _, tt := range tests {
		err := tt.ann.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("Validate(%+v) = %v, want ok=%t", tt.ann, err, tt.ok)
		}
	}
}

func TestFlips(t *testing.T) {
	anns := []Annotation{{0, 0.2, 0.3, 0.1, 0.1}}

	h := FlipHorizontal(anns)
	if math.Abs(h[0].CX-0.8) > 1e-12 || h[0].CY != 0.3 {
		t.Errorf("horizontal flip: got %+v", h[0])
	}
	v := FlipVertical(anns)
	if math.Abs(v[0].CY-0.7) > 1e-12 || v[0].CX != 0.2 {
		t.Errorf("vertical flip: got %+v", v[0])
	}
	if anns[0].CX != 0.2 {
		t.Error("flip must not modify its input")
	}
}

func boxNear(a, b Box, eps float64) bool {
	return math.Abs(a.X1-b.X1) < eps && math.Abs(a.Y1-b.Y1) < eps &&
		math.Abs(a.X2-b.X2) < eps && math.Abs(a.Y2-b.Y2) < eps
}

func annNear(a, b Annotation, eps float64) bool {
	return a.ClassID == b.ClassID &&
		math.Abs(a.CX-b.CX) < eps && math.Abs(a.CY-b.CY) < eps &&
		math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
}

package prep

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"annotator/internal/config"
	"annotator/internal/logger"
	"annotator/internal/yolo"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupService(t *testing.T) *Service {
	t.Helper()
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { log.Close() })
	return NewService(log)
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: 100, B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func writeLabels(t *testing.T, path string, anns []yolo.Annotation) {
	t.Helper()
	if err := yolo.WriteFile(path, anns); err != nil {
		t.Fatalf("Failed to write labels %s: %v", path, err)
	}
}

// setupSource creates images/ and labels/ with n labeled PNGs plus one
// unlabeled PNG.
func setupSource(t *testing.T, n int) (imagesDir, labelsDir string) {
	t.Helper()
	root := t.TempDir()
	imagesDir = filepath.Join(root, "images")
	labelsDir = filepath.Join(root, "labels")
	os.MkdirAll(imagesDir, 0755)
	os.MkdirAll(labelsDir, 0755)

	for i := 0; i < n; i++ {
		stem := string(rune('a' + i))
		writeImage(t, filepath.Join(imagesDir, stem+".png"))
		writeLabels(t, filepath.Join(labelsDir, stem+".txt"), []yolo.Annotation{
			{ClassID: i % 2, CX: 0.25, CY: 0.75, W: 0.5, H: 0.5},
		})
	}
	writeImage(t, filepath.Join(imagesDir, "unlabeled.png"))
	return imagesDir, labelsDir
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// ========================================
// Augment Tests
// ========================================

func TestApplyOp_Flips(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	anns := []yolo.Annotation{{ClassID: 1, CX: 0.2, CY: 0.3, W: 0.1, H: 0.1}}

	out, got := ApplyOp(img, OpHFlip, anns, nil)
	if out.NRGBAAt(1, 0).R != 255 {
		t.Error("Expected red pixel to move to the right edge")
	}
	if got[0].CX != 0.8 || got[0].CY != 0.3 {
		t.Errorf("Unexpected flipped annotation %+v", got[0])
	}

	_, got = ApplyOp(img, OpVFlip, anns, nil)
	if got[0].CX != 0.2 || got[0].CY != 0.7 {
		t.Errorf("Unexpected flipped annotation %+v", got[0])
	}
	if anns[0].CX != 0.2 {
		t.Error("Input annotations must not be modified")
	}
}

func TestApplyOp_Photometric(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 100, G: 200, B: 20, A: 255})
	anns := []yolo.Annotation{{ClassID: 0, CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}}

	var tests = []struct {
		op      Op
		r, g, b uint8
	}{
		{OpBright, 130, 255, 26},
		{OpDark, 70, 140, 14},
		{OpContrast, 91, 221, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			out, got := ApplyOp(img, tt.op, anns, nil)
			c := out.NRGBAAt(0, 0)
			if c.R != tt.r || c.G != tt.g || c.B != tt.b || c.A != 255 {
				t.Errorf("Expected (%d,%d,%d), got %+v", tt.r, tt.g, tt.b, c)
			}
			if got[0] != anns[0] {
				t.Errorf("Photometric ops must keep boxes, got %+v", got[0])
			}
		})
	}
}

func TestApplyOp_NoiseIsSeeded(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	a, _ := ApplyOp(img, OpNoise, nil, rand.New(rand.NewSource(DefaultSeed)))
	b, _ := ApplyOp(img, OpNoise, nil, rand.New(rand.NewSource(DefaultSeed)))

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("Noise with the same seed should be identical")
		}
	}
}

func TestParseOp(t *testing.T) {
	if op, err := ParseOp("hflip"); err != nil || op != OpHFlip {
		t.Errorf("Expected hflip, got %v %v", op, err)
	}
	if _, err := ParseOp("rotate"); err == nil {
		t.Error("Expected error for unknown op")
	}
}

func TestService_Augment_ExplicitOps(t *testing.T) {
	s := setupService(t)
	imagesDir, labelsDir := setupSource(t, 2)
	out := t.TempDir()

	report, err := s.Augment(context.Background(), AugmentOptions{
		ImagesDir: imagesDir,
		LabelsDir: labelsDir,
		OutputDir: out,
		Ops:       []Op{OpHFlip, OpBright, OpDark},
		Seed:      DefaultSeed,
	})
	if err != nil {
		t.Fatalf("Augment failed: %v", err)
	}
	if report.Pairs != 2 || report.Augmented != 6 || report.Failed != 0 {
		t.Errorf("Unexpected report %+v", report)
	}

	images := listNames(t, filepath.Join(out, "images"))
	want := []string{"a.png", "a_aug_bright.png", "a_aug_dark.png", "a_aug_hflip.png",
		"b.png", "b_aug_bright.png", "b_aug_dark.png", "b_aug_hflip.png"}
	if len(images) != len(want) {
		t.Fatalf("Expected %v, got %v", want, images)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], images[i])
		}
	}

	flipped, err := yolo.ReadFile(filepath.Join(out, "labels", "a_aug_hflip.txt"))
	if err != nil || len(flipped) != 1 || flipped[0].CX != 0.75 {
		t.Errorf("Unexpected flipped labels %+v %v", flipped, err)
	}
}

func TestService_Augment_SampledOpsAreReproducible(t *testing.T) {
	s := setupService(t)
	imagesDir, labelsDir := setupSource(t, 3)

	run := func() []string {
		out := t.TempDir()
		_, err := s.Augment(context.Background(), AugmentOptions{
			ImagesDir: imagesDir, LabelsDir: labelsDir, OutputDir: out, Count: 2, Seed: DefaultSeed,
		})
		if err != nil {
			t.Fatalf("Augment failed: %v", err)
		}
		return listNames(t, filepath.Join(out, "labels"))
	}

	first, second := run(), run()
	if len(first) != 9 {
		t.Fatalf("Expected 3 originals + 6 augmented labels, got %v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Sampling should be reproducible: %v vs %v", first, second)
		}
	}
}

// ========================================
// Split Tests
// ========================================

func TestService_Split(t *testing.T) {
	s := setupService(t)
	imagesDir, labelsDir := setupSource(t, 5)
	out := t.TempDir()

	report, err := s.Split(context.Background(), SplitOptions{
		ImagesDir:  imagesDir,
		LabelsDir:  labelsDir,
		OutputDir:  out,
		TrainRatio: 0.8,
		Seed:       DefaultSeed,
		ClassNames: []string{"straight", "L-shape"},
	})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if report.Train != 4 || report.Val != 1 {
		t.Errorf("Expected 4/1 split, got %+v", report)
	}

	trainImages := listNames(t, filepath.Join(out, "images", "train"))
	trainLabels := listNames(t, filepath.Join(out, "labels", "train"))
	if len(trainImages) != 4 || len(trainLabels) != 4 {
		t.Errorf("Expected 4 train pairs, got %v %v", trainImages, trainLabels)
	}
	for _, name := range trainImages {
		if name == "unlabeled.png" {
			t.Error("Unlabeled images must not be split")
		}
	}

	cfg, err := ReadDatasetConfig(report.DatasetYAML)
	if err != nil {
		t.Fatalf("ReadDatasetConfig failed: %v", err)
	}
	if cfg.Path != "." || cfg.Train != "images/train" || cfg.Val != "images/val" || cfg.NC != 2 {
		t.Errorf("Unexpected dataset config %+v", cfg)
	}
	if len(cfg.Names) != 2 || cfg.Names[1] != "L-shape" {
		t.Errorf("Unexpected class names %v", cfg.Names)
	}
}

func TestService_Split_InvalidRatio(t *testing.T) {
	s := setupService(t)
	if _, err := s.Split(context.Background(), SplitOptions{TrainRatio: 1.5}); err == nil {
		t.Error("Expected error for ratio above 1")
	}
}

// ========================================
// Collect Tests
// ========================================

func TestService_Collect_NewestLabelWins(t *testing.T) {
	s := setupService(t)
	older, newer := t.TempDir(), t.TempDir()

	writeImage(t, filepath.Join(older, "page.png"))
	writeLabels(t, filepath.Join(older, "page.txt"), []yolo.Annotation{{ClassID: 0, CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}})
	writeImage(t, filepath.Join(newer, "page.png"))
	writeLabels(t, filepath.Join(newer, "page.txt"), []yolo.Annotation{
		{ClassID: 1, CX: 0.5, CY: 0.5, W: 0.1, H: 0.1},
		{ClassID: 2, CX: 0.2, CY: 0.2, W: 0.1, H: 0.1},
	})
	writeImage(t, filepath.Join(older, "only.png"))
	writeLabels(t, filepath.Join(older, "only.txt"), nil)

	past := time.Now().Add(-time.Hour)
	os.Chtimes(filepath.Join(older, "page.txt"), past, past)

	out := filepath.Join(t.TempDir(), "final")
	report, err := s.Collect([]string{older, filepath.Join(older, "missing"), newer}, out)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if report.TotalImages != 2 || report.ImagesWithLabels != 1 || report.TotalAnnotations != 2 {
		t.Errorf("Unexpected report %+v", report)
	}
	if report.PerSource[newer] != 1 || report.PerSource[older] != 1 {
		t.Errorf("Unexpected per-source counts %v", report.PerSource)
	}
	if report.AveragePerImage() != 1 {
		t.Errorf("Expected average 1, got %f", report.AveragePerImage())
	}

	anns, err := yolo.ReadFile(filepath.Join(out, "page.txt"))
	if err != nil || len(anns) != 2 {
		t.Errorf("Expected newest labels to be collected, got %+v %v", anns, err)
	}
}

// ========================================
// Stats Tests
// ========================================

func TestCountAnnotations(t *testing.T) {
	_, labelsDir := setupSource(t, 3)
	os.WriteFile(filepath.Join(labelsDir, "junk.txt"), []byte("bad line\n1 0.1 0.1 0.1 0.1\n"), 0644)
	os.WriteFile(filepath.Join(labelsDir, "readme.md"), []byte("0 0.1 0.1 0.1 0.1\n"), 0644)

	stats, err := CountAnnotations(labelsDir)
	if err != nil {
		t.Fatalf("CountAnnotations failed: %v", err)
	}
	if stats.LabelFiles != 4 || stats.TotalAnnotations != 4 {
		t.Errorf("Unexpected totals %+v", stats)
	}
	if stats.Counts[0] != 2 || stats.Counts[1] != 2 {
		t.Errorf("Unexpected counts %v", stats.Counts)
	}
	if stats.Percent(1) != 50 {
		t.Errorf("Expected 50%%, got %f", stats.Percent(1))
	}
}

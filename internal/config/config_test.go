package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CLASS_NAMES", "CONFIDENCE", "DETECTOR_BACKEND", "PASSWORD"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 5002 {
		t.Errorf("expected port 5002, got %d", cfg.Port)
	}
	if cfg.Confidence != 0.25 {
		t.Errorf("expected confidence 0.25, got %v", cfg.Confidence)
	}
	if cfg.DetectorBackend != BackendGoCV {
		t.Errorf("expected gocv backend, got %s", cfg.DetectorBackend)
	}
	want := []string{"straight", "L-shape", "U-shape", "complex"}
	if !reflect.DeepEqual(cfg.ClassNames, want) {
		t.Errorf("got classes %v, want %v", cfg.ClassNames, want)
	}
	if cfg.Password != "" {
		t.Error("authentication should be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CONFIDENCE", "0.6")
	t.Setenv("CLASS_NAMES", " cat, dog ,, bird ")
	t.Setenv("DATASET_ROOTS", "/data/a,/data/b")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.Confidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %v", cfg.Confidence)
	}
	if !reflect.DeepEqual(cfg.ClassNames, []string{"cat", "dog", "bird"}) {
		t.Errorf("unexpected classes %v", cfg.ClassNames)
	}
	if len(cfg.DatasetRoots) != 2 {
		t.Errorf("expected 2 dataset roots, got %v", cfg.DatasetRoots)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("PROCESSING_WORKERS", "many")

	if got := getEnvAsInt("PROCESSING_WORKERS", 3); got != 3 {
		t.Errorf("expected default 3, got %d", got)
	}
}

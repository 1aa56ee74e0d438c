package yolo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReader_ReadAll(t *testing.T) {
	input := "0 0.500000 0.500000 0.250000 0.125000\n\n  \n2.0 0.1 0.2 0.05 0.05\n"

	anns, err := NewReader(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}
	if anns[1].ClassID != 2 {
		t.Errorf("expected class 2, got %d", anns[1].ClassID)
	}
}

func TestReader_EmptyInput(t *testing.T) {
	anns, err := NewReader(strings.NewReader("")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if anns == nil || len(anns) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", anns)
	}
}

func TestReader_StrictError(t *testing.T) {
	input := "0 0.5 0.5 0.1 0.1\n1 0.5 0.5\n"

	_, err := NewReader(strings.NewReader(input)).ReadAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected line 2, got %d", pe.Line)
	}
	if !errors.Is(err, ErrFieldCount) {
		t.Errorf("expected ErrFieldCount in chain, got %v", err)
	}
}

func TestReader_Lenient(t *testing.T) {
	input := strings.Join([]string{
		"0 0.5 0.5 0.1 0.1",
		"garbage",
		"1.5 0.5 0.5 0.1 0.1",
		"1 0.5 0.5 1.2 0.1",
		"3 0.25 0.25 0.5 0.5",
	}, "\n")

	r := NewReader(strings.NewReader(input))
	r.Lenient = true
	anns, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(anns) != 3 {
		t.Errorf("expected 3 annotations, got %d", len(anns))
	}
	if r.Skipped != 2 {
		t.Errorf("expected 2 skipped lines, got %d", r.Skipped)
	}
	if r.Clamped != 1 {
		t.Errorf("expected 1 clamped line, got %d", r.Clamped)
	}
}

func TestReader_LenientClampsOvershoot(t *testing.T) {
	tests := []struct {
		line string
		want Annotation
	}{
		{"0 0.5 0.5 1.000001 0.4", Annotation{0, 0.5, 0.5, 1, 0.4}},
		{"2 -0.000001 0.5 0.1 0.1", Annotation{2, 0, 0.5, 0.1, 0.1}},
		{"1 0.5 1.2 0.1 0.1", Annotation{1, 0.5, 1, 0.1, 0.1}},
	}

	for _, tt := range tests {
		r := NewReader(strings.NewReader(tt.line))
		r.Lenient = true
		anns, err := r.ReadAll()
		if err != nil {
			t.Fatalf("%q: ReadAll failed: %v", tt.line, err)
		}
		if len(anns) != 1 || anns[0] != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.line, anns, tt.want)
		}
	}

	// Strict mode still rejects the line.
	_, err := NewReader(strings.NewReader("0 0.5 0.5 1.000001 0.4")).ReadAll()
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange in strict mode, got %v", err)
	}
}

func TestReader_LenientDropsNonFinite(t *testing.T) {
	r := NewReader(strings.NewReader("0 NaN 0.5 0.1 0.1\n-1 0.5 0.5 0.1 0.1\n0 0.5 0.5 Inf 0.1\n"))
	r.Lenient = true
	anns, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(anns) != 0 || r.Skipped != 3 {
		t.Errorf("expected 3 skipped lines, got %d annotations and %d skipped", len(anns), r.Skipped)
	}
}

func TestReader_LongLine(t *testing.T) {
	long := "0 0.5 0.5 0.1 0.1" + strings.Repeat(" junk", 20000)
	input := long + "\n1 0.25 0.25 0.5 0.5\n"

	r := NewReader(strings.NewReader(input))
	r.Lenient = true
	anns, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed on a %d byte line: %v", len(long), err)
	}
	if len(anns) != 1 || anns[0].ClassID != 1 {
		t.Errorf("expected the short line to survive, got %+v", anns)
	}
	if r.Skipped != 1 {
		t.Errorf("expected 1 skipped line, got %d", r.Skipped)
	}
}

func TestReader_NoTrailingNewline(t *testing.T) {
	anns, err := NewReader(strings.NewReader("0 0.5 0.5 0.1 0.1\n3 0.2 0.2 0.1 0.1")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(anns) != 2 || anns[1].ClassID != 3 {
		t.Errorf("expected last line to be read, got %+v", anns)
	}
}

func TestReadFileStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	content := "0 0.5 0.5 1.000001 0.4\nbroken line\n1 0.2 0.21 0.1 0.1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	anns, stats, err := ReadFileStats(path)
	if err != nil {
		t.Fatalf("ReadFileStats failed: %v", err)
	}
	if len(anns) != 2 {
		t.Errorf("expected 2 annotations, got %d", len(anns))
	}
	if stats != (ReadStats{Skipped: 1, Clamped: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteAll([]Annotation{
		{0, 0.5, 0.5, 0.25, 0.125},
		{3, 1.0 / 3, 2.0 / 3, 0.1, 0.2},
	})
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	want := "0 0.500000 0.500000 0.250000 0.125000\n3 0.333333 0.666667 0.100000 0.200000\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriter_RejectsInvalid(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(Annotation{0, 2, 0, 0, 0}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page_001.txt")
	anns := []Annotation{{1, 0.4, 0.6, 0.2, 0.3}}

	if err := WriteFile(path, anns); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != 1 || !annNear(got[0], anns[0], 1e-6) {
		t.Errorf("got %+v, want %+v", got, anns)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFile_EmptyMeansNoAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")

	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("label file should exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

package yolo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrFieldCount is returned for lines that do not have exactly five fields.
var ErrFieldCount = errors.New("expected 5 fields")

// ParseError describes a malformed label line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader reads annotations from a label file.
type Reader struct {
	// Lenient skips malformed lines instead of returning a *ParseError and
	// clamps finite coordinates that fall slightly outside [0,1].
	Lenient bool
	// Skipped counts lines dropped in lenient mode.
	Skipped int
	// Clamped counts lines whose coordinates were clamped in lenient mode.
	Clamped int

	br   *bufio.Reader
	line int
	err  error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Read returns the next annotation, or io.EOF when the input is exhausted.
// Blank lines are ignored. Lines of any length are accepted.
func (r *Reader) Read() (Annotation, error) {
	for r.err == nil {
		text, err := r.br.ReadString('\n')
		if err != nil {
			r.err = err
			if text == "" {
				break
			}
		}
		r.line++
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		a, err := parseFields(text)
		if err == nil {
			err = a.Validate()
			if err != nil && r.Lenient && errors.Is(err, ErrOutOfRange) && a.finite() {
				a, err = a.clampCoords(), nil
				r.Clamped++
			}
		}
		if err != nil {
			if r.Lenient {
				r.Skipped++
				continue
			}
			return Annotation{}, &ParseError{Line: r.line, Text: text, Err: err}
		}
		return a, nil
	}
	return Annotation{}, r.err
}

// ReadAll reads every remaining annotation.
func (r *Reader) ReadAll() ([]Annotation, error) {
	anns := []Annotation{}
	for {
		a, err := r.Read()
		if err == io.EOF {
			return anns, nil
		}
		if err != nil {
			return anns, err
		}
		anns = append(anns, a)
	}
}

// ParseLine parses a single `class cx cy w h` line.
func ParseLine(line string) (Annotation, error) {
	a, err := parseFields(line)
	if err != nil {
		return Annotation{}, err
	}
	if err := a.Validate(); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

// parseFields splits and converts a line without range checks.
func parseFields(line string) (Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Annotation{}, fmt.Errorf("%w, got %d", ErrFieldCount, len(fields))
	}

	classID, err := parseClass(fields[0])
	if err != nil {
		return Annotation{}, err
	}

	var vals [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Annotation{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		vals[i] = v
	}

	return Annotation{ClassID: classID, CX: vals[0], CY: vals[1], W: vals[2], H: vals[3]}, nil
}

// parseClass accepts "3" as well as integral floats such as "3.0".
func parseClass(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("class id: %w", err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("class id %q is not an integer", s)
	}
	return int(f), nil
}

// FormatLine renders an annotation the way it is stored on disk, without
// the trailing newline.
func FormatLine(a Annotation) string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", a.ClassID, a.CX, a.CY, a.W, a.H)
}

// Writer writes annotations as label lines.
type Writer struct {
	w   *bufio.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(a Annotation) error {
	if w.err != nil {
		return w.err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	_, w.err = w.w.WriteString(FormatLine(a) + "\n")
	return w.err
}

// WriteAll writes all annotations and flushes.
func (w *Writer) WriteAll(anns []Annotation) error {
	for _, a := range anns {
		if err := w.Write(a); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (w *Writer) Flush() {
	if w.err == nil {
		w.err = w.w.Flush()
	}
}

// Error reports any error from a previous Write or Flush.
func (w *Writer) Error() error { return w.err }

// ReadStats counts the lines a lenient read dropped or repaired.
type ReadStats struct {
	Skipped int
	Clamped int
}

// ReadFile reads a label file, skipping malformed lines.
func ReadFile(path string) ([]Annotation, error) {
	anns, _, err := ReadFileStats(path)
	return anns, err
}

// ReadFileStats is ReadFile that also reports skipped and clamped lines.
func ReadFileStats(path string) ([]Annotation, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer f.Close()

	r := NewReader(f)
	r.Lenient = true
	anns, err := r.ReadAll()
	return anns, ReadStats{Skipped: r.Skipped, Clamped: r.Clamped}, err
}

// WriteFile replaces path with the given annotations. The file is written
// to a temporary sibling and renamed into place.
func WriteFile(path string, anns []Annotation) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp label file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := NewWriter(tmp).WriteAll(anns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write labels: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close label file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set label file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace label file: %w", err)
	}
	return nil
}

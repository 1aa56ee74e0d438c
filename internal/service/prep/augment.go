package prep

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"

	"annotator/internal/service/storage"
	"annotator/internal/yolo"

	"github.com/disintegration/imaging"
)

// Op is an augmentation operation.
type Op string

const (
	OpHFlip    Op = "hflip"
	OpVFlip    Op = "vflip"
	OpBright   Op = "bright"
	OpContrast Op = "contrast"
	OpNoise    Op = "noise"
	OpDark     Op = "dark"
)

// AllOps lists the operations sampled from when none are given.
var AllOps = []Op{OpHFlip, OpVFlip, OpBright, OpContrast, OpNoise, OpDark}

const (
	brightFactor   = 1.3
	darkFactor     = 0.7
	contrastFactor = 1.3
	noiseSigma     = 20
)

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	for _, op := range AllOps {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown augmentation %q", s)
}

// AugmentOptions configures Augment. With Ops set, exactly those operations
// are applied to every image; otherwise Count operations are sampled.
type AugmentOptions struct {
	ImagesDir string
	LabelsDir string
	OutputDir string
	Count     int
	Ops       []Op
	Seed      int64
}

// AugmentReport counts what Augment wrote.
type AugmentReport struct {
	Pairs     int
	Augmented int
	Failed    int
	OutputDir string
}

// Augment copies every labeled image into OutputDir/images and
// OutputDir/labels and adds augmented variants named <stem>_aug_<op>.
func (s *Service) Augment(ctx context.Context, opts AugmentOptions) (*AugmentReport, error) {
	pairs, err := labeledPairs(opts.ImagesDir, opts.LabelsDir)
	if err != nil {
		return nil, err
	}

	outImages := filepath.Join(opts.OutputDir, storage.ImagesDirName)
	outLabels := filepath.Join(opts.OutputDir, storage.LabelsDirName)
	for _, dir := range []string{outImages, outLabels} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	report := &AugmentReport{Pairs: len(pairs), OutputDir: opts.OutputDir}
	s.logger.Info("Found %d image-label pairs to augment", len(pairs))

	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n, err := s.augmentPair(p, opts, outImages, outLabels, rng)
		report.Augmented += n
		if err != nil {
			s.logger.Warning("Failed to augment %s: %v", filepath.Base(p.Image), err)
			report.Failed++
		}
		if (i+1)%50 == 0 {
			s.logger.Info("Processed %d/%d images...", i+1, len(pairs))
		}
	}

	s.logger.Info("Augmentation complete: %d originals, %d augmented, %d failed",
		report.Pairs, report.Augmented, report.Failed)
	return report, nil
}

func (s *Service) augmentPair(p pair, opts AugmentOptions, outImages, outLabels string, rng *rand.Rand) (int, error) {
	anns, err := yolo.ReadFile(p.Label)
	if err != nil {
		return 0, err
	}
	img, err := imaging.Open(p.Image)
	if err != nil {
		return 0, err
	}

	stem := p.stem()
	ext := outputExt(p.Image)
	if err := copyFile(p.Image, filepath.Join(outImages, filepath.Base(p.Image))); err != nil {
		return 0, err
	}
	if err := copyFile(p.Label, filepath.Join(outLabels, stem+storage.LabelExt)); err != nil {
		return 0, err
	}

	ops := opts.Ops
	if len(ops) == 0 {
		ops = sampleOps(rng, opts.Count)
	}

	written := 0
	for _, op := range ops {
		out, outAnns := ApplyOp(img, op, anns, rng)

		name := fmt.Sprintf("%s_aug_%s", stem, op)
		if err := imaging.Save(out, filepath.Join(outImages, name+ext)); err != nil {
			s.logger.Warning("Failed to apply %s to %s: %v", op, filepath.Base(p.Image), err)
			continue
		}
		if err := yolo.WriteFile(filepath.Join(outLabels, name+storage.LabelExt), outAnns); err != nil {
			s.logger.Warning("Failed to write labels for %s: %v", name, err)
			continue
		}
		written++
	}
	return written, nil
}

// sampleOps picks n distinct operations.
func sampleOps(rng *rand.Rand, n int) []Op {
	if n > len(AllOps) {
		n = len(AllOps)
	}
	if n < 0 {
		n = 0
	}
	perm := rng.Perm(len(AllOps))
	ops := make([]Op, n)
	for i := range ops {
		ops[i] = AllOps[perm[i]]
	}
	return ops
}

// outputExt keeps the source extension when imaging can encode it.
func outputExt(path string) string {
	ext := filepath.Ext(path)
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return ".png"
	}
	return ext
}

// ApplyOp transforms an image and its annotations. Only flips move boxes.
func ApplyOp(img image.Image, op Op, anns []yolo.Annotation, rng *rand.Rand) (*image.NRGBA, []yolo.Annotation) {
	switch op {
	case OpHFlip:
		return imaging.FlipH(img), yolo.FlipHorizontal(anns)
	case OpVFlip:
		return imaging.FlipV(img), yolo.FlipVertical(anns)
	case OpBright:
		return scale(img, brightFactor), anns
	case OpDark:
		return scale(img, darkFactor), anns
	case OpContrast:
		return contrast(img, contrastFactor), anns
	case OpNoise:
		return noise(img, noiseSigma, rng), anns
	}
	return imaging.Clone(img), anns
}

func scale(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) * factor),
			G: clamp8(float64(c.G) * factor),
			B: clamp8(float64(c.B) * factor),
			A: c.A,
		}
	})
}

func contrast(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8((float64(c.R)-127.5)*factor + 127.5),
			G: clamp8((float64(c.G)-127.5)*factor + 127.5),
			B: clamp8((float64(c.B)-127.5)*factor + 127.5),
			A: c.A,
		}
	})
}

// noise adds gaussian noise per channel. It walks the pixels in order so the
// result only depends on the seed.
func noise(img image.Image, sigma float64, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = clamp8(float64(out.Pix[i+c]) + rng.NormFloat64()*sigma)
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

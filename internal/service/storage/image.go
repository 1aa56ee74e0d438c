package storage

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image kinds reported by the index and the API.
const (
	KindPNG  = "png"
	KindJPG  = "jpg"
	KindPDF  = "pdf"
	KindBMP  = "bmp"
	KindTIFF = "tiff"
	KindWebP = "webp"
)

const (
	// PDF pages are not rasterized; they are annotated against US Letter at 72 DPI.
	PDFPageWidth  = 612
	PDFPageHeight = 792

	// FallbackWidth and FallbackHeight are used for unreadable images.
	FallbackWidth  = 800
	FallbackHeight = 600
)

var kindsByExt = map[string]string{
	".png":  KindPNG,
	".jpg":  KindJPG,
	".jpeg": KindJPG,
	".pdf":  KindPDF,
	".bmp":  KindBMP,
	".tif":  KindTIFF,
	".tiff": KindTIFF,
	".webp": KindWebP,
}

// KindOf returns the image kind for a file name, or "" when unsupported.
func KindOf(name string) string {
	return kindsByExt[strings.ToLower(filepath.Ext(name))]
}

// IsRaster reports whether images of this kind can be decoded and run
// through the detector.
func IsRaster(kind string) bool {
	return kind != "" && kind != KindPDF
}

// Dimensions reads the image size from the file header. PDFs report the
// default page size. On failure it returns the fallback size together with
// the error so callers can decide whether to log it.
func Dimensions(path string) (width, height int, err error) {
	if KindOf(path) == KindPDF {
		return PDFPageWidth, PDFPageHeight, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FallbackWidth, FallbackHeight, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return FallbackWidth, FallbackHeight, err
	}
	return cfg.Width, cfg.Height, nil
}

// stem strips the extension from a file name.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sharpenKernel matches the classic 3x3 SHARPEN filter (scale 16).
var sharpenKernel = [9]float64{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// DefaultMaxPixels bounds the decoded size of a single image (about 8000x8000).
const DefaultMaxPixels = 64_000_000

// Preprocessor turns arbitrary raster bytes into a single-channel PNG tuned
// for OCR: grayscale, sharpened and contrast adjusted.
type Preprocessor struct {
	// ContrastFactor of 1.0 leaves contrast untouched.
	ContrastFactor float64
	// MaxPixels rejects images whose header declares more pixels than this.
	MaxPixels int64
}

func NewPreprocessor(contrastFactor float64, maxPixels int64) Preprocessor {
	if contrastFactor <= 0 {
		contrastFactor = 1.0
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return Preprocessor{ContrastFactor: contrastFactor, MaxPixels: maxPixels}
}

func (p Preprocessor) Prepare(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode image: empty payload")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); p.MaxPixels > 0 && pixels > p.MaxPixels {
		return nil, fmt.Errorf("decode image: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.Convolve3x3(img, sharpenKernel, &imaging.ConvolveOptions{Normalize: true})
	if p.ContrastFactor != 1.0 {
		img = imaging.AdjustContrast(img, (p.ContrastFactor-1)*100)
	}

	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

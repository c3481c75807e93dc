// Package imaging downsizes images before upload.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("unsupported or corrupt image")

// Options bound the compressed output.
type Options struct {
	// MaxDimension caps the longest side in pixels.
	MaxDimension int
	// TargetBytes is the size the encoder tries to get under.
	TargetBytes int
	// StartQuality and MinQuality bound the JPEG quality search.
	StartQuality int
	MinQuality   int
	// QualityStep is subtracted from the quality after each oversized attempt.
	QualityStep int
	// MaxPixels rejects images whose declared size would not fit in memory once decoded.
	MaxPixels int
}

// DefaultMaxPixels is 50 megapixels.
const DefaultMaxPixels = 50_000_000

// DefaultOptions downsizes to 1920 px and about 1 MiB.
var DefaultOptions = Options{
	MaxDimension: 1920,
	TargetBytes:  1 << 20,
	StartQuality: 90,
	MinQuality:   40,
	QualityStep:  10,
	MaxPixels:    DefaultMaxPixels,
}

// Result is the image to upload.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Compress is best effort: images already within both limits are returned as-is,
// everything else is scaled to fit MaxDimension and re-encoded as JPEG, lowering
// quality until the output fits TargetBytes or MinQuality is reached.
func Compress(data []byte, contentType string, opt Options) (Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	maxPixels := opt.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return Result{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}
	if len(data) <= opt.TargetBytes && fits(cfg.Width, cfg.Height, opt.MaxDimension) {
		return Result{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	dst := resize(src, opt.MaxDimension)

	var best []byte
	for q := opt.StartQuality; ; q -= opt.QualityStep {
		if q < opt.MinQuality {
			q = opt.MinQuality
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
			return Result{}, fmt.Errorf("encode jpeg: %w", err)
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
		}
		if buf.Len() <= opt.TargetBytes || q == opt.MinQuality || opt.QualityStep <= 0 {
			break
		}
	}

	b := dst.Bounds()
	return Result{Data: best, ContentType: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

func fits(w, h, limit int) bool {
	return limit <= 0 || (w <= limit && h <= limit)
}

// resize scales src so its longest side is at most limit, flattening alpha onto white.
func resize(src image.Image, limit int) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if !fits(w, h, limit) {
		if w >= h {
			h = h * limit / w
			w = limit
		} else {
			w = w * limit / h
			h = limit
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

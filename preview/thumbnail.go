// Package preview produces small inline previews from media content. It is
// a pure collaborator: callers feed it bytes (typically from Store.Data)
// and it owns no storage of its own.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "image/gif" // register GIF decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupported is returned for content no image decoder accepts.
var ErrUnsupported = errors.New("unsupported preview content")

// Default thumbnail bounds and encoding quality.
const (
	DefaultMaxWidth  = 300
	DefaultMaxHeight = 300
	DefaultQuality   = 85

	minQuality   = 10
	qualityDecay = 0.9
)

const (
	formatJPEG = "jpeg"
	formatPNG  = "png"
	formatGIF  = "gif"
)

// Config bounds a thumbnail. Zero values fall back to the defaults.
type Config struct {
	// MaxWidth and MaxHeight bound the thumbnail in pixels. The aspect
	// ratio is always preserved.
	MaxWidth  int
	MaxHeight int

	// Quality is the JPEG encoding quality (1-100).
	Quality int

	// MaxBytes caps the encoded size when > 0. JPEG output is re-encoded
	// at decreasing quality until it fits (or the quality floor is hit);
	// lossless output ignores the cap.
	MaxBytes int64
}

// DefaultConfig returns the standard 300x300 thumbnail configuration.
func DefaultConfig() Config {
	return Config{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxWidth <= 0 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}
	if c.Quality <= 0 {
		c.Quality = DefaultQuality
	}
	if c.MaxBytes < 0 {
		c.MaxBytes = 0
	}
	return c
}

// Thumbnail scales image content down to the configured bounds and returns
// the encoded result plus its format. Content already within bounds is
// returned unchanged; GIFs always pass through whole so animations
// survive. PNG input stays PNG, everything else re-encodes as JPEG.
func Thumbnail(data []byte, cfg Config) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty content", ErrUnsupported)
	}
	cfg = cfg.withDefaults()

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	// Re-encoding a GIF would flatten it to a single frame.
	if format == formatGIF {
		return data, format, nil
	}

	bounds := img.Bounds()
	width, height := targetSize(bounds.Dx(), bounds.Dy(), cfg.MaxWidth, cfg.MaxHeight)

	withinBytes := cfg.MaxBytes == 0 || int64(len(data)) <= cfg.MaxBytes
	if width == bounds.Dx() && height == bounds.Dy() && withinBytes {
		return data, format, nil
	}

	scaled := img
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		scaled = dst
	}

	out := formatJPEG
	if format == formatPNG {
		out = formatPNG
	}

	encoded, err := encode(scaled, out, cfg.Quality)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if out == formatJPEG && cfg.MaxBytes > 0 && int64(len(encoded)) > cfg.MaxBytes {
		encoded, err = shrinkToFit(scaled, cfg.Quality, cfg.MaxBytes)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
		}
	}

	return encoded, out, nil
}

// targetSize fits the source dimensions into the bounds, preserving the
// aspect ratio and never scaling up.
func targetSize(width, height, maxWidth, maxHeight int) (int, int) {
	outW, outH := width, height

	if maxWidth > 0 && outW > maxWidth {
		ratio := float64(maxWidth) / float64(outW)
		outW = maxWidth
		outH = int(float64(outH) * ratio)
	}
	if maxHeight > 0 && outH > maxHeight {
		ratio := float64(maxHeight) / float64(outH)
		outH = maxHeight
		outW = int(float64(outW) * ratio)
	}

	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case formatPNG:
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}

	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// shrinkToFit re-encodes at decreasing JPEG quality until the result fits
// maxBytes. The floor-quality result is returned even if still over.
func shrinkToFit(img image.Image, startQuality int, maxBytes int64) ([]byte, error) {
	quality := startQuality

	for quality >= minQuality {
		encoded, err := encode(img, formatJPEG, quality)
		if err != nil {
			return nil, err
		}
		if int64(len(encoded)) <= maxBytes {
			return encoded, nil
		}
		quality = int(float64(quality) * qualityDecay)
	}

	return encode(img, formatJPEG, minQuality)
}

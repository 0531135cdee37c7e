package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

// createTestImage builds an encoded test image with a per-pixel pattern so
// JPEG output keeps a realistic size.
func createTestImage(width, height int, format string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*31 + y*17) % 256),
				G: uint8((x*13 + y*41) % 256),
				B: uint8((x*7 + y*3) % 256),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		_ = png.Encode(&buf, img)
	default:
		_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: DefaultQuality})
	}
	return buf.Bytes()
}

// decodeResult decodes thumbnail output for dimension checks.
func decodeResult(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail output did not decode: %v", err)
	}
	return img, format
}

func TestThumbnail_Downscale(t *testing.T) {
	data := createTestImage(600, 400, "jpeg")

	out, format, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected format 'jpeg', got %q", format)
	}

	img, _ := decodeResult(t, out)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 300 || h != 200 {
		t.Errorf("Expected 300x200, got %dx%d", w, h)
	}
}

func TestThumbnail_PortraitAspect(t *testing.T) {
	data := createTestImage(400, 800, "jpeg")

	out, _, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	img, _ := decodeResult(t, out)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 150 || h != 300 {
		t.Errorf("Expected 150x300, got %dx%d", w, h)
	}
}

func TestThumbnail_WithinBoundsUnchanged(t *testing.T) {
	data := createTestImage(200, 150, "jpeg")

	out, format, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("Expected content within bounds to pass through unchanged")
	}
	if format != "jpeg" {
		t.Errorf("Expected format 'jpeg', got %q", format)
	}
}

func TestThumbnail_PNGStaysPNG(t *testing.T) {
	data := createTestImage(600, 600, "png")

	out, format, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected format 'png', got %q", format)
	}

	img, decoded := decodeResult(t, out)
	if decoded != "png" {
		t.Errorf("Expected PNG output, got %q", decoded)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 300 || h != 300 {
		t.Errorf("Expected 300x300, got %dx%d", w, h)
	}
}

func TestThumbnail_GIFPassesThrough(t *testing.T) {
	palette := color.Palette{color.White, color.Black, color.RGBA{R: 255, A: 255}}
	frame1 := image.NewPaletted(image.Rect(0, 0, 500, 500), palette)
	frame2 := image.NewPaletted(image.Rect(0, 0, 500, 500), palette)
	for i := range frame2.Pix {
		frame2.Pix[i] = uint8((i + 1) % 3)
	}

	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{frame1, frame2},
		Delay: []int{10, 10},
	})
	if err != nil {
		t.Fatalf("failed to build GIF fixture: %v", err)
	}
	data := buf.Bytes()

	out, format, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if format != "gif" {
		t.Errorf("Expected format 'gif', got %q", format)
	}
	if !bytes.Equal(out, data) {
		t.Error("Expected GIF to pass through untouched")
	}
}

func TestThumbnail_NeverUpscales(t *testing.T) {
	data := createTestImage(100, 80, "jpeg")

	out, _, err := Thumbnail(data, Config{MaxWidth: 1000, MaxHeight: 1000})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("Expected small content to pass through unchanged")
	}
}

func TestThumbnail_ZeroConfigUsesDefaults(t *testing.T) {
	data := createTestImage(900, 900, "jpeg")

	out, _, err := Thumbnail(data, Config{})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	img, _ := decodeResult(t, out)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != DefaultMaxWidth || h != DefaultMaxHeight {
		t.Errorf("Expected %dx%d, got %dx%d", DefaultMaxWidth, DefaultMaxHeight, w, h)
	}
}

func TestThumbnail_MaxBytesReducesQuality(t *testing.T) {
	data := createTestImage(800, 800, "jpeg")

	uncapped, _, err := Thumbnail(data, DefaultConfig())
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.MaxBytes = int64(len(uncapped)) - 1
	capped, format, err := Thumbnail(data, cfg)
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected format 'jpeg', got %q", format)
	}
	if len(capped) >= len(uncapped) {
		t.Errorf("Expected capped output below %d bytes, got %d", len(uncapped), len(capped))
	}
	decodeResult(t, capped)
}

func TestThumbnail_RejectsNonImage(t *testing.T) {
	if _, _, err := Thumbnail([]byte("just some text"), DefaultConfig()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if _, _, err := Thumbnail(nil, DefaultConfig()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

package media

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Media categories. Anything that is not image, audio or video is a plain
// file.
const (
	CategoryImage = "image"
	CategoryAudio = "audio"
	CategoryVideo = "video"
	CategoryFile  = "file"
)

// MIME types the store commonly sees, named in one place for tests and the
// preview pipeline.
const (
	MIMETypeImageJPEG = "image/jpeg"
	MIMETypeImagePNG  = "image/png"
	MIMETypeImageGIF  = "image/gif"
	MIMETypeImageWebP = "image/webp"

	MIMETypeAudioMP3 = "audio/mpeg"
	MIMETypeAudioWAV = "audio/wav"

	MIMETypeVideoMP4 = "video/mp4"
)

// formatRemap fixes MIME subtypes whose conventional extension differs from
// the subtype itself, so managed file names come out as media.mp3 rather
// than media.mpeg.
var formatRemap = map[string]string{
	"audio/mpeg":   "mp3",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/x-m4a":  "m4a",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

// Detection is a sniff result.
type Detection struct {
	Category string // CategoryImage, CategoryAudio, CategoryVideo or CategoryFile
	Format   string // extension-style format, e.g. "png", "mp3"
	MIME     string // detected MIME type without parameters
}

// Sniffer classifies content. The store uses MagicSniffer unless another
// implementation is injected through WithSniffer.
type Sniffer interface {
	Detect(data []byte) (Detection, error)
	DetectFile(path string) (Detection, error)
}

// MagicSniffer detects content types by magic bytes, never by file
// extension.
type MagicSniffer struct{}

// Detect implements Sniffer.
func (MagicSniffer) Detect(data []byte) (Detection, error) { return Sniff(data) }

// DetectFile implements Sniffer.
func (MagicSniffer) DetectFile(path string) (Detection, error) { return SniffFile(path) }

// Sniff detects the category and format of in-memory content by magic
// bytes. Empty content cannot be classified and is rejected.
func Sniff(data []byte) (Detection, error) {
	if len(data) == 0 {
		return Detection{}, fmt.Errorf("%w: cannot sniff empty content", ErrInvalidArgument)
	}
	return fromMIME(mimetype.Detect(data)), nil
}

// SniffFile detects the category and format of a file on disk.
func SniffFile(path string) (Detection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	if info.Size() == 0 {
		return Detection{}, fmt.Errorf("%w: cannot sniff empty file %s", ErrInvalidArgument, path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	return fromMIME(mtype), nil
}

func fromMIME(m *mimetype.MIME) Detection {
	mime := m.String()
	// Drop parameters such as "; charset=utf-8" so text/plain yields the
	// format "plain", not "plain; charset=utf-8".
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	category := CategoryFile
	switch {
	case strings.HasPrefix(mime, "image/"):
		category = CategoryImage
	case strings.HasPrefix(mime, "audio/"):
		category = CategoryAudio
	case strings.HasPrefix(mime, "video/"):
		category = CategoryVideo
	}

	format := mime
	if i := strings.Index(mime, "/"); i >= 0 {
		format = mime[i+1:]
	}
	if mapped, ok := formatRemap[mime]; ok {
		format = mapped
	}

	return Detection{Category: category, Format: format, MIME: mime}
}

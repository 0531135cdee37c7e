package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture payloads carry just enough magic bytes for detection. None of them
// are complete files.
func fixturePNG() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
}

func fixtureJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
}

func fixtureMP4() []byte {
	return append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypisomisomiso2avc1mp41")...)
}

func TestSniffClassifications(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		category string
		format   string
		mime     string
	}{
		{"png", fixturePNG(), CategoryImage, "png", "image/png"},
		{"jpeg", fixtureJPEG(), CategoryImage, "jpeg", "image/jpeg"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), CategoryImage, "gif", "image/gif"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), CategoryImage, "webp", "image/webp"},
		{"mp3 with id3 tag", []byte("ID3\x03\x00\x00\x00\x00\x00\x00"), CategoryAudio, "mp3", "audio/mpeg"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00, 0x00, 0x00}, CategoryAudio, "mp3", "audio/mpeg"},
		{"wav", []byte("RIFF\x24\x08\x00\x00WAVEfmt "), CategoryAudio, "wav", "audio/wav"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), CategoryAudio, "flac", "audio/flac"},
		{"mp4", fixtureMP4(), CategoryVideo, "mp4", "video/mp4"},
		{"avi", []byte("RIFF\x00\x00\x00\x00AVI LIST"), CategoryVideo, "x-msvideo", "video/x-msvideo"},
		{"pdf", []byte("%PDF-1.7\n"), CategoryFile, "pdf", "application/pdf"},
		{"plain text", []byte("plain text content\n"), CategoryFile, "plain", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := Sniff(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.category, det.Category)
			assert.Equal(t, tt.format, det.Format)
			assert.Equal(t, tt.mime, det.MIME)
		})
	}
}

func TestSniffStripsMIMEParameters(t *testing.T) {
	det, err := Sniff([]byte("no charset suffix wanted here\n"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", det.MIME)
	assert.Equal(t, "plain", det.Format)
}

func TestSniffEmptyContent(t *testing.T) {
	_, err := Sniff(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Sniff([]byte{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSniffFile(t *testing.T) {
	t.Run("detects by content not extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "image.dat")
		require.NoError(t, os.WriteFile(path, fixturePNG(), 0o600))

		det, err := SniffFile(path)
		require.NoError(t, err)
		assert.Equal(t, CategoryImage, det.Category)
		assert.Equal(t, "png", det.Format)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.bin")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := SniffFile(path)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("fails on missing file", func(t *testing.T) {
		_, err := SniffFile(filepath.Join(t.TempDir(), "nope.bin"))
		assert.Error(t, err)
	})
}

func TestMagicSnifferImplementsSniffer(t *testing.T) {
	var sn Sniffer = MagicSniffer{}

	det, err := sn.Detect(fixtureJPEG())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", det.Format)

	path := filepath.Join(t.TempDir(), "clip")
	require.NoError(t, os.WriteFile(path, fixtureMP4(), 0o600))
	det, err = sn.DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, CategoryVideo, det.Category)
}

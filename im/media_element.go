package im

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AltairaLabs/MediaKit/media"
)

// mediaWire is the serialized form shared by the media element kinds.
// Only the id crosses the wire; content stays in the store.
type mediaWire struct {
	Type    string `json:"type"`
	MediaID string `json:"media_id"`
	Format  string `json:"format,omitempty"`
}

// MediaElement is the common surface of the media-backed element kinds.
// Adapters that only move content around can work against it instead of
// switching over the concrete types.
type MediaElement interface {
	Element

	MediaID() string
	Attached() bool
	Attach(store *media.Store) error
	Metadata() (*media.Record, error)
	Data(ctx context.Context) ([]byte, error)
	Path(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Base64URL(ctx context.Context) (string, error)
}

// mediaElement is the store-backed core shared by ImageElement,
// VoiceElement, VideoElement and FileElement. A decoded element starts
// detached (nil handle) and must be attached before its accessors work.
type mediaElement struct {
	id     string
	handle *media.Handle
}

// elementOpts prepends message ownership to caller options: a fresh
// im_message reference keeps the entry alive until the owning pipeline
// unbinds it. Caller options come later so they can override.
func elementOpts(opts []media.RegisterOption) []media.RegisterOption {
	base := []media.RegisterOption{
		media.WithReference("im_message_" + uuid.NewString()),
		media.WithSource("im_message"),
	}
	return append(base, opts...)
}

// MediaID returns the wrapped media id.
func (e *mediaElement) MediaID() string { return e.id }

// Handle returns the underlying handle, or nil while detached.
func (e *mediaElement) Handle() *media.Handle { return e.handle }

// Attached reports whether accessors can reach a store.
func (e *mediaElement) Attached() bool { return e.handle != nil }

// Attach binds a decoded element to a store. The wrapped id must be
// known to the store; nothing is registered and no reference is added.
func (e *mediaElement) Attach(store *media.Store) error {
	h, err := media.NewHandle(store, e.id)
	if err != nil {
		return err
	}
	e.handle = h
	return nil
}

func (e *mediaElement) detached() error {
	return fmt.Errorf("%w: element for media %s has no store", media.ErrUnavailable, e.id)
}

// Metadata returns the entry's current record.
func (e *mediaElement) Metadata() (*media.Record, error) {
	if e.handle == nil {
		return nil, e.detached()
	}
	return e.handle.Metadata()
}

// Data returns the content bytes.
func (e *mediaElement) Data(ctx context.Context) ([]byte, error) {
	if e.handle == nil {
		return nil, e.detached()
	}
	return e.handle.Data(ctx)
}

// Path returns a local file path holding the content.
func (e *mediaElement) Path(ctx context.Context) (string, error) {
	if e.handle == nil {
		return "", e.detached()
	}
	return e.handle.Path(ctx)
}

// URL returns an adapter-facing URL for the content.
func (e *mediaElement) URL(ctx context.Context) (string, error) {
	if e.handle == nil {
		return "", e.detached()
	}
	return e.handle.URL(ctx)
}

// Base64URL returns a data URI for the content, for platforms that only
// take inline payloads.
func (e *mediaElement) Base64URL(ctx context.Context) (string, error) {
	if e.handle == nil {
		return "", e.detached()
	}
	return e.handle.Base64URL(ctx)
}

// marshalAs serializes the element under the given discriminator. The
// format is included when the store already knows it; detached elements
// emit the id alone.
func (e *mediaElement) marshalAs(kind string) ([]byte, error) {
	w := mediaWire{Type: kind, MediaID: e.id}
	if e.handle != nil {
		if rec, err := e.handle.Metadata(); err == nil {
			w.Format = rec.Format
		}
	}
	return json.Marshal(w)
}

// ImageElement is a picture backed by the media store.
type ImageElement struct {
	mediaElement
}

// NewImageElement wraps an already-registered media id.
func NewImageElement(store *media.Store, mediaID string) (*ImageElement, error) {
	h, err := media.NewHandle(store, mediaID)
	if err != nil {
		return nil, err
	}
	return &ImageElement{mediaElement{id: mediaID, handle: h}}, nil
}

// NewImageElementFromURL registers an image fetched on first access.
func NewImageElementFromURL(ctx context.Context, store *media.Store, rawURL string, opts ...media.RegisterOption) (*ImageElement, error) {
	h, err := media.NewHandleFromURL(ctx, store, rawURL, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &ImageElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewImageElementFromPath registers an image from a local file.
func NewImageElementFromPath(ctx context.Context, store *media.Store, path string, opts ...media.RegisterOption) (*ImageElement, error) {
	h, err := media.NewHandleFromPath(ctx, store, path, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &ImageElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewImageElementFromBytes registers an image from an in-memory payload.
func NewImageElementFromBytes(ctx context.Context, store *media.Store, data []byte, opts ...media.RegisterOption) (*ImageElement, error) {
	h, err := media.NewHandleFromBytes(ctx, store, data, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &ImageElement{mediaElement{id: h.ID(), handle: h}}, nil
}

func (e *ImageElement) Kind() string    { return KindImage }
func (e *ImageElement) ToPlain() string { return "[Image:" + e.id + "]" }

func (e *ImageElement) MarshalJSON() ([]byte, error) { return e.marshalAs(KindImage) }

// VoiceElement is a voice clip backed by the media store.
type VoiceElement struct {
	mediaElement
}

// NewVoiceElement wraps an already-registered media id.
func NewVoiceElement(store *media.Store, mediaID string) (*VoiceElement, error) {
	h, err := media.NewHandle(store, mediaID)
	if err != nil {
		return nil, err
	}
	return &VoiceElement{mediaElement{id: mediaID, handle: h}}, nil
}

// NewVoiceElementFromURL registers a voice clip fetched on first access.
func NewVoiceElementFromURL(ctx context.Context, store *media.Store, rawURL string, opts ...media.RegisterOption) (*VoiceElement, error) {
	h, err := media.NewHandleFromURL(ctx, store, rawURL, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VoiceElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewVoiceElementFromPath registers a voice clip from a local file.
func NewVoiceElementFromPath(ctx context.Context, store *media.Store, path string, opts ...media.RegisterOption) (*VoiceElement, error) {
	h, err := media.NewHandleFromPath(ctx, store, path, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VoiceElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewVoiceElementFromBytes registers a voice clip from an in-memory payload.
func NewVoiceElementFromBytes(ctx context.Context, store *media.Store, data []byte, opts ...media.RegisterOption) (*VoiceElement, error) {
	h, err := media.NewHandleFromBytes(ctx, store, data, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VoiceElement{mediaElement{id: h.ID(), handle: h}}, nil
}

func (e *VoiceElement) Kind() string    { return KindVoice }
func (e *VoiceElement) ToPlain() string { return "[Voice:" + e.id + "]" }

func (e *VoiceElement) MarshalJSON() ([]byte, error) { return e.marshalAs(KindVoice) }

// VideoElement is a video backed by the media store.
type VideoElement struct {
	mediaElement
}

// NewVideoElement wraps an already-registered media id.
func NewVideoElement(store *media.Store, mediaID string) (*VideoElement, error) {
	h, err := media.NewHandle(store, mediaID)
	if err != nil {
		return nil, err
	}
	return &VideoElement{mediaElement{id: mediaID, handle: h}}, nil
}

// NewVideoElementFromURL registers a video fetched on first access.
func NewVideoElementFromURL(ctx context.Context, store *media.Store, rawURL string, opts ...media.RegisterOption) (*VideoElement, error) {
	h, err := media.NewHandleFromURL(ctx, store, rawURL, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VideoElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewVideoElementFromPath registers a video from a local file.
func NewVideoElementFromPath(ctx context.Context, store *media.Store, path string, opts ...media.RegisterOption) (*VideoElement, error) {
	h, err := media.NewHandleFromPath(ctx, store, path, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VideoElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewVideoElementFromBytes registers a video from an in-memory payload.
func NewVideoElementFromBytes(ctx context.Context, store *media.Store, data []byte, opts ...media.RegisterOption) (*VideoElement, error) {
	h, err := media.NewHandleFromBytes(ctx, store, data, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &VideoElement{mediaElement{id: h.ID(), handle: h}}, nil
}

func (e *VideoElement) Kind() string    { return KindVideo }
func (e *VideoElement) ToPlain() string { return "[Video:" + e.id + "]" }

func (e *VideoElement) MarshalJSON() ([]byte, error) { return e.marshalAs(KindVideo) }

// FileElement is an arbitrary attachment backed by the media store.
type FileElement struct {
	mediaElement
}

// NewFileElement wraps an already-registered media id.
func NewFileElement(store *media.Store, mediaID string) (*FileElement, error) {
	h, err := media.NewHandle(store, mediaID)
	if err != nil {
		return nil, err
	}
	return &FileElement{mediaElement{id: mediaID, handle: h}}, nil
}

// NewFileElementFromURL registers an attachment fetched on first access.
func NewFileElementFromURL(ctx context.Context, store *media.Store, rawURL string, opts ...media.RegisterOption) (*FileElement, error) {
	h, err := media.NewHandleFromURL(ctx, store, rawURL, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &FileElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewFileElementFromPath registers an attachment from a local file.
func NewFileElementFromPath(ctx context.Context, store *media.Store, path string, opts ...media.RegisterOption) (*FileElement, error) {
	h, err := media.NewHandleFromPath(ctx, store, path, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &FileElement{mediaElement{id: h.ID(), handle: h}}, nil
}

// NewFileElementFromBytes registers an attachment from an in-memory payload.
func NewFileElementFromBytes(ctx context.Context, store *media.Store, data []byte, opts ...media.RegisterOption) (*FileElement, error) {
	h, err := media.NewHandleFromBytes(ctx, store, data, elementOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &FileElement{mediaElement{id: h.ID(), handle: h}}, nil
}

func (e *FileElement) Kind() string    { return KindFile }
func (e *FileElement) ToPlain() string { return "[File:" + e.id + "]" }

func (e *FileElement) MarshalJSON() ([]byte, error) { return e.marshalAs(KindFile) }

package media

import (
	"context"
	"encoding/base64"
	"sync"
)

// cellState tracks one cached accessor result.
type cellState int

const (
	cellUnresolved cellState = iota // never attempted
	cellResolved                    // value cached for the life of the handle
	cellFailed                      // last attempt failed; the next call retries
)

// cached is a one-shot cache cell: a success sticks, a failure is retried
// on the next call.
type cached[T any] struct {
	mu    sync.Mutex
	state cellState
	val   T
}

func (c *cached[T]) get(resolve func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == cellResolved {
		return c.val, nil
	}

	val, err := resolve()
	if err != nil {
		c.state = cellFailed
		var zero T
		return zero, err
	}
	c.state = cellResolved
	c.val = val
	return val, nil
}

// Handle is a per-entry convenience wrapper over a Store. Accessor results
// are cached per handle, so passing one handle around a message pipeline
// costs at most one materialization; a fresh handle for the same id always
// re-queries the store.
type Handle struct {
	store *Store
	id    string

	data cached[[]byte]
	path cached[string]
	url  cached[string]
}

// NewHandle wraps an existing entry. The id must be known to the store.
func NewHandle(store *Store, id string) (*Handle, error) {
	if _, err := store.GetMetadata(id); err != nil {
		return nil, err
	}
	return &Handle{store: store, id: id}, nil
}

// NewHandleFromURL registers media to be fetched on first access and wraps
// it.
func NewHandleFromURL(ctx context.Context, store *Store, rawURL string, opts ...RegisterOption) (*Handle, error) {
	id, err := store.RegisterFromURL(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle{store: store, id: id}, nil
}

// NewHandleFromPath registers media from an existing local file and wraps
// it.
func NewHandleFromPath(ctx context.Context, store *Store, path string, opts ...RegisterOption) (*Handle, error) {
	id, err := store.RegisterFromPath(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle{store: store, id: id}, nil
}

// NewHandleFromBytes registers media from an in-memory payload and wraps
// it.
func NewHandleFromBytes(ctx context.Context, store *Store, data []byte, opts ...RegisterOption) (*Handle, error) {
	id, err := store.RegisterFromBytes(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle{store: store, id: id}, nil
}

// ID returns the wrapped media id.
func (h *Handle) ID() string {
	return h.id
}

// Metadata returns the entry's current record. Never cached: reference
// counts and detection results move underneath the handle.
func (h *Handle) Metadata() (*Record, error) {
	return h.store.GetMetadata(h.id)
}

// Data returns the content bytes.
func (h *Handle) Data(ctx context.Context) ([]byte, error) {
	return h.data.get(func() ([]byte, error) {
		return h.store.Data(ctx, h.id)
	})
}

// Path returns a local file path holding the content.
func (h *Handle) Path(ctx context.Context) (string, error) {
	return h.path.get(func() (string, error) {
		return h.store.FilePath(ctx, h.id)
	})
}

// URL returns an adapter-facing URL for the content.
func (h *Handle) URL(ctx context.Context) (string, error) {
	return h.url.get(func() (string, error) {
		return h.store.URL(ctx, h.id)
	})
}

// Base64 returns the content bytes base64-encoded.
func (h *Handle) Base64(ctx context.Context) (string, error) {
	data, err := h.Data(ctx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Base64URL returns a data URI for the content regardless of origin, for
// platforms that only take inline payloads.
func (h *Handle) Base64URL(ctx context.Context) (string, error) {
	data, err := h.Data(ctx)
	if err != nil {
		return "", err
	}
	rec, err := h.store.GetMetadata(h.id)
	if err != nil {
		return "", err
	}

	category, format := rec.Category, rec.Format
	if format == "" {
		if det, err := h.store.sniffer.Detect(data); err == nil {
			category, format = det.Category, det.Format
		} else {
			category, format = CategoryFile, "bin"
		}
	}
	return "data:" + category + "/" + format + ";base64," +
		base64.StdEncoding.EncodeToString(data), nil
}

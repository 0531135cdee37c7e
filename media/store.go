// Package media manages the lifecycle of chat media: registration from a
// URL, a local file or raw bytes, lazy materialization of managed content,
// reference counting and garbage collection of unreferenced entries.
package media

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/AltairaLabs/MediaKit/events"
	"github.com/AltairaLabs/MediaKit/fetch"
	"github.com/AltairaLabs/MediaKit/logger"
	"github.com/AltairaLabs/MediaKit/refdir"
	"github.com/AltairaLabs/MediaKit/tasks"
)

const tracerName = "github.com/AltairaLabs/MediaKit/media"

// Store is the single source of truth for media records and the exclusive
// owner of its base directory. It is safe for concurrent use and is passed
// by reference to everything that touches media; there is no process-wide
// instance.
//
// Records are kept in an in-memory index backed by one JSON document per
// entry; content files are materialized lazily. Bytes supplied at
// registration are held in memory until a managed-file flush succeeds, so a
// failed background flush is retried on the next accessor call.
type Store struct {
	layout    *layout
	fetcher   *fetch.Fetcher
	runner    tasks.Runner
	emitter   *events.Emitter
	sniffer   Sniffer
	tracer    trace.Tracer
	directory refdir.Directory

	// ownedRunner is set when the store built its own pool; Close drains it.
	ownedRunner *tasks.Pool

	mu      sync.RWMutex
	records map[string]*Record
	order   []string // ids in insertion order (creation time order after load)
	pending map[string][]byte
	corrupt map[string]error // quarantined ids from the startup scan

	ensure singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithFetcher sets the fetcher used for URL-backed content.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Store) {
		s.fetcher = f
	}
}

// WithRunner sets the runner for background materialization. The caller
// keeps ownership; Close will not drain an injected runner.
func WithRunner(r tasks.Runner) Option {
	return func(s *Store) {
		s.runner = r
	}
}

// WithEventBus publishes lifecycle events to the given bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(s *Store) {
		s.emitter = events.NewEmitter(bus)
	}
}

// WithSniffer overrides content type detection.
func WithSniffer(sn Sniffer) Option {
	return func(s *Store) {
		s.sniffer = sn
	}
}

// WithTracer sets the tracer for materialization spans. The default is the
// globally registered provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = t
	}
}

// WithDirectory attaches a reference directory. Sweep passes skip entries
// the directory reports as claimed.
func WithDirectory(d refdir.Directory) Option {
	return func(s *Store) {
		s.directory = d
	}
}

// NewStore opens (or creates) a media store rooted at baseDir and loads all
// persisted metadata. Documents that fail schema validation are quarantined
// and logged, never fatal.
func NewStore(baseDir string, opts ...Option) (*Store, error) {
	l, err := newLayout(baseDir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		layout:  l,
		emitter: events.NewEmitter(nil),
		sniffer: MagicSniffer{},
		tracer:  otel.Tracer(tracerName),
		records: make(map[string]*Record),
		pending: make(map[string][]byte),
		corrupt: make(map[string]error),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = fetch.New()
	}
	if s.runner == nil {
		pool := tasks.NewPool(tasks.DefaultPoolConfig())
		s.runner = pool
		s.ownedRunner = pool
	}

	if err := s.loadAll(); err != nil {
		if s.ownedRunner != nil {
			_ = s.ownedRunner.Shutdown(context.Background())
		}
		return nil, err
	}

	logger.Info("📀 Media Store Opened",
		"base_dir", s.layout.baseDir,
		"records", len(s.records),
		"quarantined", len(s.corrupt),
	)
	return s, nil
}

// loadAll scans the metadata directory and rebuilds the index in creation
// order. Unreadable or invalid documents are quarantined by id.
func (s *Store) loadAll() error {
	ids, err := s.layout.listIDs()
	if err != nil {
		return err
	}

	loaded := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.layout.loadRecord(id)
		if err != nil {
			s.corrupt[id] = err
			logger.Error("🚨 Corrupt Media Metadata Skipped", "media_id", id, "error", err)
			continue
		}
		loaded = append(loaded, rec)
	}

	sort.Slice(loaded, func(i, j int) bool {
		if loaded[i].CreatedAt.Equal(loaded[j].CreatedAt) {
			return loaded[i].ID < loaded[j].ID
		}
		return loaded[i].CreatedAt.Before(loaded[j].CreatedAt)
	})

	for _, rec := range loaded {
		s.records[rec.ID] = rec
		s.order = append(s.order, rec.ID)
	}
	return nil
}

// Close drains the store's own background runner. Injected runners belong
// to the caller and are left running.
func (s *Store) Close() error {
	if s.ownedRunner != nil {
		return s.ownedRunner.Shutdown(context.Background())
	}
	return nil
}

// registerOptions collects the optional attributes of a registration.
type registerOptions struct {
	category    string
	format      string
	size        int64
	source      string
	description string
	tags        []string
	reference   string
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

// WithCategory presets the category, skipping detection for it.
func WithCategory(category string) RegisterOption {
	return func(o *registerOptions) {
		o.category = category
	}
}

// WithFormat presets the format, skipping detection for it.
func WithFormat(format string) RegisterOption {
	return func(o *registerOptions) {
		o.format = format
	}
}

// WithSize presets the content size in bytes.
func WithSize(n int64) RegisterOption {
	return func(o *registerOptions) {
		o.size = n
	}
}

// WithSource records where the media came from (a chat adapter name, an
// importer, a user upload path).
func WithSource(source string) RegisterOption {
	return func(o *registerOptions) {
		o.source = source
	}
}

// WithDescription attaches a human-readable description.
func WithDescription(description string) RegisterOption {
	return func(o *registerOptions) {
		o.description = description
	}
}

// WithTags attaches tags, deduplicated in order.
func WithTags(tags ...string) RegisterOption {
	return func(o *registerOptions) {
		o.tags = tags
	}
}

// WithReference registers the entry with an initial owner. Without one the
// entry starts unreferenced and lives only until the next sweep.
func WithReference(ref string) RegisterOption {
	return func(o *registerOptions) {
		o.reference = ref
	}
}

// Register adds a media entry backed by the given origin and returns its
// id. The metadata document is persisted before Register returns; managed
// content is produced in the background for path and bytes origins, and on
// first access for URL origins (no network I/O here).
func (s *Store) Register(ctx context.Context, origin Origin, opts ...RegisterOption) (string, error) {
	var ro registerOptions
	for _, opt := range opts {
		opt(&ro)
	}

	rec := &Record{
		ID:          uuid.NewString(),
		Category:    ro.category,
		Format:      ro.format,
		Size:        ro.size,
		CreatedAt:   time.Now().UTC(),
		Source:      ro.source,
		Description: ro.description,
	}
	for _, tag := range ro.tags {
		rec.Tags, _ = appendUnique(rec.Tags, tag)
	}
	if ro.reference != "" {
		rec.References = []string{ro.reference}
	}

	var pendingData []byte

	switch o := origin.(type) {
	case URLOrigin:
		if o.URL == "" {
			return "", fmt.Errorf("%w: origin URL is empty", ErrInvalidArgument)
		}
		rec.URL = o.URL

	case PathOrigin:
		if o.Path == "" {
			return "", fmt.Errorf("%w: origin path is empty", ErrInvalidArgument)
		}
		rec.Path = o.Path
		if rec.Size == 0 {
			if info, err := os.Stat(o.Path); err == nil && !info.IsDir() {
				rec.Size = info.Size()
			}
		}
		if rec.Category == "" || rec.Format == "" {
			if det, err := s.sniffer.DetectFile(o.Path); err == nil {
				s.fillDetection(rec, det)
			} else {
				logger.Debug("Origin file not sniffable at registration",
					"media_id", rec.ID, "path", o.Path, "error", err)
			}
		}

	case BytesOrigin:
		if len(o.Data) == 0 {
			return "", fmt.Errorf("%w: origin bytes are empty", ErrInvalidArgument)
		}
		pendingData = make([]byte, len(o.Data))
		copy(pendingData, o.Data)
		if rec.Size == 0 {
			rec.Size = int64(len(o.Data))
		}
		if rec.Category == "" || rec.Format == "" {
			det, err := s.sniffer.Detect(pendingData)
			if err != nil {
				return "", fmt.Errorf("failed to detect content type: %w", err)
			}
			s.fillDetection(rec, det)
		}

	default:
		return "", fmt.Errorf("%w: origin is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	if err := s.layout.saveRecord(rec); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	if pendingData != nil {
		s.pending[rec.ID] = pendingData
	}
	kind, category, format, size := origin.Kind(), rec.Category, rec.Format, rec.Size
	s.mu.Unlock()

	// Content already at hand (bytes, local file) with a known format is
	// flushed to the managed path in the background; failures are logged by
	// the runner and retried on the next accessor call.
	if kind != OriginURL && format != "" {
		id := rec.ID
		err := s.runner.Go(ctx, "materialize "+id, func(taskCtx context.Context) error {
			_, err := s.EnsureContent(taskCtx, id)
			return err
		})
		if err != nil {
			logger.Warn("Background materialization not scheduled",
				"media_id", id, "error", err)
		}
	}

	s.emitter.Registered(rec.ID, kind, category, format, size)
	logger.Registered(rec.ID, kind, "category", category, "format", format, "size", size)
	return rec.ID, nil
}

// fillDetection memoizes detection results without clobbering values the
// caller preset.
func (s *Store) fillDetection(rec *Record, det Detection) {
	if rec.Category == "" {
		rec.Category = det.Category
	}
	if rec.Format == "" {
		rec.Format = det.Format
	}
}

// RegisterFromURL registers media to be downloaded on first access.
func (s *Store) RegisterFromURL(ctx context.Context, rawURL string, opts ...RegisterOption) (string, error) {
	return s.Register(ctx, URLOrigin{URL: rawURL}, opts...)
}

// RegisterFromPath registers media backed by an existing local file. Unlike
// Register with a PathOrigin, the file must exist.
func (s *Store) RegisterFromPath(ctx context.Context, path string, opts ...RegisterOption) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: origin path is empty", ErrInvalidArgument)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: origin file %s does not exist", ErrInvalidArgument, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: origin path %s is a directory", ErrInvalidArgument, path)
	}
	return s.Register(ctx, PathOrigin{Path: path}, opts...)
}

// RegisterFromBytes registers media from an in-memory payload.
func (s *Store) RegisterFromBytes(ctx context.Context, data []byte, opts ...RegisterOption) (string, error) {
	return s.Register(ctx, BytesOrigin{Data: data}, opts...)
}

// GetMetadata returns a copy of the record for id. It never touches the
// disk; quarantined ids report their corruption.
func (s *Store) GetMetadata(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[id]; ok {
		return rec.Clone(), nil
	}
	if err, ok := s.corrupt[id]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

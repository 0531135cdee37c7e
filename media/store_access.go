package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/MediaKit/logger"
)

// EnsureContent makes sure the entry's managed file exists and returns its
// path. Content is taken from the pending payload, the origin URL or the
// origin path, in that order; detection results are memoized on first
// success and never re-derived. Concurrent calls for the same id share one
// materialization; the first caller's context governs it.
func (s *Store) EnsureContent(ctx context.Context, id string) (string, error) {
	v, err, _ := s.ensure.Do(id, func() (any, error) {
		return s.materialize(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// materialize is the single write path for managed content.
func (s *Store) materialize(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	var rec *Record
	if live, ok := s.records[id]; ok {
		rec = live.Clone()
	}
	pendingData := s.pending[id]
	quarantined := s.corrupt[id]
	s.mu.RUnlock()

	if rec == nil {
		if quarantined != nil {
			return "", quarantined
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Already materialized: nothing to do.
	if rec.Format != "" && s.layout.contentExists(id, rec.Format) {
		return s.layout.contentPath(id, rec.Format), nil
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "media.materialize",
		trace.WithAttributes(
			attribute.String("media.id", id),
			attribute.String("media.origin", rec.OriginKind()),
		),
	)
	defer span.End()

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "materialize failed")
		s.emitter.MaterializeFailed(id, rec.OriginKind(), err, time.Since(start))
		logger.MaterializeFailed(id, err, "origin", rec.OriginKind())
		return "", err
	}

	data, err := s.obtainContent(ctx, rec, pendingData)
	if err != nil {
		return fail(err)
	}

	if rec.Category == "" || rec.Format == "" {
		det, err := s.sniffer.Detect(data)
		if err != nil {
			return fail(fmt.Errorf("failed to detect content type for %s: %w", id, err))
		}
		s.fillDetection(rec, det)
	}
	rec.Size = int64(len(data))

	path, err := s.layout.writeContent(id, rec.Format, data)
	if err != nil {
		return fail(err)
	}

	s.mu.Lock()
	live, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		// Deleted while we were fetching; drop the file we just wrote.
		_ = os.Remove(path)
		return fail(fmt.Errorf("%w: %s deleted during materialization", ErrNotFound, id))
	}
	s.fillDetection(live, Detection{Category: rec.Category, Format: rec.Format})
	live.Size = rec.Size
	delete(s.pending, id)
	if err := s.layout.saveRecord(live); err != nil {
		// The content file is in place; the stale document catches up on
		// the next metadata write.
		logger.Error("Failed to persist detection metadata", "media_id", id, "error", err)
	}
	category, format, size := live.Category, live.Format, live.Size
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("media.format", format),
		attribute.Int64("media.size", size),
	)
	span.SetStatus(codes.Ok, "")
	s.emitter.Materialized(id, rec.OriginKind(), category, format, size, time.Since(start))
	logger.Materialized(id, format, size, "origin", rec.OriginKind())
	return path, nil
}

// obtainContent produces the entry's bytes from the first source that
// works: the pending payload, the origin URL, then the origin path.
func (s *Store) obtainContent(ctx context.Context, rec *Record, pendingData []byte) ([]byte, error) {
	if len(pendingData) > 0 {
		return pendingData, nil
	}

	var srcErrs []error

	if rec.URL != "" {
		data, err := s.fetcher.Fetch(ctx, rec.URL)
		if err == nil {
			return data, nil
		}
		srcErrs = append(srcErrs, err)
	}

	if rec.Path != "" {
		data, err := os.ReadFile(rec.Path)
		if err == nil {
			return data, nil
		}
		srcErrs = append(srcErrs, fmt.Errorf("failed to read origin file: %w", err))
	}

	if len(srcErrs) == 0 {
		srcErrs = append(srcErrs, errors.New("no content source recorded"))
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(srcErrs...))
}

// FilePath returns a local path holding the entry's content: the origin
// path verbatim while it still exists, otherwise the managed file,
// materializing it if needed.
func (s *Store) FilePath(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	var originPath string
	rec, ok := s.records[id]
	if ok {
		originPath = rec.Path
	}
	quarantined := s.corrupt[id]
	s.mu.RUnlock()

	if !ok {
		if quarantined != nil {
			return "", quarantined
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if originPath != "" {
		if info, err := os.Stat(originPath); err == nil && !info.IsDir() {
			return originPath, nil
		}
	}

	return s.EnsureContent(ctx, id)
}

// Data returns the entry's content bytes. Sources are tried in order:
// the pending payload, a local file via FilePath, then a direct download
// from the origin URL without persisting anything.
func (s *Store) Data(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	var originURL string
	rec, ok := s.records[id]
	if ok {
		originURL = rec.URL
	}
	pendingData := s.pending[id]
	quarantined := s.corrupt[id]
	s.mu.RUnlock()

	if !ok {
		if quarantined != nil {
			return nil, quarantined
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if len(pendingData) > 0 {
		out := make([]byte, len(pendingData))
		copy(out, pendingData)
		return out, nil
	}

	var attemptErrs []error

	path, err := s.FilePath(ctx, id)
	if err == nil {
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			return data, nil
		}
		// The file exists in the index's view but cannot be read back.
		readErr = fmt.Errorf("%w: managed file for %s unreadable: %v", ErrCorruptState, id, readErr)
		logger.Error("🚨 Managed File Unreadable", "media_id", id, "path", path, "error", readErr)
		attemptErrs = append(attemptErrs, readErr)
	} else {
		attemptErrs = append(attemptErrs, err)
	}

	if originURL != "" {
		data, fetchErr := s.fetcher.Fetch(ctx, originURL)
		if fetchErr == nil {
			return data, nil
		}
		attemptErrs = append(attemptErrs, fetchErr)
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(attemptErrs...))
}

// URL returns something a chat adapter can hand to a platform: the origin
// URL verbatim, else a file URL for a local path, else a base64 data URI.
func (s *Store) URL(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	var rec *Record
	if live, ok := s.records[id]; ok {
		rec = live.Clone()
	}
	quarantined := s.corrupt[id]
	s.mu.RUnlock()

	if rec == nil {
		if quarantined != nil {
			return "", quarantined
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if rec.URL != "" {
		return rec.URL, nil
	}

	if path, err := s.FilePath(ctx, id); err == nil {
		return fileURL(path)
	}

	data, err := s.Data(ctx, id)
	if err != nil {
		return "", err
	}

	// Materialization above may have filled in the detection; re-read it.
	category, format := rec.Category, rec.Format
	s.mu.RLock()
	if live, ok := s.records[id]; ok {
		category, format = live.Category, live.Format
	}
	s.mu.RUnlock()
	if format == "" {
		if det, err := s.sniffer.Detect(data); err == nil {
			category, format = det.Category, det.Format
		} else {
			category, format = CategoryFile, "bin"
		}
	}

	return "data:" + category + "/" + format + ";base64," +
		base64.StdEncoding.EncodeToString(data), nil
}

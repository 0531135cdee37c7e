package media

import (
	"context"
	"fmt"
	"time"

	"github.com/AltairaLabs/MediaKit/events"
	"github.com/AltairaLabs/MediaKit/logger"
)

// AddReference attaches an owner to the entry. Adding an owner that is
// already attached changes nothing.
func (s *Store) AddReference(id, ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: reference id is empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		if err, quarantined := s.corrupt[id]; quarantined {
			return err
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	refs, changed := appendUnique(rec.References, ref)
	if !changed {
		return nil
	}
	prev := rec.References
	rec.References = refs
	if err := s.layout.saveRecord(rec); err != nil {
		rec.References = prev
		return err
	}

	s.emitter.ReferenceAdded(id, ref, len(refs))
	logger.Debug("Reference added", "media_id", id, "reference_id", ref, "count", len(refs))
	return nil
}

// RemoveReference detaches an owner. Detaching an owner that was never
// attached is a no-op; detaching the last one deletes the entry and its
// managed file immediately, without waiting for a sweep.
func (s *Store) RemoveReference(id, ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: reference id is empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		if err, quarantined := s.corrupt[id]; quarantined {
			return err
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	refs, changed := removeString(rec.References, ref)
	if !changed {
		return nil
	}

	if len(refs) == 0 {
		s.emitter.ReferenceRemoved(id, ref, 0)
		return s.deleteLocked(rec, events.DeleteReasonUnreferenced)
	}

	prev := rec.References
	rec.References = refs
	if err := s.layout.saveRecord(rec); err != nil {
		rec.References = prev
		return err
	}

	s.emitter.ReferenceRemoved(id, ref, len(refs))
	logger.Debug("Reference removed", "media_id", id, "reference_id", ref, "count", len(refs))
	return nil
}

// CleanupUnreferenced deletes every entry with no owners and returns how
// many went. It runs concurrently with registration: entries that gain an
// owner between the scan and the delete are left alone. Per-entry I/O
// failures are logged and skipped, never fatal.
func (s *Store) CleanupUnreferenced(ctx context.Context) (int, error) {
	start := time.Now()

	s.mu.RLock()
	candidates := make([]string, 0)
	for _, id := range s.order {
		if rec := s.records[id]; rec != nil && !rec.Referenced() {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		// The directory is consulted outside the lock; a claimed entry is
		// spared even with zero owners on the record.
		if s.directory != nil {
			inUse, err := s.directory.InUse(ctx, id)
			if err != nil {
				logger.Warn("⚠️ Sweep Skipped Entry: directory check failed",
					"media_id", id, "error", err)
				continue
			}
			if inUse {
				logger.Warn("⚠️ Sweep Skipped Entry: still claimed", "media_id", id)
				continue
			}
		}

		s.mu.Lock()
		rec, ok := s.records[id]
		if !ok || rec.Referenced() {
			s.mu.Unlock()
			continue
		}
		err := s.deleteLocked(rec, events.DeleteReasonSweep)
		s.mu.Unlock()
		if err != nil {
			logger.Error("Sweep failed to delete entry", "media_id", id, "error", err)
			continue
		}
		removed++
	}

	logger.Swept(removed, "candidates", len(candidates))
	s.emitter.CleanupCompleted(removed, time.Since(start))
	return removed, nil
}

// Delete removes an entry unconditionally, owners or not. Quarantined
// entries are deletable too: that is how an operator clears a corrupt
// document.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok {
		return s.deleteLocked(rec, events.DeleteReasonExplicit)
	}

	if _, quarantined := s.corrupt[id]; quarantined {
		if err := s.layout.removeRecord(id); err != nil {
			return err
		}
		s.layout.removeContentAny(id)
		delete(s.corrupt, id)
		s.emitter.Deleted(id, "", "", 0, events.DeleteReasonExplicit)
		logger.Info("🗑️ Media Deleted", "media_id", id, "reason", events.DeleteReasonExplicit)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DeleteBatch deletes each id that exists and returns how many did.
func (s *Store) DeleteBatch(ids []string) int {
	deleted := 0
	for _, id := range ids {
		if err := s.Delete(id); err == nil {
			deleted++
		}
	}
	return deleted
}

// deleteLocked removes one entry's document, managed file, index slot and
// pending payload. The caller holds s.mu. The document goes first: a
// content file without a document is garbage, while the reverse order
// would resurrect the entry on the next load.
func (s *Store) deleteLocked(rec *Record, reason string) error {
	if err := s.layout.removeRecord(rec.ID); err != nil {
		return err
	}
	if err := s.layout.removeContent(rec); err != nil {
		logger.Warn("Orphaned content file left behind", "media_id", rec.ID, "error", err)
	}

	delete(s.records, rec.ID)
	delete(s.pending, rec.ID)
	s.order, _ = removeString(s.order, rec.ID)

	s.emitter.Deleted(rec.ID, rec.Category, rec.Format, rec.Size, reason)
	logger.Info("🗑️ Media Deleted", "media_id", rec.ID, "reason", reason)
	return nil
}

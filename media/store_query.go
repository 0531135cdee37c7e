package media

import (
	"fmt"
	"strings"
	"time"

	"github.com/AltairaLabs/MediaKit/logger"
)

// Update is a partial metadata update; nil fields are left alone.
type Update struct {
	Source      *string
	Description *string
	URL         *string
	Path        *string
	Category    *string
	Format      *string
	Size        *int64
}

// UpdateMetadata applies the non-nil fields of upd to the entry and
// persists the result. Fields that end up unchanged are not reported.
func (s *Store) UpdateMetadata(id string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		if err, quarantined := s.corrupt[id]; quarantined {
			return err
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := rec.Clone()
	var fields []string

	setString := func(name string, dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			fields = append(fields, name)
		}
	}
	setString("source", &updated.Source, upd.Source)
	setString("description", &updated.Description, upd.Description)
	setString("url", &updated.URL, upd.URL)
	setString("path", &updated.Path, upd.Path)
	setString("category", &updated.Category, upd.Category)
	setString("format", &updated.Format, upd.Format)
	if upd.Size != nil && updated.Size != *upd.Size {
		updated.Size = *upd.Size
		fields = append(fields, "size")
	}

	if len(fields) == 0 {
		return nil
	}

	if err := s.layout.saveRecord(updated); err != nil {
		return err
	}
	s.records[id] = updated

	s.emitter.MetadataUpdated(id, fields...)
	logger.Debug("Media metadata updated", "media_id", id, "fields", fields)
	return nil
}

// AddTags attaches tags to the entry, deduplicated in order.
func (s *Store) AddTags(id string, tags ...string) error {
	return s.mutateTags(id, func(current []string) ([]string, bool) {
		out, changed := current, false
		for _, tag := range tags {
			var added bool
			out, added = appendUnique(out, tag)
			changed = changed || added
		}
		return out, changed
	})
}

// RemoveTags detaches tags from the entry. Unknown tags are ignored.
func (s *Store) RemoveTags(id string, tags ...string) error {
	return s.mutateTags(id, func(current []string) ([]string, bool) {
		out, changed := current, false
		for _, tag := range tags {
			var removed bool
			out, removed = removeString(out, tag)
			changed = changed || removed
		}
		return out, changed
	})
}

func (s *Store) mutateTags(id string, mutate func([]string) ([]string, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		if err, quarantined := s.corrupt[id]; quarantined {
			return err
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := rec.Clone()
	tags, changed := mutate(updated.Tags)
	if !changed {
		return nil
	}
	updated.Tags = tags

	if err := s.layout.saveRecord(updated); err != nil {
		return err
	}
	s.records[id] = updated

	s.emitter.MetadataUpdated(id, "tags")
	logger.Debug("Media tags updated", "media_id", id, "tags", tags)
	return nil
}

// SearchByTags returns entries carrying the given tags, in creation order.
// With matchAll every tag must be present; otherwise any one suffices.
func (s *Store) SearchByTags(tags []string, matchAll bool) []*Record {
	return s.search(func(rec *Record) bool {
		return matchTags(rec, tags, matchAll)
	})
}

// SearchByDescription returns entries whose description contains the query,
// case-insensitive.
func (s *Store) SearchByDescription(query string) []*Record {
	q := strings.ToLower(query)
	return s.search(func(rec *Record) bool {
		return strings.Contains(strings.ToLower(rec.Description), q)
	})
}

// SearchBySource returns entries registered from the given source.
func (s *Store) SearchBySource(source string) []*Record {
	return s.search(func(rec *Record) bool {
		return rec.Source == source
	})
}

// SearchByCategory returns entries in the given category.
func (s *Store) SearchByCategory(category string) []*Record {
	return s.search(func(rec *Record) bool {
		return rec.Category == category
	})
}

// AllIDs returns every id in creation order.
func (s *Store) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) search(match func(*Record) bool) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0)
	for _, id := range s.order {
		rec := s.records[id]
		if rec != nil && match(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// matchTags mirrors an any/all choice: matchAll means every tag must be
// present (vacuously true for no tags), otherwise one hit suffices
// (vacuously false for no tags).
func matchTags(rec *Record, tags []string, matchAll bool) bool {
	if matchAll {
		for _, tag := range tags {
			if !rec.HasTag(tag) {
				return false
			}
		}
		return true
	}
	for _, tag := range tags {
		if rec.HasTag(tag) {
			return true
		}
	}
	return false
}

// ListOptions provides filtering and pagination options for listing
// media entries.
type ListOptions struct {
	// Category keeps only entries in this category when set.
	Category string

	// Tags keeps only entries carrying all of these tags.
	Tags []string

	// Query is matched case-insensitively against description, source
	// and id.
	Query string

	// CreatedAfter / CreatedBefore bound the creation time when set.
	CreatedAfter  time.Time
	CreatedBefore time.Time

	// Offset is the number of matching entries to skip.
	Offset int

	// Limit is the maximum page size. If 0, a default of 100 is applied.
	Limit int
}

// List returns one page of matching entries in creation order, plus the
// total number of matches before pagination.
func (s *Store) List(opts ListOptions) ([]*Record, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(opts.Query)

	var matched []*Record
	for _, id := range s.order {
		rec := s.records[id]
		if rec == nil {
			continue
		}
		if opts.Category != "" && rec.Category != opts.Category {
			continue
		}
		if len(opts.Tags) > 0 && !matchTags(rec, opts.Tags, true) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(rec.Description), query) &&
			!strings.Contains(strings.ToLower(rec.Source), query) &&
			!strings.Contains(strings.ToLower(rec.ID), query) {
			continue
		}
		if !opts.CreatedAfter.IsZero() && rec.CreatedAt.Before(opts.CreatedAfter) {
			continue
		}
		if !opts.CreatedBefore.IsZero() && rec.CreatedAt.After(opts.CreatedBefore) {
			continue
		}
		matched = append(matched, rec)
	}

	total := len(matched)

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*Record{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*Record, 0, end-offset)
	for _, rec := range matched[offset:end] {
		page = append(page, rec.Clone())
	}
	return page, total
}

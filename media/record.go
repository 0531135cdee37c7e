package media

import (
	"time"
)

// Record is the persisted description of one media entry. It is what the
// store keeps in its index and writes to metadata/<id>.json; content bytes
// live separately under files/.
//
// Category, Format and Size start empty for URL-backed entries and are
// filled in when the content is first materialized and sniffed.
type Record struct {
	ID          string    `json:"media_id"`
	Category    string    `json:"category,omitempty"`
	Format      string    `json:"format,omitempty"`
	Size        int64     `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	References  []string  `json:"references,omitempty"`

	// URL and Path record the entry's origin. At most one is set; an entry
	// with neither was registered from bytes.
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

// Clone returns a deep copy. The store hands copies to callers so index
// entries are never aliased by application code.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Tags != nil {
		c.Tags = make([]string, len(r.Tags))
		copy(c.Tags, r.Tags)
	}
	if r.References != nil {
		c.References = make([]string, len(r.References))
		copy(c.References, r.References)
	}
	return &c
}

// OriginKind reports which origin backs the record.
func (r *Record) OriginKind() string {
	switch {
	case r.URL != "":
		return OriginURL
	case r.Path != "":
		return OriginPath
	default:
		return OriginBytes
	}
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	return containsString(r.Tags, tag)
}

// Referenced reports whether any owner still holds the record.
func (r *Record) Referenced() bool {
	return len(r.References) > 0
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// appendUnique adds v unless present, reporting whether the list changed.
func appendUnique(list []string, v string) ([]string, bool) {
	if containsString(list, v) {
		return list, false
	}
	return append(list, v), true
}

// removeString drops v if present, reporting whether the list changed. The
// result is a fresh slice so callers can keep the old one for rollback.
func removeString(list []string, v string) ([]string, bool) {
	for i, s := range list {
		if s == v {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, true
		}
	}
	return list, false
}

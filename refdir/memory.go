package refdir

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory provides an in-memory implementation of the Directory
// interface. It is thread-safe and suitable for development, testing, and
// single-instance deployments. For distributed systems, use RedisDirectory.
type MemoryDirectory struct {
	mu sync.RWMutex

	// forward maps subsystem -> media ids it claims; reverse maps
	// media id -> subsystems claiming it. Both are kept in step under mu.
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

// NewMemoryDirectory creates a new in-memory reference directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// Bind records that subsystem still needs mediaID.
func (d *MemoryDirectory) Bind(ctx context.Context, subsystem, mediaID string) error {
	if subsystem == "" || mediaID == "" {
		return ErrInvalidKey
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.forward[subsystem] == nil {
		d.forward[subsystem] = make(map[string]struct{})
	}
	d.forward[subsystem][mediaID] = struct{}{}

	if d.reverse[mediaID] == nil {
		d.reverse[mediaID] = make(map[string]struct{})
	}
	d.reverse[mediaID][subsystem] = struct{}{}

	return nil
}

// Unbind drops one claim. Unknown pairs are ignored.
func (d *MemoryDirectory) Unbind(ctx context.Context, subsystem, mediaID string) error {
	if subsystem == "" || mediaID == "" {
		return ErrInvalidKey
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if ids, ok := d.forward[subsystem]; ok {
		delete(ids, mediaID)
		if len(ids) == 0 {
			delete(d.forward, subsystem)
		}
	}
	if subs, ok := d.reverse[mediaID]; ok {
		delete(subs, subsystem)
		if len(subs) == 0 {
			delete(d.reverse, mediaID)
		}
	}

	return nil
}

// Subsystems returns the subsystems currently claiming mediaID.
func (d *MemoryDirectory) Subsystems(ctx context.Context, mediaID string) ([]string, error) {
	if mediaID == "" {
		return nil, ErrInvalidKey
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return sortedKeys(d.reverse[mediaID]), nil
}

// MediaFor returns the media ids a subsystem claims.
func (d *MemoryDirectory) MediaFor(ctx context.Context, subsystem string) ([]string, error) {
	if subsystem == "" {
		return nil, ErrInvalidKey
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return sortedKeys(d.forward[subsystem]), nil
}

// InUse reports whether any subsystem claims mediaID.
func (d *MemoryDirectory) InUse(ctx context.Context, mediaID string) (bool, error) {
	if mediaID == "" {
		return false, ErrInvalidKey
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.reverse[mediaID]) > 0, nil
}

// Release drops every claim subsystem holds and returns the media ids left
// with no claims at all.
func (d *MemoryDirectory) Release(ctx context.Context, subsystem string) ([]string, error) {
	if subsystem == "" {
		return nil, ErrInvalidKey
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ids := d.forward[subsystem]
	delete(d.forward, subsystem)

	var freed []string
	for id := range ids {
		subs := d.reverse[id]
		delete(subs, subsystem)
		if len(subs) == 0 {
			delete(d.reverse, id)
			freed = append(freed, id)
		}
	}
	sort.Strings(freed)

	return freed, nil
}

// sortedKeys copies a set's members into a sorted slice.
// Must be called with the lock held.
func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

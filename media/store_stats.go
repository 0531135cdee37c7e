package media

import (
	"fmt"
	"os"
)

// Stats is a point-in-time summary of the store and the filesystem under
// it.
type Stats struct {
	// Records is the number of live entries; Quarantined counts corrupt
	// metadata documents skipped at load.
	Records     int
	Quarantined int

	// KnownBytes sums the recorded sizes of all entries, materialized or
	// not.
	KnownBytes int64

	// MaterializedFiles / MaterializedBytes describe the managed files
	// actually on disk, orphans included.
	MaterializedFiles int
	MaterializedBytes int64

	// DiskTotalBytes / DiskFreeBytes describe the filesystem holding the
	// base directory.
	DiskTotalBytes uint64
	DiskFreeBytes  uint64
}

// Stats reports current store and filesystem usage.
func (s *Store) Stats() (Stats, error) {
	var st Stats

	s.mu.RLock()
	st.Records = len(s.records)
	st.Quarantined = len(s.corrupt)
	for _, rec := range s.records {
		st.KnownBytes += rec.Size
	}
	s.mu.RUnlock()

	entries, err := os.ReadDir(s.layout.filesDir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan files directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.MaterializedFiles++
		st.MaterializedBytes += info.Size()
	}

	total, free, err := diskUsage(s.layout.baseDir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to stat filesystem: %w", err)
	}
	st.DiskTotalBytes = total
	st.DiskFreeBytes = free

	return st, nil
}

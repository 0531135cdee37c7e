package media

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	metadataDirName = "metadata"
	filesDirName    = "files"

	dirPerm  = 0750
	filePerm = 0600
)

// layout owns the store's on-disk structure:
//
//	<base>/metadata/<id>.json   one document per entry
//	<base>/files/<id>.<format>  managed content
//
// Metadata documents are the source of truth; a content file without a
// matching document is garbage, never the other way round.
type layout struct {
	baseDir     string
	metadataDir string
	filesDir    string
}

func newLayout(baseDir string) (*layout, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: base directory is required", ErrInvalidArgument)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	l := &layout{
		baseDir:     filepath.Clean(absBase),
		metadataDir: filepath.Join(absBase, metadataDirName),
		filesDir:    filepath.Join(absBase, filesDirName),
	}

	for _, dir := range []string{l.metadataDir, l.filesDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return l, nil
}

// validatePath checks that the given path is within the base directory.
// This prevents path traversal (e.g. an id like ../../etc/passwd) and
// symlink-based escapes for paths that already exist.
func (l *layout) validatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	if !strings.HasPrefix(absPath+string(filepath.Separator), l.baseDir+string(filepath.Separator)) &&
		absPath != l.baseDir {
		return fmt.Errorf("%w: path %q is outside base directory %q", ErrInvalidArgument, path, l.baseDir)
	}

	if _, err := os.Lstat(absPath); err == nil {
		realBase, err := filepath.EvalSymlinks(l.baseDir)
		if err != nil {
			realBase = l.baseDir
		}

		realPath, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}

		if !strings.HasPrefix(realPath+string(filepath.Separator), realBase+string(filepath.Separator)) &&
			realPath != realBase {
			return fmt.Errorf("%w: path %q resolves outside base directory", ErrInvalidArgument, path)
		}
	}

	return nil
}

func (l *layout) metadataPath(id string) string {
	return filepath.Join(l.metadataDir, id+".json")
}

// contentPath returns the managed file location. Callers only ask for it
// once the format is known; an entry with no format has no managed file.
func (l *layout) contentPath(id, format string) string {
	return filepath.Join(l.filesDir, id+"."+sanitizeFormat(format))
}

// saveRecord persists a metadata document atomically.
func (l *layout) saveRecord(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", rec.ID, err)
	}

	path := l.metadataPath(rec.ID)
	if err := l.validatePath(path); err != nil {
		return err
	}
	if err := l.writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", rec.ID, err)
	}
	return nil
}

// loadRecord reads and verifies one metadata document. Documents that fail
// schema validation or carry a mismatched id surface as corrupt state.
func (l *layout) loadRecord(id string) (*Record, error) {
	path := l.metadataPath(id)
	if err := l.validatePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no metadata document for %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read metadata for %s: %w", id, err)
	}

	if err := validateRecordJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, id, err)
	}

	if rec.ID != id {
		return nil, fmt.Errorf("%w: metadata document %s claims id %q", ErrCorruptState, id, rec.ID)
	}

	return &rec, nil
}

// listIDs returns the ids of all persisted metadata documents.
func (l *layout) listIDs() ([]string, error) {
	entries, err := os.ReadDir(l.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan metadata directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (l *layout) removeRecord(id string) error {
	path := l.metadataPath(id)
	if err := l.validatePath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove metadata for %s: %w", id, err)
	}
	return nil
}

// writeContent stores managed content atomically and returns its path.
func (l *layout) writeContent(id, format string, data []byte) (string, error) {
	path := l.contentPath(id, format)
	if err := l.validatePath(path); err != nil {
		return "", err
	}
	if err := l.writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write content for %s: %w", id, err)
	}
	return path, nil
}

// contentExists reports whether the managed file for an entry is on disk.
func (l *layout) contentExists(id, format string) bool {
	if format == "" {
		return false
	}
	info, err := os.Stat(l.contentPath(id, format))
	return err == nil && !info.IsDir()
}

// removeContent deletes an entry's managed file. Missing files are fine:
// lazily materialized entries may never have had one.
func (l *layout) removeContent(rec *Record) error {
	if rec.Format == "" {
		return nil
	}
	path := l.contentPath(rec.ID, rec.Format)
	if err := l.validatePath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove content for %s: %w", rec.ID, err)
	}
	return nil
}

// removeContentAny deletes managed files for id regardless of format. Used
// when deleting entries whose metadata cannot be parsed.
func (l *layout) removeContentAny(id string) {
	matches, err := filepath.Glob(filepath.Join(l.filesDir, id+".*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// writeFileAtomic writes to a temporary file, then renames it into place.
func (l *layout) writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePerm); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

// fileURL renders a local path as a file URL.
func fileURL(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}

func sanitizeFormat(format string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"..", "_",
	)
	return replacer.Replace(format)
}

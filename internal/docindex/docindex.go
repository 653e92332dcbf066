// Package docindex implements upload bookkeeping: an uploads directory under
// DATA_DIR plus a JSON index mapping filename → {sha256, size}. The index is
// read-modify-written on every mutation; writes from concurrent processes on
// the same file race with last-write-wins semantics, which is acceptable for
// the single-instance deployments this service targets. Within one process a
// mutex serializes mutations.
package docindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// indexFile is the bookkeeping file kept inside the uploads directory.
// It is excluded from listings, ingestion, and the upload namespace.
const indexFile = "index.json"

// Upload statuses reported by Save.
const (
	// StatusUploaded means the file is new.
	StatusUploaded = "uploaded"
	// StatusSkipped means an identical file (same sha256) already existed.
	StatusSkipped = "skipped"
	// StatusReplaced means a different file with the same name was overwritten.
	StatusReplaced = "replaced"
)

// FileMeta describes one stored file.
type FileMeta struct {
	// Filename is the stored name (base name, no directories).
	Filename string `json:"filename"`
	// SHA256 is the hex digest of the file content.
	SHA256 string `json:"sha256"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
}

// ListItem is one row of the document listing.
type ListItem struct {
	// Filename is the stored name.
	Filename string `json:"filename"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
	// UploadedAt is the file modification time, RFC3339 UTC.
	UploadedAt string `json:"uploaded_at"`
}

// indexEntry is the persisted per-file record.
type indexEntry struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Store manages the uploads directory and its JSON index.
type Store struct {
	// dir is the uploads directory (DATA_DIR/uploads).
	dir string
	// mu serializes index read-modify-write cycles within this process.
	mu sync.Mutex
}

// New constructs a Store rooted at dataDir, creating the uploads directory
// if needed.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	dir := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("docindex: create uploads dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the uploads directory path.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk path for the named file. The name is reduced to
// its base component so request input can never escape the uploads dir.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save writes data under name and updates the index. The returned status
// distinguishes a new file, an identical re-upload, and a replacement.
func (s *Store) Save(name string, data []byte) (string, FileMeta, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == indexFile {
		return "", FileMeta{}, fmt.Errorf("docindex: invalid filename %q", name)
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])
	dest := filepath.Join(s.dir, name)

	status := StatusUploaded
	if existing, err := os.ReadFile(dest); err == nil {
		existingSum := sha256.Sum256(existing)
		if hex.EncodeToString(existingSum[:]) == sha {
			status = StatusSkipped
		} else {
			status = StatusReplaced
		}
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", FileMeta{}, fmt.Errorf("docindex: write %s: %w", dest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.loadIndex()
	idx[name] = indexEntry{SHA256: sha, Size: int64(len(data))}
	if err := s.saveIndex(idx); err != nil {
		return "", FileMeta{}, err
	}

	return status, FileMeta{Filename: name, SHA256: sha, Size: int64(len(data))}, nil
}

// List merges the index with a directory scan: indexed files that still
// exist come with their recorded size, untracked files fall back to their
// stat size. Sorted by upload time, newest first.
func (s *Store) List() ([]ListItem, error) {
	s.mu.Lock()
	idx := s.loadIndex()
	s.mu.Unlock()

	items := make([]ListItem, 0, len(idx))
	known := make(map[string]bool, len(idx))

	for name, entry := range idx {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			continue // indexed but missing on disk — hidden until re-uploaded
		}
		known[name] = true
		size := entry.Size
		if size == 0 {
			size = info.Size()
		}
		items = append(items, ListItem{
			Filename:   name,
			Size:       size,
			UploadedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("docindex: read uploads dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == indexFile || known[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, ListItem{
			Filename:   e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].UploadedAt != items[j].UploadedAt {
			return items[i].UploadedAt > items[j].UploadedAt
		}
		return items[i].Filename < items[j].Filename
	})
	return items, nil
}

// Exists reports whether the named file is present on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Files returns the paths of all stored files, excluding the index itself.
// Used by reingest and the uploads watcher.
func (s *Store) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("docindex: read uploads dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == indexFile {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	return paths, nil
}

// Delete removes the named file and its index entry. File removal is best
// effort; only a failure to persist the updated index is reported, since a
// stale index entry would resurrect the file in listings.
func (s *Store) Delete(name string) error {
	name = filepath.Base(name)
	_ = os.Remove(filepath.Join(s.dir, name))

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.loadIndex()
	if _, ok := idx[name]; !ok {
		return nil
	}
	delete(idx, name)
	return s.saveIndex(idx)
}

// FilenameFromURL derives a stored filename from a URL: the last path
// segment with any query string stripped, defaulting to "downloaded.file".
func FilenameFromURL(rawURL string) string {
	name := rawURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = "downloaded.file"
	}
	return name
}

// loadIndex reads the index file, tolerating absence and corruption by
// starting over with an empty index.
func (s *Store) loadIndex() map[string]indexEntry {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		return map[string]indexEntry{}
	}
	var idx map[string]indexEntry
	if err := json.Unmarshal(data, &idx); err != nil || idx == nil {
		return map[string]indexEntry{}
	}
	return idx
}

// saveIndex writes the index file, pretty-printed for hand inspection.
func (s *Store) saveIndex(idx map[string]indexEntry) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("docindex: marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644); err != nil {
		return fmt.Errorf("docindex: write index: %w", err)
	}
	return nil
}

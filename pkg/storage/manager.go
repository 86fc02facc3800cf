package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"wbscraper/pkg/network"
	"wbscraper/pkg/weibo"
)

// Output file names inside a seed directory
const (
	UserFile     = "user.json"
	PostsFile    = "mblog.json"
	SnapshotFile = "mutual_follow.json"
	ImageDir     = "image"
)

// Manager writes per-seed output under <base>/<seed id>/ and tracks saved images
type Manager struct {
	baseDir string
	// saved holds picture ids per seed; a seed is present once its image dir was scanned
	saved map[int64]map[string]bool
	mu    sync.RWMutex
}

// NewManager creates a storage manager rooted at baseDir
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{
		baseDir: baseDir,
		saved:   make(map[int64]map[string]bool),
	}, nil
}

// BaseDir returns the output root
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SeedDir returns the output directory of a seed
func (m *Manager) SeedDir(seedID int64) string {
	return filepath.Join(m.baseDir, strconv.FormatInt(seedID, 10))
}

func (m *Manager) seedPath(seedID int64, name string) (string, error) {
	dir := m.SeedDir(seedID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create seed directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// WriteSnapshot replaces mutual_follow.json with the given members.
// Identical input always produces identical bytes.
func (m *Manager) WriteSnapshot(seedID int64, members []network.Member) error {
	if members == nil {
		members = []network.Member{}
	}
	return m.writeJSON(seedID, SnapshotFile, members)
}

// LoadSnapshot reads back the last snapshot of a seed
func (m *Manager) LoadSnapshot(seedID int64) ([]network.Member, error) {
	data, err := os.ReadFile(filepath.Join(m.SeedDir(seedID), SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var members []network.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return members, nil
}

// SaveUser writes user.json for the profile's own id
func (m *Manager) SaveUser(profile *weibo.UserProfile) error {
	return m.writeJSON(profile.ID, UserFile, profile)
}

// SavePosts replaces mblog.json with the posts crawled so far
func (m *Manager) SavePosts(seedID int64, posts []*weibo.Post) error {
	if posts == nil {
		posts = []*weibo.Post{}
	}
	return m.writeJSON(seedID, PostsFile, posts)
}

func (m *Manager) writeJSON(seedID int64, name string, v interface{}) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path, err := m.seedPath(seedID, name)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, bytes.NewReader(data))
}

// encodeJSON indents with four spaces and keeps non-ASCII and HTML characters literal
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scanImages loads the picture ids already on disk for a seed. Callers hold m.mu.
func (m *Manager) scanImages(seedID int64) map[string]bool {
	if set, ok := m.saved[seedID]; ok {
		return set
	}
	set := make(map[string]bool)
	entries, err := os.ReadDir(filepath.Join(m.SeedDir(seedID), ImageDir))
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".jpg" {
				set[strings.TrimSuffix(entry.Name(), ".jpg")] = true
			}
		}
	}
	m.saved[seedID] = set
	return set
}

// IsImageSaved reports whether picture id already exists under the seed's image directory
func (m *Manager) IsImageSaved(seedID int64, pictureID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanImages(seedID)[pictureID]
}

// SaveImage writes image/<picture id>.jpg from r
func (m *Manager) SaveImage(seedID int64, pictureID string, r io.Reader) error {
	path, err := m.seedPath(seedID, filepath.Join(ImageDir, pictureID+".jpg"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := writeFileAtomic(path, r); err != nil {
		return err
	}

	m.mu.Lock()
	m.scanImages(seedID)[pictureID] = true
	m.mu.Unlock()
	return nil
}

// SavedImageCount returns the number of images known for a seed
func (m *Manager) SavedImageCount(seedID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scanImages(seedID))
}

// writeFileAtomic writes through a temp file in the same directory, syncs, then renames over path
func writeFileAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

package levels

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

var (
	ErrInvalidLevel  = service.ErrInvalidLevel
	ErrReadOnlyStore = service.ErrReadOnlyStore
)

var _ service.LevelStore = (*Manager)(nil)

//go:embed default/*.txt
var defaultLevels embed.FS

// Manager handles level loading and caching. Levels are files named levelN.txt,
// numbered from 1; the store holds the longest run without gaps.
type Manager struct {
	fsys   fs.FS
	dir    string // empty for the embedded store
	levels map[int]string
	count  int
	mu     sync.RWMutex
}

// NewManager creates a level manager reading from dir.
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("level directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("level path is not a directory: %s", dir)
	}

	m := &Manager{
		fsys:   os.DirFS(dir),
		dir:    dir,
		levels: make(map[int]string),
	}
	m.count = m.scan()
	return m, nil
}

// NewEmbeddedManager serves the levels compiled into the binary. It cannot save.
func NewEmbeddedManager() *Manager {
	sub, err := fs.Sub(defaultLevels, "default")
	if err != nil {
		panic(err)
	}
	m := &Manager{
		fsys:   sub,
		levels: make(map[int]string),
	}
	m.count = m.scan()
	return m
}

func filename(n int) string {
	return fmt.Sprintf("level%d.txt", n)
}

func (m *Manager) scan() int {
	n := 0
	for {
		if _, err := fs.Stat(m.fsys, filename(n+1)); err != nil {
			return n
		}
		n++
	}
}

// Dir returns the backing directory, or "" for the embedded store.
func (m *Manager) Dir() string { return m.dir }

// Count returns the number of levels.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Level returns the text of level index. It implements engine.Source.
func (m *Manager) Level(index int) (string, error) {
	m.mu.RLock()
	if text, exists := m.levels[index]; exists {
		m.mu.RUnlock()
		return text, nil
	}
	count := m.count
	m.mu.RUnlock()

	if index < 1 || index > count {
		return "", fmt.Errorf("%w: %d", engine.ErrLevelNotFound, index)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if text, exists := m.levels[index]; exists {
		return text, nil
	}

	data, err := fs.ReadFile(m.fsys, filename(index))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %d", engine.ErrLevelNotFound, index)
		}
		return "", fmt.Errorf("failed to read level file: %w", err)
	}

	text := string(data)
	m.levels[index] = text
	return text, nil
}

// ListLevels returns information about every level in the store.
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	count := m.Count()
	infos := make([]*service.LevelInfo, 0, count)
	for n := 1; n <= count; n++ {
		text, err := m.Level(n)
		if err != nil {
			return nil, err
		}
		result := engine.ValidateLevel(text)
		infos = append(infos, &service.LevelInfo{
			Number:   n,
			Filename: filename(n),
			Width:    result.Width,
			Height:   result.Height,
			Boxes:    result.Boxes,
			Targets:  result.Targets,
			Valid:    result.Valid,
		})
	}
	return infos, nil
}

// SaveLevel validates text and writes it as level n. n may replace an existing
// level or append one directly after the last.
func (m *Manager) SaveLevel(n int, text string) error {
	if m.dir == "" {
		return ErrReadOnlyStore
	}

	if result := engine.ValidateLevel(text); !result.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, result.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if n < 1 || n > m.count+1 {
		return fmt.Errorf("%w: level number %d outside 1..%d", ErrInvalidLevel, n, m.count+1)
	}

	path := filepath.Join(m.dir, filename(n))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.levels[n] = text
	if n == m.count+1 {
		m.count = m.scan()
	}
	return nil
}

// RefreshCache drops cached level text and rescans the store.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levels = make(map[int]string)
	m.count = m.scan()
}

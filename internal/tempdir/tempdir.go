// Package tempdir manages the shared filesystem area used for large
// payloads. Binary data such as screenshots or downloaded models never
// travels inside protocol frames; the host writes it under the session
// directory and only the path crosses the socket as a string.
package tempdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codefionn/scenelink/internal/logger"
)

// Manager owns one session-scoped directory and tracks the files created
// inside it so they can be swept.
type Manager struct {
	root string

	mu    sync.Mutex
	files map[string]time.Time // path -> creation time

	log *logger.Logger
}

// New creates a fresh session directory under the system temp dir, named
// scenelink_<pid>_<uuid> so concurrent hosts never collide.
func New() (*Manager, error) {
	root := filepath.Join(os.TempDir(), fmt.Sprintf("scenelink_%d_%s", os.Getpid(), uuid.NewString()))
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Manager{
		root:  root,
		files: make(map[string]time.Time),
		log:   logger.Global().WithPrefix("tempdir"),
	}, nil
}

// Root returns the session directory path.
func (m *Manager) Root() string {
	return m.root
}

// CreateFile creates an empty payload file with the given prefix and
// extension and returns its path. The caller writes the payload and ships
// the path across the socket.
func (m *Manager) CreateFile(prefix, ext string) (string, error) {
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	path := filepath.Join(m.root, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create payload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.files[path] = time.Now()
	m.mu.Unlock()

	m.log.Debug("Created payload file: %s", path)
	return path, nil
}

// WriteFile creates a payload file and writes data into it in one step.
func (m *Manager) WriteFile(prefix, ext string, data []byte) (string, error) {
	path, err := m.CreateFile(prefix, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// CleanupStale removes tracked files older than maxAge and returns how
// many were removed. Files a client is still reading stay put until they
// age out.
func (m *Manager) CleanupStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []string
	for path, created := range m.files {
		if created.Before(cutoff) {
			stale = append(stale, path)
		}
	}
	for _, path := range stale {
		delete(m.files, path)
	}
	m.mu.Unlock()

	removed := 0
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.log.Warn("Failed to remove stale payload file %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		m.log.Info("Removed %d stale payload files", removed)
	}
	return removed
}

// Close removes the whole session directory.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.files = make(map[string]time.Time)
	m.mu.Unlock()

	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", m.root, err)
	}
	m.log.Info("Removed temp directory: %s", m.root)
	return nil
}

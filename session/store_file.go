package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	fileStoreVersionV1 = "1"
	defaultStoreDir    = ".drydock"
	defaultStoreFile   = "sessions.json"
	defaultSQLiteFile  = "drydock.db"
)

var errEmptyStorePath = errors.New("session: file store path is empty")

type fileStoreDocument struct {
	Version  string    `json:"version"`
	Sessions []Session `json:"sessions"`
}

// FileStore persists sessions in a local JSON file. Intended for CLI mode.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a file-backed session store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns the default session file path for CLI mode.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultStoreDir, defaultStoreFile), nil
}

// DefaultSQLitePath returns the default SQLite database path for server
// mode, creating the parent directory if needed.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve user home: %w", err)
	}
	dir := filepath.Join(home, defaultStoreDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("session: create store dir: %w", err)
	}
	return filepath.Join(dir, defaultSQLiteFile), nil
}

// List returns all sessions in deterministic (application-sorted) order.
func (s *FileStore) List(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("session: file store is nil")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

// Get returns a session by application name.
func (s *FileStore) Get(ctx context.Context, application string) (Session, bool, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return Session{}, false, err
	}
	for _, sess := range sessions {
		if sess.Application == application {
			return sess, true, nil
		}
	}
	return Session{}, false, nil
}

// Upsert inserts or updates a session by application name.
func (s *FileStore) Upsert(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return errors.New("session: file store is nil")
	}
	if strings.TrimSpace(sess.Application) == "" {
		return errors.New("session: application name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	index := -1
	for i := range sessions {
		if sessions[i].Application == sess.Application {
			index = i
			break
		}
	}
	if index >= 0 {
		sessions[index] = sess
	} else {
		sessions = append(sessions, sess)
	}

	return s.save(sessions)
}

// Delete removes a session by application name. Deleting a missing entry
// is a no-op.
func (s *FileStore) Delete(ctx context.Context, application string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return errors.New("session: file store is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}

	filtered := make([]Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Application != application {
			filtered = append(filtered, sess)
		}
	}
	return s.save(filtered)
}

func (s *FileStore) load() ([]Session, error) {
	if strings.TrimSpace(s.path) == "" {
		return nil, errEmptyStorePath
	}

	// #nosec G304 -- path is configured by caller and constrained to local filesystem usage.
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("session: read sessions: %w", err)
	}
	if len(data) == 0 {
		return []Session{}, nil
	}

	var doc fileStoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session: decode sessions: %w", err)
	}
	sortSessions(doc.Sessions)
	return doc.Sessions, nil
}

func (s *FileStore) save(sessions []Session) error {
	if strings.TrimSpace(s.path) == "" {
		return errEmptyStorePath
	}

	sortSessions(sessions)
	doc := fileStoreDocument{
		Version:  fileStoreVersionV1,
		Sessions: sessions,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode sessions: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("session: create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write temp store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: replace store file: %w", err)
	}
	return nil
}

func sortSessions(sessions []Session) {
	slices.SortFunc(sessions, func(a, b Session) int {
		return strings.Compare(a.Application, b.Application)
	})
}

var _ Store = (*FileStore)(nil)

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/hamas2/hamak/models"
	pkgerrors "github.com/pkg/errors"
)

// ErrNoSession means nobody is signed in on this machine.
var ErrNoSession = errors.New("session: not signed in")

// Session is what the client remembers between runs.
type Session struct {
	User   models.User `json:"user"`
	Token  string      `json:"token"`
	Server string      `json:"server,omitempty"`
}

// FileStore keeps the session as JSON text in a single file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is currentUser.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "locate config dir")
	}
	return filepath.Join(dir, "hamak", "currentUser.json"), nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read session")
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, pkgerrors.Wrapf(err, "parse session %s", f.path)
	}
	if s.User.ID == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes atomically with owner-only permissions.
func (f *FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return pkgerrors.Wrap(err, "create session dir")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "encode session")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return pkgerrors.Wrap(err, "write session")
	}
	return pkgerrors.Wrap(os.Rename(tmp, f.path), "save session")
}

// Clear signs out. A missing file is not an error.
func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return pkgerrors.Wrap(err, "remove session")
}

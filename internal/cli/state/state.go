// Package state persists gfsctl client state between invocations: the
// default server and the session opened on each server.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DirName is the directory under the user config home.
	DirName = "gfsctl"
	// FileName is the name of the state file.
	FileName = "state.json"

	filePermissions = 0600
	dirPermissions  = 0700
)

// ErrNoSession indicates no session is recorded for a server.
var ErrNoSession = errors.New("no session for server - run 'gfsctl session new' or any file command")

// Session is a server-side session remembered by the client.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// File is the on-disk layout of the state file.
type File struct {
	DefaultServer string              `json:"default_server,omitempty"`
	DefaultOutput string              `json:"default_output,omitempty"`
	Sessions      map[string]*Session `json:"sessions"`
}

// Store reads and writes the state file.
type Store struct {
	path string
	data *File
}

// DefaultPath returns $XDG_CONFIG_HOME/gfsctl/state.json or its ~/.config fallback.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DirName, FileName), nil
}

// Open loads the state file at path. A missing file yields empty state.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: &File{Sessions: make(map[string]*Session)}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(raw, s.data); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
	}
	if s.data.Sessions == nil {
		s.data.Sessions = make(map[string]*Session)
	}
	return s, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPermissions); err != nil {
		return fmt.Errorf("cannot create state directory: %w", err)
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, filePermissions)
}

// Session returns the session remembered for serverURL.
func (s *Store) Session(serverURL string) (*Session, error) {
	sess, ok := s.data.Sessions[serverURL]
	if !ok || sess.ID == "" {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SetSession remembers id as the session for serverURL.
func (s *Store) SetSession(serverURL, id string) error {
	s.data.Sessions[serverURL] = &Session{ID: id, CreatedAt: time.Now().UTC()}
	return s.save()
}

// ClearSession forgets the session for serverURL.
func (s *Store) ClearSession(serverURL string) error {
	if _, ok := s.data.Sessions[serverURL]; !ok {
		return nil
	}
	delete(s.data.Sessions, serverURL)
	return s.save()
}

// DefaultServer returns the saved default server URL, or "".
func (s *Store) DefaultServer() string {
	return s.data.DefaultServer
}

// SetDefaultServer saves the server used when --server is not given.
func (s *Store) SetDefaultServer(url string) error {
	s.data.DefaultServer = url
	return s.save()
}

// DefaultOutput returns the saved default output format, or "".
func (s *Store) DefaultOutput() string {
	return s.data.DefaultOutput
}

// SetDefaultOutput saves the default output format.
func (s *Store) SetDefaultOutput(format string) error {
	s.data.DefaultOutput = format
	return s.save()
}

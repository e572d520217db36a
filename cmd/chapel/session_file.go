package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// sessionFile persists the access token between invocations.
type sessionFile struct {
	path string

	Token   string    `yaml:"access_token"`
	UserID  string    `yaml:"user_id"`
	Email   string    `yaml:"email"`
	SavedAt time.Time `yaml:"saved_at"`
}

func defaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "chapel", "session.yml"), nil
}

// openSessionFile reads path; a missing file is an empty session.
func openSessionFile(path string) (*sessionFile, error) {
	if path == "" {
		var err error
		if path, err = defaultSessionPath(); err != nil {
			return nil, err
		}
	}
	sf := &sessionFile{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	return sf, nil
}

// Save writes the session with owner-only permissions.
func (s *sessionFile) Save(token, userID, email string) error {
	s.Token, s.UserID, s.Email = token, userID, email
	s.SavedAt = time.Now().UTC()

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear forgets the session and removes the file.
func (s *sessionFile) Clear() error {
	s.Token, s.UserID, s.Email = "", "", ""
	s.SavedAt = time.Time{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

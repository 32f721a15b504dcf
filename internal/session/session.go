// Package session persists the logged-in project of the CLI in
// ~/.roadmapper/session.json.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileName = "session.json"

// Session is the persisted login.
type Session struct {
	Username  string    `json:"username"`
	Project   string    `json:"projectId"`
	Source    string    `json:"source"` // "env" | "file"
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectID returns the active project id. A nil session has none.
func (s *Session) ProjectID() string {
	if s == nil {
		return ""
	}
	return s.Project
}

// Dir returns the session directory: $ROADMAPPER_HOME when set,
// ~/.roadmapper otherwise.
func Dir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("ROADMAPPER_HOME")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".roadmapper"), nil
}

func filePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load returns the current session. ROADMAPPER_PROJECT overrides the file.
// Returns (nil, nil) when not logged in.
func Load() (*Session, error) {
	if project := strings.TrimSpace(os.Getenv("ROADMAPPER_PROJECT")); project != "" {
		return &Session{Project: project, Source: "env"}, nil
	}

	p, err := filePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &s, nil
}

// Save writes a session for username and projectID, owner-readable only.
func Save(username, projectID string) (*Session, error) {
	if username == "" || projectID == "" {
		return nil, fmt.Errorf("username and project id are required")
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	s := &Session{
		Username:  username,
		Project:   projectID,
		Source:    "file",
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, fileName), b, 0o600); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return s, nil
}

// Delete removes the session file. Deleting a missing session is not an error.
func Delete() error {
	p, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

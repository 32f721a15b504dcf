// Package scaffold writes a starter roadmapper.yml.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/roadmapper/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Options fills the config template.
type Options struct {
	Backend    string
	RedisURL   string
	APIURL     string
	SQLitePath string
}

func (o *Options) applyDefaults() {
	if o.Backend == "" {
		o.Backend = config.BackendAPI
	}
	if o.RedisURL == "" {
		o.RedisURL = "redis://localhost:6379"
	}
	if o.APIURL == "" {
		o.APIURL = "http://localhost:8080"
	}
	if o.SQLitePath == "" {
		o.SQLitePath = "roadmapper.db"
	}
}

// Initialize writes roadmapper.yml into dir and returns its path.
// If force is true an existing file is replaced.
func Initialize(dir string, opts Options, force bool) (string, error) {
	opts.applyDefaults()
	path := filepath.Join(dir, config.DefaultPath)

	switch opts.Backend {
	case config.BackendAPI, config.BackendRedis, config.BackendSQLite:
	default:
		return "", fmt.Errorf("invalid backend: %s (must be 'api', 'redis', or 'sqlite')", opts.Backend)
	}

	if !force {
		if err := CheckExisting(dir); err != nil {
			return "", err
		}
	}

	content, err := render(opts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	// The written file must load exactly like a hand-written one
	if _, err := config.Load(path); err != nil {
		return "", fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}

	return path, nil
}

// render executes the embedded config template.
func render(opts Options) ([]byte, error) {
	raw, err := templatesFS.ReadFile("templates/roadmapper.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read config template: %w", err)
	}

	tmpl, err := template.New("roadmapper.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, opts); err != nil {
		return nil, fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.Bytes(), nil
}

package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/roadmapper/internal/config"
)

// CheckExisting returns an error if dir already holds a roadmapper.yml.
func CheckExisting(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'roadmapper init --force' to overwrite it", path)
	}
	return nil
}

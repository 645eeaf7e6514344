package blueprint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/store"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader reads blueprint definition files from a directory into the store.
// Files are JSON or YAML; a broken file is logged and skipped so one bad
// blueprint never blocks the rest.
type Loader struct {
	dir   string
	store store.Store
}

// NewLoader creates a loader for the given blueprint directory.
func NewLoader(dir string, st store.Store) *Loader {
	return &Loader{dir: dir, store: st}
}

// LoadAll loads every blueprint file in the directory, creating or updating
// store records. It returns the number of blueprints loaded and the number
// of files that failed.
func (l *Loader) LoadAll(ctx context.Context) (int, int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read blueprint directory %s: %w", l.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(l.dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		logger.Warn("No blueprint files found", zap.String("dir", l.dir))
		return 0, 0, nil
	}

	loaded, failed := 0, 0
	for _, path := range files {
		if err := l.LoadFile(ctx, path); err != nil {
			logger.Error("Failed to load blueprint", zap.String("file", path), zap.Error(err))
			failed++
			continue
		}
		loaded++
	}
	logger.Info("Blueprints loaded", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, failed, nil
}

// LoadFile parses and stores a single blueprint file.
func (l *Loader) LoadFile(ctx context.Context, path string) error {
	bp, err := ParseFile(path)
	if err != nil {
		return err
	}
	if err := l.store.SaveBlueprint(ctx, bp); err != nil {
		return fmt.Errorf("failed to save blueprint %s: %w", bp.Name, err)
	}
	logger.Debug("Loaded blueprint", zap.String("name", bp.Name), zap.String("file", path))
	return nil
}

// ParseFile reads one blueprint definition from disk and validates it.
func ParseFile(path string) (*model.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes blueprint bytes. The extension picks the decoder; anything
// that is not .json is treated as YAML.
func Parse(data []byte, ext string) (*model.Blueprint, error) {
	bp := &model.Blueprint{Visible: true, InstallOrder: 10}
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, bp)
	} else {
		err = yaml.Unmarshal(data, bp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse blueprint: %w", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

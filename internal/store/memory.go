package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stackarr/stackarr/internal/model"
)

// MemoryStore implements the Store interface with in-memory maps. It is used
// by tests and the dry-run commands; nothing survives a restart.
type MemoryStore struct {
	mu         sync.RWMutex
	blueprints map[string]*model.Blueprint
	apps       map[string]*model.App
	settings   *model.GlobalSettings
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blueprints: make(map[string]*model.Blueprint),
		apps:       make(map[string]*model.App),
	}
}

// Open initializes the store
func (s *MemoryStore) Open() error { return nil }

// Close releases the store
func (s *MemoryStore) Close() error { return nil }

// SaveBlueprint creates or replaces a blueprint by name
func (s *MemoryStore) SaveBlueprint(ctx context.Context, bp *model.Blueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blueprints[bp.Name] = bp
	return nil
}

// GetBlueprint retrieves a blueprint by name
func (s *MemoryStore) GetBlueprint(ctx context.Context, name string) (*model.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bp, ok := s.blueprints[name]
	if !ok {
		return nil, ErrBlueprintNotFound{Name: name}
	}
	return bp, nil
}

// ListBlueprints retrieves all blueprints
func (s *MemoryStore) ListBlueprints(ctx context.Context) ([]*model.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Blueprint, 0, len(s.blueprints))
	for _, bp := range s.blueprints {
		out = append(out, bp)
	}
	return out, nil
}

// DeleteBlueprint removes a blueprint by name
func (s *MemoryStore) DeleteBlueprint(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blueprints[name]; !ok {
		return ErrBlueprintNotFound{Name: name}
	}
	delete(s.blueprints, name)
	return nil
}

// CreateApp stores a new app instance, minting an ID when absent
func (s *MemoryStore) CreateApp(ctx context.Context, app *model.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	s.apps[app.ID] = app
	return nil
}

// UpdateApp applies the updater to an existing app record
func (s *MemoryStore) UpdateApp(ctx context.Context, id string, updater func(*model.App) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return ErrAppNotFound{ID: id}
	}
	if err := updater(app); err != nil {
		return err
	}
	app.UpdatedAt = time.Now().UTC()
	return nil
}

// GetApp retrieves an app by its ID
func (s *MemoryStore) GetApp(ctx context.Context, id string) (*model.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, ErrAppNotFound{ID: id}
	}
	return app, nil
}

// ListApps retrieves all app instances
func (s *MemoryStore) ListApps(ctx context.Context) ([]*model.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.App, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	return out, nil
}

// DeleteApp removes an app by its ID
func (s *MemoryStore) DeleteApp(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return ErrAppNotFound{ID: id}
	}
	delete(s.apps, id)
	return nil
}

// GetGlobalSettings returns the settings record, creating it with defaults
// on first read
func (s *MemoryStore) GetGlobalSettings(ctx context.Context) (model.GlobalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		defaults := model.DefaultGlobalSettings()
		s.settings = &defaults
	}
	return *s.settings, nil
}

// SaveGlobalSettings replaces the settings record
func (s *MemoryStore) SaveGlobalSettings(ctx context.Context, settings model.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

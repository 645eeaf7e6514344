package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// DefaultBoltFilePath is the default path for the BoltDB file
	DefaultBoltFilePath = "stackarr.db"

	// DefaultBoltFileMode is the default file mode for the BoltDB file
	DefaultBoltFileMode = 0600

	// DefaultBoltTimeout is the default timeout for BoltDB operations
	DefaultBoltTimeout = 1 * time.Second
)

var (
	blueprintBucket = []byte("blueprints")
	appBucket       = []byte("apps")
	settingsBucket  = []byte("settings")
)

// settingsKey is the single record key inside the settings bucket.
var settingsKey = []byte("global")

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db      *bolt.DB
	path    string
	options *BoltOptions
}

// BoltOptions configures the BoltDB store
type BoltOptions struct {
	// Path to the BoltDB file
	Path string
	// File mode for the BoltDB file
	FileMode os.FileMode
	// Timeout for BoltDB operations
	Timeout time.Duration
}

// NewBoltStore creates a new BoltStore with the given options
func NewBoltStore(opts *BoltOptions) *BoltStore {
	if opts == nil {
		opts = &BoltOptions{}
	}
	if opts.Path == "" {
		opts.Path = DefaultBoltFilePath
	}
	if opts.FileMode == 0 {
		opts.FileMode = DefaultBoltFileMode
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultBoltTimeout
	}

	return &BoltStore{
		path:    opts.Path,
		options: opts,
	}
}

// Open initializes the BoltDB database and its buckets
func (s *BoltStore) Open() error {
	logger.Info("Opening BoltDB database", zap.String("path", s.path))

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for database: %w", err)
	}

	db, err := bolt.Open(s.path, s.options.FileMode, &bolt.Options{Timeout: s.options.Timeout})
	if err != nil {
		return fmt.Errorf("failed to open BoltDB: %w", err)
	}
	s.db = db

	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{blueprintBucket, appBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		s.db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	return nil
}

// Close closes the BoltDB database
func (s *BoltStore) Close() error {
	if s.db != nil {
		logger.Info("Closing BoltDB database")
		return s.db.Close()
	}
	return nil
}

// SaveBlueprint creates or replaces a blueprint by name
func (s *BoltStore) SaveBlueprint(ctx context.Context, bp *model.Blueprint) error {
	logger.Debug("Saving blueprint", zap.String("name", bp.Name))
	data, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("failed to marshal blueprint: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blueprintBucket).Put([]byte(bp.Name), data)
	})
}

// GetBlueprint retrieves a blueprint by name
func (s *BoltStore) GetBlueprint(ctx context.Context, name string) (*model.Blueprint, error) {
	var bp *model.Blueprint
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blueprintBucket).Get([]byte(name))
		if data == nil {
			return ErrBlueprintNotFound{Name: name}
		}
		bp = &model.Blueprint{}
		if err := json.Unmarshal(data, bp); err != nil {
			return fmt.Errorf("failed to unmarshal blueprint: %w", err)
		}
		return nil
	})
	return bp, err
}

// ListBlueprints retrieves all blueprints
func (s *BoltStore) ListBlueprints(ctx context.Context) ([]*model.Blueprint, error) {
	var blueprints []*model.Blueprint
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blueprintBucket).ForEach(func(k, v []byte) error {
			var bp model.Blueprint
			if err := json.Unmarshal(v, &bp); err != nil {
				return fmt.Errorf("failed to unmarshal blueprint %s: %w", k, err)
			}
			blueprints = append(blueprints, &bp)
			return nil
		})
	})
	return blueprints, err
}

// DeleteBlueprint removes a blueprint by name
func (s *BoltStore) DeleteBlueprint(ctx context.Context, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blueprintBucket)
		if b.Get([]byte(name)) == nil {
			return ErrBlueprintNotFound{Name: name}
		}
		return b.Delete([]byte(name))
	})
}

// CreateApp stores a new app instance, minting an ID when absent
func (s *BoltStore) CreateApp(ctx context.Context, app *model.App) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now

	logger.Debug("Creating app", zap.String("id", app.ID), zap.String("name", app.Name))
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal app: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put([]byte(app.ID), data)
	})
}

// UpdateApp applies the updater to an existing app record
func (s *BoltStore) UpdateApp(ctx context.Context, id string, updater func(*model.App) error) error {
	logger.Debug("Updating app", zap.String("id", id))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(appBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrAppNotFound{ID: id}
		}

		var app model.App
		if err := json.Unmarshal(data, &app); err != nil {
			return fmt.Errorf("failed to unmarshal app: %w", err)
		}
		if err := updater(&app); err != nil {
			return err
		}
		app.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&app)
		if err != nil {
			return fmt.Errorf("failed to marshal updated app: %w", err)
		}
		return b.Put([]byte(id), updated)
	})
}

// GetApp retrieves an app by its ID
func (s *BoltStore) GetApp(ctx context.Context, id string) (*model.App, error) {
	var app *model.App
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(appBucket).Get([]byte(id))
		if data == nil {
			return ErrAppNotFound{ID: id}
		}
		app = &model.App{}
		if err := json.Unmarshal(data, app); err != nil {
			return fmt.Errorf("failed to unmarshal app: %w", err)
		}
		return nil
	})
	return app, err
}

// ListApps retrieves all app instances
func (s *BoltStore) ListApps(ctx context.Context) ([]*model.App, error) {
	var apps []*model.App
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).ForEach(func(k, v []byte) error {
			var app model.App
			if err := json.Unmarshal(v, &app); err != nil {
				return fmt.Errorf("failed to unmarshal app %s: %w", k, err)
			}
			apps = append(apps, &app)
			return nil
		})
	})
	return apps, err
}

// DeleteApp removes an app by its ID
func (s *BoltStore) DeleteApp(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(appBucket)
		if b.Get([]byte(id)) == nil {
			return ErrAppNotFound{ID: id}
		}
		return b.Delete([]byte(id))
	})
}

// GetGlobalSettings returns the settings record, creating it with defaults
// on first read
func (s *BoltStore) GetGlobalSettings(ctx context.Context) (model.GlobalSettings, error) {
	var settings model.GlobalSettings
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(settingsBucket)
		data := b.Get(settingsKey)
		if data == nil {
			settings = model.DefaultGlobalSettings()
			created, err := json.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to marshal default settings: %w", err)
			}
			logger.Info("Creating default global settings")
			return b.Put(settingsKey, created)
		}
		return json.Unmarshal(data, &settings)
	})
	return settings, err
}

// SaveGlobalSettings replaces the settings record
func (s *BoltStore) SaveGlobalSettings(ctx context.Context, settings model.GlobalSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(settingsKey, data)
	})
}

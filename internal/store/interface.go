package store

import (
	"context"

	"github.com/stackarr/stackarr/internal/model"
)

// Store is the persistence boundary: it supplies blueprints, app records and
// the global settings to the generation pipeline and accepts generated stack
// snapshots back. Implementations must be safe for concurrent use.
type Store interface {
	// Open initializes the store and makes it ready for use
	Open() error

	// Close closes the store and releases any resources
	Close() error

	// SaveBlueprint creates or replaces a blueprint by name
	SaveBlueprint(ctx context.Context, bp *model.Blueprint) error

	// GetBlueprint retrieves a blueprint by name
	GetBlueprint(ctx context.Context, name string) (*model.Blueprint, error)

	// ListBlueprints retrieves all blueprints
	ListBlueprints(ctx context.Context) ([]*model.Blueprint, error)

	// DeleteBlueprint removes a blueprint by name
	DeleteBlueprint(ctx context.Context, name string) error

	// CreateApp stores a new app instance, minting an ID when absent
	CreateApp(ctx context.Context, app *model.App) error

	// UpdateApp applies the updater to an existing app record
	UpdateApp(ctx context.Context, id string, updater func(*model.App) error) error

	// GetApp retrieves an app by its ID
	GetApp(ctx context.Context, id string) (*model.App, error)

	// ListApps retrieves all app instances
	ListApps(ctx context.Context) ([]*model.App, error)

	// DeleteApp removes an app by its ID
	DeleteApp(ctx context.Context, id string) error

	// GetGlobalSettings returns the settings record, creating it with
	// defaults on first read
	GetGlobalSettings(ctx context.Context) (model.GlobalSettings, error)

	// SaveGlobalSettings replaces the settings record
	SaveGlobalSettings(ctx context.Context, settings model.GlobalSettings) error
}

// ErrBlueprintNotFound is returned when no blueprint has the requested name
type ErrBlueprintNotFound struct {
	Name string
}

// Error implements the error interface
func (e ErrBlueprintNotFound) Error() string {
	return "blueprint not found: " + e.Name
}

// ErrAppNotFound is returned when no app has the requested ID
type ErrAppNotFound struct {
	ID string
}

// Error implements the error interface
func (e ErrAppNotFound) Error() string {
	return "app not found: " + e.ID
}

// IsNotFound returns true if the error is ErrBlueprintNotFound or ErrAppNotFound
func IsNotFound(err error) bool {
	_, okBlueprint := err.(ErrBlueprintNotFound)
	_, okApp := err.(ErrAppNotFound)
	return okBlueprint || okApp
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"github.com/stackarr/stackarr/internal/hooks"
	"github.com/stackarr/stackarr/internal/installer"
	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/runtime"
	"github.com/stackarr/stackarr/internal/store"
)

// openStore opens the BoltDB-backed store at the configured path. Callers
// must Close it.
func openStore() (store.Store, error) {
	st := store.NewBoltStore(&store.BoltOptions{Path: viper.GetString("db")})
	if err := st.Open(); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// newInstaller wires the store, the Docker driver and an empty hook registry
// into an installer ready for lifecycle commands.
func newInstaller(st store.Store) (*installer.Installer, error) {
	driver, err := runtime.NewDockerDriver()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker: %w", err)
	}
	return installer.New(st, driver, hooks.NewRegistry()), nil
}

// findApp resolves an app by ID or by name.
func findApp(ctx context.Context, st store.Store, ref string) (*model.App, error) {
	if app, err := st.GetApp(ctx, ref); err == nil {
		return app, nil
	}
	apps, err := st.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if app.Name == ref {
			return app, nil
		}
	}
	return nil, fmt.Errorf("no app named %q", ref)
}

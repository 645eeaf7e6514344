package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stackarr/stackarr/internal/compose"
	"github.com/stackarr/stackarr/internal/hooks"
	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/runtime"
	"github.com/stackarr/stackarr/internal/store"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

// ComposeFileName is the descriptor file written into each stack directory.
const ComposeFileName = "compose.yaml"

// EnvFileName is the companion env file written next to the descriptor.
const EnvFileName = ".env"

// Installer orchestrates app lifecycle operations: it serializes work per
// app, runs the generation pipeline, writes the stack artifacts and drives
// the container runtime. Generation failures mark the app record errored
// with the verbatim message; nothing is retried here.
type Installer struct {
	store  store.Store
	driver runtime.Driver
	hooks  *hooks.Registry
	gen    *compose.Generator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an installer. The driver doubles as the network ensurer for
// the generation pipeline's custom-networks transform.
func New(st store.Store, driver runtime.Driver, registry *hooks.Registry) *Installer {
	return &Installer{
		store:  st,
		driver: driver,
		hooks:  registry,
		gen:    compose.NewGenerator(driver),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockApp serializes lifecycle operations per app instance. The generation
// core is safe for concurrent use across apps, but stack files on disk and
// the runtime apply step are not transactional, so one in-flight operation
// per app is enforced here.
func (i *Installer) lockApp(id string) func() {
	i.mu.Lock()
	lock, ok := i.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		i.locks[id] = lock
	}
	i.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// InstallBatch installs the given apps in prerequisite order. A failure
// halts the batch; apps already installed keep running.
func (i *Installer) InstallBatch(ctx context.Context, appIDs []string) error {
	logger.Info("Starting batch installation", zap.Int("count", len(appIDs)))

	apps := make([]*model.App, 0, len(appIDs))
	for _, id := range appIDs {
		app, err := i.store.GetApp(ctx, id)
		if err != nil {
			return err
		}
		apps = append(apps, app)
	}

	blueprints := make(map[string]*model.Blueprint)
	for _, app := range apps {
		if _, ok := blueprints[app.BlueprintName]; ok {
			continue
		}
		bp, err := i.store.GetBlueprint(ctx, app.BlueprintName)
		if err != nil {
			return err
		}
		blueprints[app.BlueprintName] = bp
	}

	installed, err := i.installedBlueprints(ctx)
	if err != nil {
		return err
	}
	if missing := MissingPrerequisites(apps, blueprints, installed); len(missing) > 0 {
		return fmt.Errorf("missing required apps: %v; install them first or add them to the selection", missing)
	}

	order, err := ResolveOrder(apps, blueprints)
	if err != nil {
		return err
	}

	for _, app := range order {
		if err := i.Install(ctx, app.ID); err != nil {
			return fmt.Errorf("installation halted at %s: %w", app.Name, err)
		}
	}
	logger.Info("Batch installation completed")
	return nil
}

func (i *Installer) installedBlueprints(ctx context.Context) (map[string]bool, error) {
	apps, err := i.store.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	installed := make(map[string]bool)
	for _, app := range apps {
		if app.Status == model.StatusRunning || app.Status == model.StatusStopped {
			installed[app.BlueprintName] = true
		}
	}
	return installed, nil
}

// Install generates, writes and applies the stack for one app.
func (i *Installer) Install(ctx context.Context, appID string) error {
	unlock := i.lockApp(appID)
	defer unlock()

	app, err := i.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	logger.Info("Installing app",
		zap.String("app", app.Name), zap.String("blueprint", app.BlueprintName))

	if err := i.setStatus(ctx, appID, model.StatusInstalling, ""); err != nil {
		return err
	}

	// Hook errors are logged inside the registry and never abort.
	_ = i.runHook(ctx, app, hooks.PreInstall, "")

	result, stackDir, err := i.generateAndWrite(ctx, app)
	if err != nil {
		i.markErrored(ctx, appID, err)
		return err
	}

	if err := i.driver.ApplyStack(ctx, stackDir); err != nil {
		i.markErrored(ctx, appID, err)
		return err
	}

	now := time.Now().UTC()
	err = i.store.UpdateApp(ctx, appID, func(a *model.App) error {
		a.Status = model.StatusRunning
		a.ErrorMessage = ""
		a.InstalledAt = &now
		a.StackData = result.Stack.Tree()
		a.StackPath = filepath.Join(stackDir, ComposeFileName)
		return nil
	})
	if err != nil {
		return err
	}

	i.runHookWithAddress(ctx, app, hooks.PostInstall, result.ServiceName)
	logger.Info("App installed", zap.String("app", app.Name))
	return nil
}

// Update regenerates the stack from the app's current inputs and re-applies
// it. Regeneration is idempotent: unchanged inputs produce an identical
// stack.
func (i *Installer) Update(ctx context.Context, appID string) error {
	unlock := i.lockApp(appID)
	defer unlock()

	app, err := i.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	logger.Info("Updating app", zap.String("app", app.Name))

	i.runHookWithAddress(ctx, app, hooks.PreUpdate, "")

	result, stackDir, err := i.generateAndWrite(ctx, app)
	if err != nil {
		i.markErrored(ctx, appID, err)
		return err
	}
	if err := i.driver.ApplyStack(ctx, stackDir); err != nil {
		i.markErrored(ctx, appID, err)
		return err
	}

	err = i.store.UpdateApp(ctx, appID, func(a *model.App) error {
		a.Status = model.StatusRunning
		a.ErrorMessage = ""
		a.StackData = result.Stack.Tree()
		a.StackPath = filepath.Join(stackDir, ComposeFileName)
		return nil
	})
	if err != nil {
		return err
	}

	i.runHookWithAddress(ctx, app, hooks.PostUpdate, result.ServiceName)
	return nil
}

// Start starts a stopped app's containers.
func (i *Installer) Start(ctx context.Context, appID string) error {
	return i.lifecycle(ctx, appID, hooks.PreStart, hooks.PostStart, model.StatusRunning, i.driver.StartStack)
}

// Stop stops a running app's containers without removing them.
func (i *Installer) Stop(ctx context.Context, appID string) error {
	return i.lifecycle(ctx, appID, hooks.PreStop, hooks.PostStop, model.StatusStopped, i.driver.StopStack)
}

func (i *Installer) lifecycle(ctx context.Context, appID string, pre, post hooks.Event, status string, op func(context.Context, string) error) error {
	unlock := i.lockApp(appID)
	defer unlock()

	app, err := i.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	stackDir := filepath.Dir(app.StackPath)
	if app.StackPath == "" {
		return fmt.Errorf("app %s has no generated stack", app.Name)
	}

	i.runHookWithAddress(ctx, app, pre, "")
	if err := op(ctx, stackDir); err != nil {
		i.markErrored(ctx, appID, err)
		return err
	}
	if err := i.setStatus(ctx, appID, status, ""); err != nil {
		return err
	}
	i.runHookWithAddress(ctx, app, post, "")
	return nil
}

// Remove tears the stack down and deletes the app record. The stack
// directory is left on disk so user data inside it survives.
func (i *Installer) Remove(ctx context.Context, appID string) error {
	unlock := i.lockApp(appID)
	defer unlock()

	app, err := i.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	logger.Info("Removing app", zap.String("app", app.Name))

	i.runHookWithAddress(ctx, app, hooks.PreRemove, "")

	if app.StackPath != "" {
		if err := i.driver.TeardownStack(ctx, filepath.Dir(app.StackPath)); err != nil {
			logger.Error("Teardown failed, removing record anyway",
				zap.String("app", app.Name), zap.Error(err))
		}
	}

	if err := i.store.DeleteApp(ctx, appID); err != nil {
		return err
	}
	i.runHookWithAddress(ctx, app, hooks.PostRemove, "")
	return nil
}

// Generate runs the pipeline without touching disk or the runtime; the CLI
// dry-run path uses it.
func (i *Installer) Generate(ctx context.Context, appID string) (*compose.Result, error) {
	app, err := i.store.GetApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	bp, err := i.store.GetBlueprint(ctx, app.BlueprintName)
	if err != nil {
		return nil, err
	}
	globals, err := i.store.GetGlobalSettings(ctx)
	if err != nil {
		return nil, err
	}
	identity, err := i.identity(ctx, app, globals)
	if err != nil {
		return nil, err
	}
	return i.gen.Generate(ctx, bp, globals, identity, app.RawInputs)
}

func (i *Installer) generateAndWrite(ctx context.Context, app *model.App) (*compose.Result, string, error) {
	bp, err := i.store.GetBlueprint(ctx, app.BlueprintName)
	if err != nil {
		return nil, "", err
	}
	globals, err := i.store.GetGlobalSettings(ctx)
	if err != nil {
		return nil, "", err
	}
	identity, err := i.identity(ctx, app, globals)
	if err != nil {
		return nil, "", err
	}

	result, err := i.gen.Generate(ctx, bp, globals, identity, app.RawInputs)
	if err != nil {
		return nil, "", err
	}

	// Files are written only after a fully successful generation so a failed
	// pass never leaves a half-written stack behind.
	stackDir := filepath.Join(globals.StacksPath, app.Name)
	if err := os.MkdirAll(stackDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create stack directory: %w", err)
	}
	data, err := result.Stack.YAML()
	if err != nil {
		return nil, "", err
	}
	if err := os.WriteFile(filepath.Join(stackDir, ComposeFileName), data, 0644); err != nil {
		return nil, "", fmt.Errorf("failed to write compose file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stackDir, EnvFileName), []byte(result.EnvFile), 0644); err != nil {
		return nil, "", fmt.Errorf("failed to write env file: %w", err)
	}
	logger.Debug("Stack files written", zap.String("dir", stackDir))
	return result, stackDir, nil
}

func (i *Installer) identity(ctx context.Context, app *model.App, globals model.GlobalSettings) (model.AppIdentity, error) {
	hostStacks, err := i.driver.ResolveHostPath(ctx, globals.StacksPath)
	if err != nil {
		return model.AppIdentity{}, err
	}
	return model.AppIdentity{
		ID:            app.ID,
		Name:          app.Name,
		BlueprintName: app.BlueprintName,
		HostPath:      filepath.Join(hostStacks, app.Name),
	}, nil
}

func (i *Installer) setStatus(ctx context.Context, appID, status, errMsg string) error {
	return i.store.UpdateApp(ctx, appID, func(a *model.App) error {
		a.Status = status
		a.ErrorMessage = errMsg
		return nil
	})
}

func (i *Installer) markErrored(ctx context.Context, appID string, cause error) {
	logger.Error("App operation failed", zap.String("id", appID), zap.Error(cause))
	if err := i.setStatus(ctx, appID, model.StatusError, cause.Error()); err != nil {
		logger.Error("Failed to record app error", zap.String("id", appID), zap.Error(err))
	}
}

func (i *Installer) runHook(ctx context.Context, app *model.App, event hooks.Event, containerName string) error {
	if i.hooks == nil {
		return nil
	}
	hc := &hooks.Context{
		AppID:         app.ID,
		AppName:       app.Name,
		BlueprintName: app.BlueprintName,
		ContainerName: containerName,
		Inputs:        app.RawInputs,
	}
	return i.hooks.Run(ctx, app.BlueprintName, event, hc)
}

// runHookWithAddress resolves the container's network address before handing
// off to the hook; resolution failures are tolerated since a hook may not
// need the address at all.
func (i *Installer) runHookWithAddress(ctx context.Context, app *model.App, event hooks.Event, containerName string) {
	if i.hooks == nil {
		return
	}
	if containerName == "" {
		containerName = app.Name
	}
	hc := &hooks.Context{
		AppID:         app.ID,
		AppName:       app.Name,
		BlueprintName: app.BlueprintName,
		ContainerName: containerName,
		Inputs:        app.RawInputs,
	}
	globals, err := i.store.GetGlobalSettings(ctx)
	if err == nil {
		if addr, err := i.driver.ContainerAddress(ctx, containerName, globals.NetworkName); err == nil {
			hc.ContainerAddress = addr
		}
	}
	// Hook failures are logged by the registry; the lifecycle continues.
	_ = i.hooks.Run(ctx, app.BlueprintName, event, hc)
}

package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackarr/stackarr/internal/hooks"
	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/store"
)

// fakeDriver records runtime calls without touching Docker.
type fakeDriver struct {
	applied    []string
	tornDown   []string
	started    []string
	stopped    []string
	applyErr   error
	networks   []string
	networkErr error
}

func (f *fakeDriver) ApplyStack(ctx context.Context, dir string) error {
	f.applied = append(f.applied, dir)
	return f.applyErr
}

func (f *fakeDriver) TeardownStack(ctx context.Context, dir string) error {
	f.tornDown = append(f.tornDown, dir)
	return nil
}

func (f *fakeDriver) StartStack(ctx context.Context, dir string) error {
	f.started = append(f.started, dir)
	return nil
}

func (f *fakeDriver) StopStack(ctx context.Context, dir string) error {
	f.stopped = append(f.stopped, dir)
	return nil
}

func (f *fakeDriver) EnsureNetwork(ctx context.Context, name string) error {
	f.networks = append(f.networks, name)
	return f.networkErr
}

func (f *fakeDriver) NetworkExists(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (f *fakeDriver) ResolveHostPath(ctx context.Context, containerPath string) (string, error) {
	return containerPath, nil
}

func (f *fakeDriver) ContainerAddress(ctx context.Context, containerName, networkName string) (string, error) {
	return "10.21.12.5", nil
}

func installFixture(t *testing.T) (*Installer, store.Store, *fakeDriver, string) {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemoryStore()
	bp := &model.Blueprint{
		Name:        "sonarr",
		DisplayName: "Sonarr",
		Category:    "media",
		Schema: map[string]*model.FieldSchema{
			"image": {
				Type:       model.TypeString,
				SchemaPath: "service.image",
				Default:    "linuxserver/sonarr",
			},
		},
	}
	if err := st.SaveBlueprint(ctx, bp); err != nil {
		t.Fatalf("SaveBlueprint failed: %v", err)
	}

	stacksDir := t.TempDir()
	settings, err := st.GetGlobalSettings(ctx)
	if err != nil {
		t.Fatalf("GetGlobalSettings failed: %v", err)
	}
	settings.StacksPath = stacksDir
	if err := st.SaveGlobalSettings(ctx, settings); err != nil {
		t.Fatalf("SaveGlobalSettings failed: %v", err)
	}

	driver := &fakeDriver{}
	return New(st, driver, hooks.NewRegistry()), st, driver, stacksDir
}

func createApp(t *testing.T, st store.Store, name string) *model.App {
	t.Helper()
	app := &model.App{
		Name:          name,
		BlueprintName: "sonarr",
		Status:        model.StatusConfigured,
		RawInputs:     map[string]any{},
	}
	if err := st.CreateApp(context.Background(), app); err != nil {
		t.Fatalf("CreateApp failed: %v", err)
	}
	return app
}

func TestInstallWritesStackFilesAndAppliesStack(t *testing.T) {
	inst, st, driver, stacksDir := installFixture(t)
	ctx := context.Background()
	app := createApp(t, st, "sonarr")

	if err := inst.Install(ctx, app.ID); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	stackDir := filepath.Join(stacksDir, "sonarr")
	if _, err := os.Stat(filepath.Join(stackDir, ComposeFileName)); err != nil {
		t.Errorf("compose file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stackDir, EnvFileName)); err != nil {
		t.Errorf("env file missing: %v", err)
	}
	if len(driver.applied) != 1 || driver.applied[0] != stackDir {
		t.Errorf("applied = %v", driver.applied)
	}

	got, err := st.GetApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApp failed: %v", err)
	}
	if got.Status != model.StatusRunning {
		t.Errorf("status = %s, want %s", got.Status, model.StatusRunning)
	}
	if got.InstalledAt == nil {
		t.Error("InstalledAt not set")
	}
	if got.StackPath != filepath.Join(stackDir, ComposeFileName) {
		t.Errorf("StackPath = %s", got.StackPath)
	}
	if got.StackData == nil {
		t.Error("StackData not persisted")
	}
}

func TestInstallGenerationFailureMarksAppErrored(t *testing.T) {
	inst, st, driver, stacksDir := installFixture(t)
	ctx := context.Background()

	app := createApp(t, st, "broken")
	if err := st.UpdateApp(ctx, app.ID, func(a *model.App) error {
		// An explicit empty image defeats the schema default and fails
		// descriptor validation.
		a.RawInputs = map[string]any{"image": ""}
		return nil
	}); err != nil {
		t.Fatalf("UpdateApp failed: %v", err)
	}

	if err := inst.Install(ctx, app.ID); err == nil {
		t.Fatal("expected install to fail")
	}

	got, _ := st.GetApp(ctx, app.ID)
	if got.Status != model.StatusError {
		t.Errorf("status = %s, want %s", got.Status, model.StatusError)
	}
	if got.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
	if len(driver.applied) != 0 {
		t.Errorf("stack applied despite generation failure: %v", driver.applied)
	}
	if _, err := os.Stat(filepath.Join(stacksDir, "broken", ComposeFileName)); err == nil {
		t.Error("stack file written despite generation failure")
	}
}

func TestInstallApplyFailureMarksAppErrored(t *testing.T) {
	inst, st, driver, _ := installFixture(t)
	ctx := context.Background()
	driver.applyErr = errors.New("compose up failed")

	app := createApp(t, st, "sonarr")
	if err := inst.Install(ctx, app.ID); err == nil {
		t.Fatal("expected install to fail")
	}

	got, _ := st.GetApp(ctx, app.ID)
	if got.Status != model.StatusError {
		t.Errorf("status = %s", got.Status)
	}
	if got.ErrorMessage != "compose up failed" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
}

func TestInstallBatchHonorsPrerequisiteOrder(t *testing.T) {
	inst, st, driver, stacksDir := installFixture(t)
	ctx := context.Background()

	dependent := &model.Blueprint{
		Name:          "dependent",
		DisplayName:   "Dependent",
		Category:      "media",
		Prerequisites: []string{"sonarr"},
		Schema: map[string]*model.FieldSchema{
			"image": {Type: model.TypeString, SchemaPath: "service.image", Default: "dependent/image"},
		},
	}
	if err := st.SaveBlueprint(ctx, dependent); err != nil {
		t.Fatalf("SaveBlueprint failed: %v", err)
	}

	depApp := &model.App{Name: "dependent", BlueprintName: "dependent", Status: model.StatusConfigured}
	if err := st.CreateApp(ctx, depApp); err != nil {
		t.Fatalf("CreateApp failed: %v", err)
	}
	baseApp := createApp(t, st, "sonarr")

	if err := inst.InstallBatch(ctx, []string{depApp.ID, baseApp.ID}); err != nil {
		t.Fatalf("InstallBatch failed: %v", err)
	}

	want := []string{
		filepath.Join(stacksDir, "sonarr"),
		filepath.Join(stacksDir, "dependent"),
	}
	if len(driver.applied) != 2 || driver.applied[0] != want[0] || driver.applied[1] != want[1] {
		t.Errorf("applied = %v, want %v", driver.applied, want)
	}
}

func TestInstallBatchRejectsMissingPrerequisites(t *testing.T) {
	inst, st, _, _ := installFixture(t)
	ctx := context.Background()

	dependent := &model.Blueprint{
		Name:          "dependent",
		DisplayName:   "Dependent",
		Category:      "media",
		Prerequisites: []string{"sonarr"},
		Schema: map[string]*model.FieldSchema{
			"image": {Type: model.TypeString, SchemaPath: "service.image", Default: "dependent/image"},
		},
	}
	if err := st.SaveBlueprint(ctx, dependent); err != nil {
		t.Fatalf("SaveBlueprint failed: %v", err)
	}
	depApp := &model.App{Name: "dependent", BlueprintName: "dependent", Status: model.StatusConfigured}
	if err := st.CreateApp(ctx, depApp); err != nil {
		t.Fatalf("CreateApp failed: %v", err)
	}

	if err := inst.InstallBatch(ctx, []string{depApp.ID}); err == nil {
		t.Fatal("expected a missing-prerequisite error")
	}
}

func TestRemoveTearsDownAndDeletes(t *testing.T) {
	inst, st, driver, stacksDir := installFixture(t)
	ctx := context.Background()
	app := createApp(t, st, "sonarr")

	if err := inst.Install(ctx, app.ID); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := inst.Remove(ctx, app.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if len(driver.tornDown) != 1 || driver.tornDown[0] != filepath.Join(stacksDir, "sonarr") {
		t.Errorf("tornDown = %v", driver.tornDown)
	}
	if _, err := st.GetApp(ctx, app.ID); !store.IsNotFound(err) {
		t.Errorf("app record still present: %v", err)
	}
}

func TestStopAndStart(t *testing.T) {
	inst, st, driver, _ := installFixture(t)
	ctx := context.Background()
	app := createApp(t, st, "sonarr")

	if err := inst.Install(ctx, app.ID); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := inst.Stop(ctx, app.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	got, _ := st.GetApp(ctx, app.ID)
	if got.Status != model.StatusStopped {
		t.Errorf("status after stop = %s", got.Status)
	}

	if err := inst.Start(ctx, app.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got, _ = st.GetApp(ctx, app.ID)
	if got.Status != model.StatusRunning {
		t.Errorf("status after start = %s", got.Status)
	}
	if len(driver.stopped) != 1 || len(driver.started) != 1 {
		t.Errorf("stopped = %v, started = %v", driver.stopped, driver.started)
	}
}

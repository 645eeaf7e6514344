package preset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaPreset = `{
  "name": "Media Server",
  "description": "Sonarr plus its indexer",
  "apps": ["sonarr", "prowlarr"]
}`

func writePreset(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(content), 0644))
}

func presetFixture(t *testing.T) (*Service, store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewMemoryStore()

	sonarr := &model.Blueprint{
		Name:        "sonarr",
		DisplayName: "Sonarr",
		Category:    "media",
		Schema: map[string]*model.FieldSchema{
			"image": {
				Type:       model.TypeString,
				SchemaPath: "service.image",
				Default:    "linuxserver/sonarr",
			},
			"api_key": {
				Type:        model.TypeString,
				Label:       "API Key",
				UIComponent: "text",
				Required:    true,
				IsSensitive: true,
			},
		},
	}
	prowlarr := &model.Blueprint{
		Name:        "prowlarr",
		DisplayName: "Prowlarr",
		Category:    "media",
		Schema: map[string]*model.FieldSchema{
			"image": {
				Type:       model.TypeString,
				SchemaPath: "service.image",
				Default:    "linuxserver/prowlarr",
			},
		},
	}
	ctx := context.Background()
	require.NoError(t, st.SaveBlueprint(ctx, sonarr))
	require.NoError(t, st.SaveBlueprint(ctx, prowlarr))

	return NewService(dir, st), st, dir
}

func TestListSortsAndSkipsBrokenFiles(t *testing.T) {
	svc, _, dir := presetFixture(t)
	writePreset(t, dir, "media", mediaPreset)
	writePreset(t, dir, "zz-first", `{"name": "Alpha", "apps": ["sonarr"]}`)
	writePreset(t, dir, "broken", `{"name": "Broken"`)
	writePreset(t, dir, "no-apps", `{"name": "Empty", "apps": []}`)

	presets, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "Alpha", presets[0].Name)
	assert.Equal(t, "Media Server", presets[1].Name)
	assert.Equal(t, "zz-first", presets[0].ID, "ID comes from the file name")
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "nope"), store.NewMemoryStore())
	presets, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestGetUnknownPreset(t *testing.T) {
	svc, _, _ := presetFixture(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestAnalyzeReportsRequiredInputs(t *testing.T) {
	svc, st, dir := presetFixture(t)
	writePreset(t, dir, "media", `{"name": "Media", "apps": ["sonarr", "prowlarr", "ghost"]}`)
	ctx := context.Background()

	require.NoError(t, st.CreateApp(ctx, &model.App{
		Name: "prowlarr", BlueprintName: "prowlarr", Status: model.StatusRunning,
	}))

	analysis, err := svc.Analyze(ctx, "media")
	require.NoError(t, err)

	assert.Equal(t, []string{"sonarr"}, analysis.AvailableApps)
	assert.Equal(t, []string{"ghost"}, analysis.MissingBlueprints)
	assert.Equal(t, []string{"prowlarr"}, analysis.AlreadyExists)

	require.Len(t, analysis.RequiredInputs["sonarr"], 1)
	input := analysis.RequiredInputs["sonarr"][0]
	assert.Equal(t, "api_key", input.Field)
	assert.Equal(t, "API Key", input.Label)
	assert.True(t, input.IsSensitive)
}

func TestAnalyzeRequiredSkipsFieldsWithDefaults(t *testing.T) {
	svc, _, dir := presetFixture(t)
	writePreset(t, dir, "solo", `{"name": "Solo", "apps": ["prowlarr"]}`)

	analysis, err := svc.Analyze(context.Background(), "solo")
	require.NoError(t, err)
	assert.Empty(t, analysis.RequiredInputs)
}

func TestApplyCreatesConfiguredApps(t *testing.T) {
	svc, st, dir := presetFixture(t)
	writePreset(t, dir, "media", mediaPreset)
	ctx := context.Background()

	result, err := svc.Apply(ctx, "media", map[string]map[string]any{
		"sonarr": {"api_key": "secret"},
	})
	require.NoError(t, err)
	require.Len(t, result.CreatedApps, 2)
	assert.Empty(t, result.Skipped)

	sonarr, err := st.GetApp(ctx, result.CreatedApps[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfigured, sonarr.Status)
	assert.Equal(t, "secret", sonarr.RawInputs["api_key"])
	assert.Equal(t, "linuxserver/sonarr", sonarr.RawInputs["image"],
		"schema defaults fill unanswered fields")
}

func TestApplySkipsExistingAndMissing(t *testing.T) {
	svc, st, dir := presetFixture(t)
	writePreset(t, dir, "media", `{"name": "Media", "apps": ["sonarr", "ghost"]}`)
	ctx := context.Background()

	require.NoError(t, st.CreateApp(ctx, &model.App{
		Name: "sonarr", BlueprintName: "sonarr", Status: model.StatusRunning,
	}))

	result, err := svc.Apply(ctx, "media", nil)
	require.NoError(t, err)
	assert.Empty(t, result.CreatedApps)
	assert.ElementsMatch(t, []string{"sonarr", "ghost"}, result.Skipped)
	assert.Equal(t, "app already exists", result.Errors["sonarr"])
	assert.Equal(t, "blueprint not found", result.Errors["ghost"])
}

func TestApplyDoesNotOverwriteUserValues(t *testing.T) {
	svc, st, dir := presetFixture(t)
	writePreset(t, dir, "solo", `{"name": "Solo", "apps": ["prowlarr"]}`)
	ctx := context.Background()

	result, err := svc.Apply(ctx, "solo", map[string]map[string]any{
		"prowlarr": {"image": "linuxserver/prowlarr:develop"},
	})
	require.NoError(t, err)
	require.Len(t, result.CreatedApps, 1)

	app, err := st.GetApp(ctx, result.CreatedApps[0])
	require.NoError(t, err)
	assert.Equal(t, "linuxserver/prowlarr:develop", app.RawInputs["image"])
}

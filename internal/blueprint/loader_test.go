package blueprint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackarr/stackarr/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlBlueprint = `
name: sonarr
display_name: Sonarr
category: media
schema:
  image:
    type: string
    schema: service.image
    default: linuxserver/sonarr
`

const jsonBlueprint = `{
  "name": "radarr",
  "display_name": "Radarr",
  "category": "media",
  "install_order": 20,
  "schema": {
    "image": {"type": "string", "schema": "service.image"}
  }
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadAllMixedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sonarr.yaml", yamlBlueprint)
	writeFile(t, dir, "radarr.json", jsonBlueprint)
	writeFile(t, dir, "notes.txt", "ignored")

	st := store.NewMemoryStore()
	loader := NewLoader(dir, st)

	loaded, failed, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 0, failed)

	sonarr, err := st.GetBlueprint(context.Background(), "sonarr")
	require.NoError(t, err)
	assert.Equal(t, "Sonarr", sonarr.DisplayName)
	assert.Equal(t, float64(10), sonarr.InstallOrder, "unset install_order takes the default")
	assert.True(t, sonarr.Visible)

	radarr, err := st.GetBlueprint(context.Background(), "radarr")
	require.NoError(t, err)
	assert.Equal(t, float64(20), radarr.InstallOrder)
}

func TestLoadAllSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", yamlBlueprint)
	writeFile(t, dir, "broken.yaml", "name: [unclosed")
	writeFile(t, dir, "invalid.yaml", "name: x\ndisplay_name: X\nschema: {}\n")

	st := store.NewMemoryStore()
	loader := NewLoader(dir, st)

	loaded, failed, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 2, failed)
}

func TestParseRejectsUnknownFieldType(t *testing.T) {
	_, err := Parse([]byte(`
name: bad
display_name: Bad
schema:
  thing:
    type: widget
`), ".yaml")
	assert.ErrorContains(t, err, "unknown type")
}

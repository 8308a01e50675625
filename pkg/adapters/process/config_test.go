package process

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFileName)
	content := `
plugins:
  - name: Summarizer
    command: python3
    args: ["summarize.py"]
    env:
      OLLAMA_MODEL: mistral
  - name: Empty
  - name: Whisper
    command: ./whisper-plugin
    dir: /opt/whisper
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2, "entries without a command are skipped")

	assert.Equal(t, "Summarizer", entries[0].Name)
	assert.Equal(t, []string{"summarize.py"}, entries[0].Args)
	assert.Equal(t, "mistral", entries[0].Environment["OLLAMA_MODEL"])
	assert.Equal(t, dir, entries[0].Dir, "dir defaults to the manifest directory")
	assert.Equal(t, "/opt/whisper", entries[1].Dir)
}

func TestLoadManifest_Missing(t *testing.T) {
	entries, err := LoadManifest(filepath.Join(t.TempDir(), ManifestFileName))
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadManifest_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"plugins":[{"name":"A","command":"a"}]}`), 0o644))

	entries, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Name)
}

package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveImageSourceURL(t *testing.T) {
	src, err := resolveImageSource("https://example.com/look.jpg")
	require.NoError(t, err)

	assert.True(t, src.IsURL())
	assert.Equal(t, "https://example.com/look.jpg", src.URL)
}

func TestResolveImageSourceLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "look.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF}, 0o644))

	src, err := resolveImageSource(path)
	require.NoError(t, err)

	assert.False(t, src.IsURL())
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, src.Data)
}

func TestResolveImageSourceMissingFile(t *testing.T) {
	_, err := resolveImageSource(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}

func TestResolveImageSourceEmpty(t *testing.T) {
	_, err := resolveImageSource("")
	assert.Error(t, err)
}

func TestExportJSONWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, exportJSON(path, map[string]int{"matches": 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded["matches"])
}

package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := zip.NewWriter(f)
	for name, body := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestUnzip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pack.zip")
	writeZip(t, zipPath, map[string]string{
		"pack/rig.glb":      "glb",
		"pack/tex/skin.png": "png",
		"../escape.glb":     "nope",
	})

	dest := filepath.Join(dir, "out")
	got, err := Unzip(zipPath, dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "pack", "rig.glb"),
		filepath.Join(dest, "pack", "tex", "skin.png"),
	}, got)
	_, err = os.Stat(filepath.Join(dir, "escape.glb"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dest, "pack", "rig.glb"))
	require.NoError(t, err)
	assert.Equal(t, "glb", string(data))
}

func TestUnzipInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0644))
	_, err := Unzip(bad, filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestFindModels(t *testing.T) {
	paths := []string{"b/scene.gltf", "a/tex.png", "z/rig.GLB", "c/avatar.vrm", "a/scene.bin"}
	got := FindModels(paths, []string{".glb", ".gltf", ".vrm"})
	assert.Equal(t, []string{"c/avatar.vrm", "z/rig.GLB", "b/scene.gltf"}, got)
	assert.Empty(t, FindModels([]string{"x.png"}, []string{".glb"}))
}

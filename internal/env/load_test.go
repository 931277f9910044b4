package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	assert.NoError(t, Load(filepath.Join(t.TempDir(), ".env")))
}

func TestLoad_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# viewer overrides\nANYPOSE_TEST_MODELS_DIR=\"assets/models\"\nANYPOSE_TEST_KEEP=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("ANYPOSE_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("ANYPOSE_TEST_MODELS_DIR") })

	require.NoError(t, Load(path))

	assert.Equal(t, "assets/models", os.Getenv("ANYPOSE_TEST_MODELS_DIR"))
	assert.Equal(t, "from-env", os.Getenv("ANYPOSE_TEST_KEEP"))
}

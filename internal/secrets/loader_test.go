package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

	got, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(Source{Name: "redis password"})
	assert.ErrorContains(t, err, "redis password is not configured")

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  "), 0o600))
	_, err = Load(Source{File: empty})
	assert.ErrorContains(t, err, "is empty")

	_, err = Load(Source{File: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestLoadOptional(t *testing.T) {
	t.Parallel()

	got, err := LoadOptional(Source{Name: "redis password"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = LoadOptional(Source{Value: " s3cret "})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HH_MATCHER_TEST_SECRET", " from-env ")

	got, err := Load(Source{Name: "gemini api key", Value: "inline", Env: "HH_MATCHER_TEST_SECRET"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = LoadOptional(Source{Env: "HH_MATCHER_TEST_SECRET"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Load(Source{Value: "inline", Env: "HH_MATCHER_TEST_UNSET"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, yamlContent string) string {
	t.Helper()
	dir := t.TempDir()
	if yamlContent != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "overwatch.yaml"), []byte(yamlContent), 0o644))
	}
	return dir
}

func TestInitialize_LoadsYAMLAndAppliesBuiltinDefaults(t *testing.T) {
	dir := writeConfigDir(t, `
database:
  url: postgres://localhost/overwatch
llm:
  flagship: gpt-5
  mid_range: gpt-5-mini
  fast: gpt-5-nano
`)

	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port, "unset server.port falls back to the built-in default")
	assert.Equal(t, 720, cfg.Simulation.DefaultCompression)
	assert.Equal(t, 1000, cfg.Simulation.TickIntervalMs)
	assert.Equal(t, "postgres://localhost/overwatch", cfg.Database.URL)
	assert.Equal(t, "gpt-5", cfg.LLM.Flagship)
}

func TestInitialize_EnvVarsOverrideYAML(t *testing.T) {
	dir := writeConfigDir(t, `
server:
  port: 9000
database:
  url: postgres://localhost/overwatch
llm:
  flagship: gpt-5
  mid_range: gpt-5-mini
  fast: gpt-5-nano
`)
	t.Setenv("PORT", "4242")
	t.Setenv("LLM_FAST", "gpt-5-nano-override")

	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, 4242, cfg.Server.Port)
	assert.Equal(t, "gpt-5-nano-override", cfg.LLM.Fast)
}

func TestInitialize_ExpandsEnvVarsInYAML(t *testing.T) {
	t.Setenv("OVERWATCH_TEST_DB_URL", "postgres://expanded/overwatch")
	dir := writeConfigDir(t, `
database:
  url: ${OVERWATCH_TEST_DB_URL}
llm:
  flagship: gpt-5
  mid_range: gpt-5-mini
  fast: gpt-5-nano
`)

	cfg, err := Initialize(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://expanded/overwatch", cfg.Database.URL)
}

func TestInitialize_MissingLLMModelFailsValidation(t *testing.T) {
	dir := writeConfigDir(t, `
database:
  url: postgres://localhost/overwatch
llm:
  flagship: gpt-5
`)

	_, err := Initialize(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestInitialize_MissingYAMLFileIsNotFatal(t *testing.T) {
	dir := writeConfigDir(t, "")
	t.Setenv("DATABASE_URL", "postgres://localhost/overwatch")
	t.Setenv("LLM_FLAGSHIP", "gpt-5")
	t.Setenv("LLM_MID_RANGE", "gpt-5-mini")
	t.Setenv("LLM_FAST", "gpt-5-nano")

	cfg, err := Initialize(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/overwatch", cfg.Database.URL)
}

func TestInitialize_LoadsConstellationCatalog(t *testing.T) {
	dir := writeConfigDir(t, `
database:
  url: postgres://localhost/overwatch
llm:
  flagship: gpt-5
  mid_range: gpt-5-mini
  fast: gpt-5-nano
`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "catalog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog", "seed.yaml"), []byte(`
constellations:
  - name: SBIRS-GEO
    affiliation: FRIENDLY
`), 0o644))

	cfg, err := Initialize(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Catalog.Len())
}

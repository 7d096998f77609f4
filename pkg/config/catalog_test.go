package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNewCatalogRegistry_LoadsTemplatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "friendly.yaml", `
constellations:
  - name: SBIRS-GEO
    constellation: SBIRS
    affiliation: FRIENDLY
    capabilities: [IR, MISSILE_WARNING]
    inclination_deg: 0
    period_min: 1436
`)
	writeCatalogFile(t, dir, "hostile.yaml", `
constellations:
  - name: Yaogan-Recon
    constellation: Yaogan
    affiliation: HOSTILE
    capabilities: [SAR]
    count: 4
`)

	reg, err := NewCatalogRegistry(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	tmpl, err := reg.Get("SBIRS-GEO")
	require.NoError(t, err)
	assert.Equal(t, "FRIENDLY", tmpl.Affiliation)
	assert.ElementsMatch(t, []string{"IR", "MISSILE_WARNING"}, tmpl.Capabilities)
}

func TestNewCatalogRegistry_MissingDirIsNotAnError(t *testing.T) {
	reg, err := NewCatalogRegistry(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestCatalogRegistry_Get_UnknownNameErrors(t *testing.T) {
	reg, err := NewCatalogRegistry(t.TempDir())
	require.NoError(t, err)

	_, err = reg.Get("nonexistent")
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestCatalogRegistry_Watch_ReloadsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "seed.yaml", `
constellations:
  - name: GPS-III
    affiliation: FRIENDLY
`)

	reg, err := NewCatalogRegistry(dir)
	require.NoError(t, err)
	require.NoError(t, reg.Watch())
	t.Cleanup(func() { reg.Close() })

	require.Equal(t, 1, reg.Len())

	writeCatalogFile(t, dir, "seed.yaml", `
constellations:
  - name: GPS-III
    affiliation: FRIENDLY
  - name: GPS-IIF
    affiliation: FRIENDLY
`)

	require.Eventually(t, func() bool {
		return reg.Len() == 2
	}, 2*time.Second, 20*time.Millisecond)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	catalog, err := NewCatalogRegistry(t.TempDir())
	require.NoError(t, err)
	return &Config{
		Server:     DefaultServerConfig(),
		Database:   &DatabaseConfig{URL: "postgres://localhost/overwatch"},
		LLM:        &LLMConfig{Flagship: "gpt-5", MidRange: "gpt-5-mini", Fast: "gpt-5-nano"},
		UDL:        &UDLConfig{},
		Simulation: DefaultSimulationConfig(),
		Catalog:    catalog,
	}
}

func TestValidateAll_AcceptsWellFormedConfig(t *testing.T) {
	assert.NoError(t, NewValidator(validConfig(t)).ValidateAll())
}

func TestValidateAll_RejectsOutOfRangePort(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Port = 70000

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "server", verr.Component)
}

func TestValidateAll_RejectsMissingDatabaseURL(t *testing.T) {
	cfg := validConfig(t)
	cfg.Database.URL = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidateAll_RejectsZeroTickInterval(t *testing.T) {
	cfg := validConfig(t)
	cfg.Simulation.TickIntervalMs = 0

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "simulation", verr.Component)
}

func TestValidateAll_StopsAtFirstSectionError(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Port = -1
	cfg.Database.URL = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "server", verr.Component, "validation is fail-fast in declared section order")
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates configuration for configDir.
//
// Steps performed:
//  1. Load .env from configDir (non-fatal if absent)
//  2. Load overwatch.yaml, expand ${VAR} references
//  3. Merge loaded values over built-in defaults
//  4. Apply environment-variable overrides (12-factor escape hatch)
//  5. Load the constellation catalog from configDir/catalog/*.yaml
//  6. Validate
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Warn("no .env file loaded", "path", envPath, "error", err)
	}

	yamlCfg, err := loadOverwatchYAML(configDir)
	if err != nil {
		return nil, err
	}

	server := DefaultServerConfig()
	if yamlCfg.Server != nil {
		if err := mergo.Merge(server, yamlCfg.Server, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge server config: %w", err)
		}
	}

	simulation := DefaultSimulationConfig()
	if yamlCfg.Simulation != nil {
		if err := mergo.Merge(simulation, yamlCfg.Simulation, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge simulation config: %w", err)
		}
	}

	llm := DefaultLLMConfig()
	if yamlCfg.LLM != nil {
		if err := mergo.Merge(llm, yamlCfg.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge llm config: %w", err)
		}
	}

	database := &DatabaseConfig{}
	if yamlCfg.Database != nil {
		database = yamlCfg.Database
	}

	udl := &UDLConfig{}
	if yamlCfg.UDL != nil {
		udl = yamlCfg.UDL
	}

	applyEnvOverrides(server, database, llm, udl, simulation)

	catalog, err := NewCatalogRegistry(filepath.Join(configDir, "catalog"))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	cfg := &Config{
		configDir:  configDir,
		Server:     server,
		Database:   database,
		LLM:        llm,
		UDL:        udl,
		Simulation: simulation,
		Catalog:    catalog,
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"constellation_templates", stats.ConstellationTemplates,
		"server_port", cfg.Server.Port,
		"compression", cfg.Simulation.DefaultCompression)

	return cfg, nil
}

func loadOverwatchYAML(configDir string) (*OverwatchYAMLConfig, error) {
	path := filepath.Join(configDir, "overwatch.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// A config file is optional: every field can arrive via env vars.
			return &OverwatchYAMLConfig{}, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var cfg OverwatchYAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return &cfg, nil
}

// applyEnvOverrides lets bare environment variables win over YAML, matching
// the §/environment configuration table: PORT, DATABASE_URL, OPENAI_API_KEY,
// CORS_ORIGIN, LLM_FLAGSHIP/LLM_MID_RANGE/LLM_FAST, UDL_USERNAME/
// UDL_PASSWORD/UDL_BASE_URL.
func applyEnvOverrides(server *ServerConfig, database *DatabaseConfig, llm *LLMConfig, udl *UDLConfig, sim *SimulationConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		server.CORSOrigin = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		database.URL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		llm.APIKey = v
	}
	if v := os.Getenv("LLM_FLAGSHIP"); v != "" {
		llm.Flagship = v
	}
	if v := os.Getenv("LLM_MID_RANGE"); v != "" {
		llm.MidRange = v
	}
	if v := os.Getenv("LLM_FAST"); v != "" {
		llm.Fast = v
	}
	if v := os.Getenv("UDL_USERNAME"); v != "" {
		udl.Username = v
	}
	if v := os.Getenv("UDL_PASSWORD"); v != "" {
		udl.Password = v
	}
	if v := os.Getenv("UDL_BASE_URL"); v != "" {
		udl.BaseURL = v
	}
}

// validate runs basic cross-field checks; most detail validation lives in
// the validator.go table for the same reasons the teacher splits it out.
func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

package config

// ServerConfig holds the HTTP listener and CORS settings.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// DatabaseConfig holds the Postgres connection URL. The validator requires
// it to be set; cmd/overwatch does not read it and takes its connection
// settings from store.LoadConfigFromEnv instead.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LLMConfig names the three model tiers the generation and ingest
// pipelines call through pkg/llm and pkg/retrylog.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Flagship  string `yaml:"flagship"`
	MidRange  string `yaml:"mid_range"`
	Fast      string `yaml:"fast"`
}

// UDLConfig holds credentials for the external satellite catalog service
// (pkg/catalog.Client).
type UDLConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SimulationConfig holds the clock/coverage defaults applied to every new
// scenario's SimulationState unless overridden at generation time.
type SimulationConfig struct {
	DefaultCompression         int `yaml:"default_compression" validate:"omitempty,min=1"`
	TickIntervalMs             int `yaml:"tick_interval_ms" validate:"omitempty,min=1"`
	PositionUpdateIntervalMs   int `yaml:"position_update_interval_ms" validate:"omitempty,min=1"`
}

// ConstellationTemplate is a seed record for a satellite family, used by
// the scenario generator to populate SpaceAssets when UDL lookups are
// unavailable or for hostile assets UDL does not carry.
type ConstellationTemplate struct {
	Name           string   `yaml:"name" validate:"required"`
	Constellation  string   `yaml:"constellation"`
	Affiliation    string   `yaml:"affiliation" validate:"required"`
	Capabilities   []string `yaml:"capabilities"`
	InclinationDeg float64  `yaml:"inclination_deg"`
	PeriodMin      float64  `yaml:"period_min"`
	Eccentricity   float64  `yaml:"eccentricity"`
	Count          int      `yaml:"count" validate:"omitempty,min=1"`
	// SatNo is the NORAD catalog number UDL tracks this template under, set
	// only for friendly assets UDL actually carries. Zero means UDL-less:
	// the template's static orbital fields are authoritative.
	SatNo int `yaml:"sat_no,omitempty"`
}

// BaseTemplate is a seed record for a theater operating base, used by the
// Theater Bases generation step as reference data folded into downstream
// prompt context (bases are not persisted as their own entity).
type BaseTemplate struct {
	Name        string  `yaml:"name" validate:"required"`
	Country     string  `yaml:"country"`
	Lat         float64 `yaml:"lat"`
	Lon         float64 `yaml:"lon"`
	Affiliation string  `yaml:"affiliation" validate:"required"`
	RunwayCount int     `yaml:"runway_count"`
}

// OrbatUnitTemplate is a seed record for a friendly or hostile force
// element, used by the Joint Force ORBAT generation step the same way
// BaseTemplate is: prompt context, not a persisted entity.
type OrbatUnitTemplate struct {
	Name         string `yaml:"name" validate:"required"`
	Domain       string `yaml:"domain" validate:"required"`
	PlatformType string `yaml:"platform_type"`
	Affiliation  string `yaml:"affiliation" validate:"required"`
	HomeBase     string `yaml:"home_base"`
}

// CatalogYAML is the shape of one catalog/*.yaml file.
type CatalogYAML struct {
	Constellations []ConstellationTemplate `yaml:"constellations"`
	Bases          []BaseTemplate          `yaml:"bases"`
	OrbatUnits     []OrbatUnitTemplate     `yaml:"orbat_units"`
}

// OverwatchYAMLConfig is the shape of the overwatch.yaml root file.
type OverwatchYAMLConfig struct {
	Server     *ServerConfig     `yaml:"server"`
	Database   *DatabaseConfig   `yaml:"database"`
	LLM        *LLMConfig        `yaml:"llm"`
	UDL        *UDLConfig        `yaml:"udl"`
	Simulation *SimulationConfig `yaml:"simulation"`
}

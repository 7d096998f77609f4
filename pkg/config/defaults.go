package config

// DefaultServerConfig returns the built-in HTTP listener defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:       3001,
		CORSOrigin: "*",
	}
}

// DefaultSimulationConfig returns the built-in clock/coverage defaults
// applied to every scenario unless overridden.
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		DefaultCompression:       720,
		TickIntervalMs:           1000,
		PositionUpdateIntervalMs: 2000,
	}
}

// DefaultLLMConfig returns empty model names; the server refuses to start
// with any tier unset, so these are filled in only from YAML or env.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{}
}

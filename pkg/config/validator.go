package config

import "fmt"

// Validator validates configuration comprehensively with clear error
// messages, one section at a time.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates every section, failing fast on the first error.
func (v *Validator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return err
	}
	if err := v.validateDatabase(); err != nil {
		return err
	}
	if err := v.validateLLM(); err != nil {
		return err
	}
	if err := v.validateSimulation(); err != nil {
		return err
	}
	if err := v.validateCatalog(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		return NewValidationError("server", "port", fmt.Errorf("must be between 1 and 65535, got %d", s.Port))
	}
	return nil
}

func (v *Validator) validateDatabase() error {
	if v.cfg.Database.URL == "" {
		return NewValidationError("database", "url", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l.Flagship == "" {
		return NewValidationError("llm", "flagship", ErrMissingRequiredField)
	}
	if l.MidRange == "" {
		return NewValidationError("llm", "mid_range", ErrMissingRequiredField)
	}
	if l.Fast == "" {
		return NewValidationError("llm", "fast", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateSimulation() error {
	s := v.cfg.Simulation
	if s.DefaultCompression < 1 {
		return NewValidationError("simulation", "default_compression", fmt.Errorf("must be at least 1, got %d", s.DefaultCompression))
	}
	if s.TickIntervalMs < 1 {
		return NewValidationError("simulation", "tick_interval_ms", fmt.Errorf("must be at least 1, got %d", s.TickIntervalMs))
	}
	if s.PositionUpdateIntervalMs < 1 {
		return NewValidationError("simulation", "position_update_interval_ms", fmt.Errorf("must be at least 1, got %d", s.PositionUpdateIntervalMs))
	}
	return nil
}

func (v *Validator) validateCatalog() error {
	for _, tmpl := range v.cfg.Catalog.All() {
		if tmpl.Name == "" {
			return NewValidationError("catalog", "name", ErrMissingRequiredField)
		}
		if tmpl.Affiliation == "" {
			return NewValidationError("catalog", tmpl.Name+".affiliation", ErrMissingRequiredField)
		}
	}
	return nil
}

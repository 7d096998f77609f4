package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_FormatsWithAndWithoutField(t *testing.T) {
	withField := NewValidationError("llm", "flagship", ErrMissingRequiredField)
	assert.Contains(t, withField.Error(), "llm")
	assert.Contains(t, withField.Error(), "flagship")

	noField := NewValidationError("server", "", errors.New("boom"))
	assert.NotContains(t, noField.Error(), `field ""`)
}

func TestLoadError_UnwrapsToUnderlyingError(t *testing.T) {
	underlying := errors.New("permission denied")
	loadErr := NewLoadError("overwatch.yaml", underlying)

	assert.ErrorIs(t, loadErr, underlying)
	assert.Contains(t, loadErr.Error(), "overwatch.yaml")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv_SubstitutesBracedAndBareVars(t *testing.T) {
	t.Setenv("OVERWATCH_TEST_HOST", "db.internal")
	t.Setenv("OVERWATCH_TEST_PORT", "5432")

	out := ExpandEnv([]byte("url: postgres://${OVERWATCH_TEST_HOST}:$OVERWATCH_TEST_PORT/overwatch"))

	assert.Equal(t, "url: postgres://db.internal:5432/overwatch", string(out))
}

func TestExpandEnv_MissingVarExpandsEmpty(t *testing.T) {
	out := ExpandEnv([]byte("key: ${OVERWATCH_DEFINITELY_UNSET_VAR}"))
	assert.Equal(t, "key: ", string(out))
}

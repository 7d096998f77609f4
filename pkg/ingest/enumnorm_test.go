package ingest

import (
	"testing"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSupportType_FuzzyMatchesAirborneRefuelling(t *testing.T) {
	got := NormalizeSupportType("airborne refuelling")
	assert.Equal(t, string(models.SupportTanker), got.Value)
	assert.True(t, got.ReviewFlag)
}

func TestNormalizeWindowType_FuzzyMatchesOrbitTime(t *testing.T) {
	got := NormalizeWindowType("orbit time")
	assert.Equal(t, string(models.WindowONSTA), got.Value)
	assert.True(t, got.ReviewFlag)
}

func TestNormalizeCapabilityType_UnknownDefaultsToGPSWithReviewFlag(t *testing.T) {
	got := NormalizeCapabilityType("FOO")
	assert.Equal(t, string(models.CapGPS), got.Value)
	assert.True(t, got.ReviewFlag)
}

func TestNormalizeCapabilityType_ExactMatchNeverFlagsReview(t *testing.T) {
	got := NormalizeCapabilityType("isr_space")
	assert.Equal(t, string(models.CapISRSpace), got.Value)
	assert.False(t, got.ReviewFlag)
}

func TestNormalizeWaypointType_ExactMatchIsCaseInsensitive(t *testing.T) {
	got := NormalizeWaypointType("tgt")
	assert.Equal(t, string(models.WaypointTGT), got.Value)
	assert.False(t, got.ReviewFlag)
}

func TestNormalizeWaypointType_UnknownDefaultsToCP(t *testing.T) {
	got := NormalizeWaypointType("banana")
	assert.Equal(t, string(models.WaypointCP), got.Value)
	assert.True(t, got.ReviewFlag)
}

func TestNormalizeSupportType_ExactMatchTakesPriorityOverFuzzy(t *testing.T) {
	got := NormalizeSupportType("SEAD")
	assert.Equal(t, string(models.SupportSEAD), got.Value)
	assert.False(t, got.ReviewFlag)
}

func TestNormalizeEnums_NeverErrorsOnArbitraryInput(t *testing.T) {
	inputs := []string{"", "   ", "???", "\t\n", "a very long unrecognized string of words"}
	for _, in := range inputs {
		assert.NotEmpty(t, NormalizeWaypointType(in).Value)
		assert.NotEmpty(t, NormalizeWindowType(in).Value)
		assert.NotEmpty(t, NormalizeSupportType(in).Value)
		assert.NotEmpty(t, NormalizeCapabilityType(in).Value)
	}
}

package retrylog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	responses []GenerateResponse
	errs      []error
	calls     []GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return GenerateResponse{}, f.errs[i]
	}
	return f.responses[i], nil
}

type fakeLogger struct {
	entries []models.GenerationLog
}

func (f *fakeLogger) LogAttempt(ctx context.Context, entry models.GenerationLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeBroadcaster struct {
	results []ArtifactResult
}

func (f *fakeBroadcaster) BroadcastArtifactResult(ctx context.Context, scenarioID string, payload ArtifactResult) error {
	f.results = append(f.results, payload)
	return nil
}

func content(n int) string { return strings.Repeat("x", n) }

func noSleep(d time.Duration) {}

func TestCall_BestOfNRetainsLongestOnExhaustion(t *testing.T) {
	gen := &fakeGenerator{responses: []GenerateResponse{
		{Content: content(30)},
		{Content: content(50)},
		{Content: content(20)},
	}}
	logger := &fakeLogger{}
	bcast := &fakeBroadcaster{}
	r := New(gen, logger, bcast, nil)
	r.sleep = noSleep

	result := r.Call(context.Background(), Request{
		Model:           "test-model",
		MinOutputLength: 100,
		MaxRetries:      2,
		MaxTokens:       8000,
		ScenarioID:      "scn-1",
		Step:            "ato",
		Artifact:        "ato-day-1",
	})

	assert.Equal(t, 50, len(result.Content))
	require.Len(t, bcast.results, 1)
	assert.Equal(t, models.AttemptPlaceholder, bcast.results[0].Status)
	assert.Equal(t, 50, bcast.results[0].OutputLength)
}

func TestCall_TokenEscalationAcrossAttempts(t *testing.T) {
	gen := &fakeGenerator{responses: []GenerateResponse{
		{Content: content(10)},
		{Content: content(10)},
		{Content: content(10)},
	}}
	r := New(gen, nil, nil, nil)
	r.sleep = noSleep

	r.Call(context.Background(), Request{
		MaxTokens:       8000,
		MaxRetries:      2,
		MinOutputLength: 1000,
	})

	require.Len(t, gen.calls, 3)
	assert.Equal(t, 8000, gen.calls[0].TokenBudget)
	assert.Equal(t, 12000, gen.calls[1].TokenBudget)
	assert.Equal(t, 16000, gen.calls[2].TokenBudget)
}

func TestCall_SuccessReturnsImmediatelyWithoutExhaustingRetries(t *testing.T) {
	gen := &fakeGenerator{responses: []GenerateResponse{
		{Content: content(200), PromptTokens: 10, OutputTokens: 20},
	}}
	bcast := &fakeBroadcaster{}
	r := New(gen, nil, bcast, nil)
	r.sleep = noSleep

	result := r.Call(context.Background(), Request{MinOutputLength: 100, MaxRetries: 2})

	assert.Equal(t, 0, result.Retries)
	assert.Len(t, gen.calls, 1)
	require.Len(t, bcast.results, 1)
	assert.Equal(t, models.AttemptSuccess, bcast.results[0].Status)
}

func TestCall_ExceptionLogsRetryThenSucceedsOnNextAttempt(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{errors.New("upstream unavailable"), nil},
		responses: []GenerateResponse{{}, {Content: content(500)}},
	}
	logger := &fakeLogger{}
	r := New(gen, logger, nil, nil)
	r.sleep = noSleep

	result := r.Call(context.Background(), Request{MinOutputLength: 100, MaxRetries: 2})

	assert.Equal(t, content(500), result.Content)
	require.NotEmpty(t, logger.entries)
	assert.Equal(t, models.AttemptRetry, logger.entries[0].Status)
}

func TestCall_ExhaustionWithNoContentAtAllIsError(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		errors.New("e1"), errors.New("e2"), errors.New("e3"),
	}, responses: []GenerateResponse{{}, {}, {}}}
	bcast := &fakeBroadcaster{}
	r := New(gen, nil, bcast, nil)
	r.sleep = noSleep

	result := r.Call(context.Background(), Request{MinOutputLength: 100, MaxRetries: 2})

	assert.Empty(t, result.Content)
	require.Len(t, bcast.results, 1)
	assert.Equal(t, models.AttemptError, bcast.results[0].Status)
}

func TestCall_RetryLogsAreNeverBroadcast(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{errors.New("transient"), nil},
		responses: []GenerateResponse{{}, {Content: content(500)}},
	}
	bcast := &fakeBroadcaster{}
	r := New(gen, nil, bcast, nil)
	r.sleep = noSleep

	r.Call(context.Background(), Request{MinOutputLength: 100, MaxRetries: 2})

	require.Len(t, bcast.results, 1)
	assert.NotEqual(t, models.AttemptRetry, bcast.results[0].Status)
}

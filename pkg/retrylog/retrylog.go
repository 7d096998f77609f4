// Package retrylog implements the LLM Retry/Logger (§4.4): bounded retry
// with per-attempt token escalation, best-of-N content retention, a
// success/placeholder/error/retry status taxonomy, best-effort attempt
// logging, and terminal-state broadcast.
package retrylog

import (
	"context"
	"log/slog"
	"time"

	"github.com/neg-0/overwatch/pkg/metrics"
	"github.com/neg-0/overwatch/pkg/models"
)

// Generator is the single-call LLM contract this package retries against.
// Implementations (pkg/llm) own transport, auth, and response-schema
// enforcement; retrylog only knows about tokens in, content out.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// GenerateRequest is one attempt's request, with TokenBudget already
// escalated by the caller.
type GenerateRequest struct {
	Model           string
	Messages        []Message
	TokenBudget     int
	ReasoningEffort string // optional; empty means provider default
}

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// GenerateResponse is one attempt's result.
type GenerateResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Logger persists one GenerationLog row. Best-effort: callers must not let a
// logging failure propagate as a call failure.
type Logger interface {
	LogAttempt(ctx context.Context, entry models.GenerationLog) error
}

// Broadcaster emits the artifact-result event on terminal status.
type Broadcaster interface {
	BroadcastArtifactResult(ctx context.Context, scenarioID string, payload ArtifactResult) error
}

// ArtifactResult is the §6 `artifact-result` event payload.
type ArtifactResult struct {
	Step         string                  `json:"step"`
	Artifact     string                  `json:"artifact"`
	Status       models.LLMAttemptStatus `json:"status"`
	OutputLength int                     `json:"outputLength"`
	Message      string                  `json:"message,omitempty"`
}

// Request groups the parameters of callLLMWithRetry.
type Request struct {
	Model           string
	Messages        []Message
	MaxTokens       int
	ReasoningEffort string
	MinOutputLength int
	MaxRetries      int // default 2 when zero
	ScenarioID      string
	Step            string
	Artifact        string
}

// Result is the returned value of callLLMWithRetry.
type Result struct {
	Content      string
	PromptTokens int
	OutputTokens int
	DurationMs   int64
	Retries      int
}

// Retrier bounds LLM calls with token-budget escalation and best-of-N content
// retention.
type Retrier struct {
	gen     Generator
	logger  Logger
	bcast   Broadcaster
	log     *slog.Logger
	sleep   func(d time.Duration) // overridable for tests
	backoff func(attempt int) time.Duration
}

// New creates a Retrier. logger and bcast may be nil (both are best-effort
// and silently skipped if absent).
func New(gen Generator, logger Logger, bcast Broadcaster, log *slog.Logger) *Retrier {
	if log == nil {
		log = slog.Default()
	}
	return &Retrier{
		gen:    gen,
		logger: logger,
		bcast:  bcast,
		log:    log,
		sleep:  time.Sleep,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1000*(1<<attempt)) * time.Millisecond
		},
	}
}

type best struct {
	content      string
	promptTokens int
	outputTokens int
}

// Call implements §4.4's callLLMWithRetry.
func (r *Retrier) Call(ctx context.Context, req Request) Result {
	maxRetries := req.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	start := time.Now()
	var retained best
	var lastErr error

	for k := 0; k <= maxRetries; k++ {
		tokenBudget := req.MaxTokens + 4000*k

		resp, err := r.gen.Generate(ctx, GenerateRequest{
			Model:           req.Model,
			Messages:        req.Messages,
			TokenBudget:     tokenBudget,
			ReasoningEffort: req.ReasoningEffort,
		})
		if err != nil {
			lastErr = err
			r.logBestEffort(ctx, req, k, models.AttemptRetry, 0, time.Since(start), err.Error())
			if k < maxRetries {
				r.sleep(r.backoff(k))
				continue
			}
			break
		}

		if len(resp.Content) > len(retained.content) {
			retained = best{content: resp.Content, promptTokens: resp.PromptTokens, outputTokens: resp.OutputTokens}
		}

		if len(resp.Content) >= req.MinOutputLength {
			duration := time.Since(start)
			r.logBestEffort(ctx, req, k, models.AttemptSuccess, len(resp.Content), duration, "")
			result := Result{Content: resp.Content, PromptTokens: resp.PromptTokens, OutputTokens: resp.OutputTokens, DurationMs: duration.Milliseconds(), Retries: k}
			r.broadcastBestEffort(ctx, req, models.AttemptSuccess, len(resp.Content), "")
			return result
		}

		lastErr = nil
		if k < maxRetries {
			r.sleep(r.backoff(k))
		}
	}

	duration := time.Since(start)
	status := models.AttemptError
	message := ""
	if lastErr != nil {
		message = lastErr.Error()
	}
	if retained.content != "" {
		status = models.AttemptPlaceholder
	}
	r.logBestEffort(ctx, req, maxRetries, status, len(retained.content), duration, message)
	r.broadcastBestEffort(ctx, req, status, len(retained.content), message)

	return Result{
		Content:      retained.content,
		PromptTokens: retained.promptTokens,
		OutputTokens: retained.outputTokens,
		DurationMs:   duration.Milliseconds(),
		Retries:      maxRetries,
	}
}

func (r *Retrier) logBestEffort(ctx context.Context, req Request, attempt int, status models.LLMAttemptStatus, outputLength int, duration time.Duration, message string) {
	metrics.LLMAttempt(req.Artifact, string(status), duration.Seconds())

	if r.logger == nil {
		return
	}
	entry := models.GenerationLog{
		ScenarioID:   req.ScenarioID,
		Step:         req.Step,
		Artifact:     req.Artifact,
		Attempt:      attempt,
		Status:       status,
		OutputLength: outputLength,
		DurationMs:   duration.Milliseconds(),
		Message:      message,
	}
	if err := r.logger.LogAttempt(ctx, entry); err != nil {
		r.log.Warn("generation log write failed", "scenario_id", req.ScenarioID, "step", req.Step, "artifact", req.Artifact, "err", err)
	}
}

// broadcastBestEffort fires artifact-result only for terminal statuses
// (success, placeholder, error) — retry attempts are never broadcast.
func (r *Retrier) broadcastBestEffort(ctx context.Context, req Request, status models.LLMAttemptStatus, outputLength int, message string) {
	if r.bcast == nil {
		return
	}
	payload := ArtifactResult{Step: req.Step, Artifact: req.Artifact, Status: status, OutputLength: outputLength, Message: message}
	if err := r.bcast.BroadcastArtifactResult(ctx, req.ScenarioID, payload); err != nil {
		r.log.Warn("artifact-result broadcast failed", "scenario_id", req.ScenarioID, "step", req.Step, "err", err)
	}
}

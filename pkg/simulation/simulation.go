// Package simulation drives the real-time, time-compressed wargame clock:
// a tick loop that advances simTime and the mission state machine, a
// position loop that interpolates mission/satellite positions and
// recomputes space coverage, and the day-boundary hook into the Game
// Master. A Controller drives at most one simulation at a time; a second
// Start call while one is active fails fast.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/neg-0/overwatch/pkg/coverage"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/propagator"
)

// ErrAlreadyRunning is returned by Start when a simulation is already
// RUNNING for this controller.
var ErrAlreadyRunning = errors.New("simulation: already running")

// Store is the persistence surface the engine needs, narrowed to
// models.* and stdlib types so this package never imports pkg/store.
type Store interface {
	GetScenario(ctx context.Context, id string) (*models.Scenario, bool, error)
	GetSimulationState(ctx context.Context, scenarioID string) (*models.SimulationState, bool, error)
	UpsertSimulationState(ctx context.Context, s *models.SimulationState) error

	ListActiveMissions(ctx context.Context, scenarioID string) ([]models.Mission, error)
	ListAllMissionsByScenario(ctx context.Context, scenarioID string) ([]models.Mission, error)
	RandomActiveMission(ctx context.Context, scenarioID string) (*models.Mission, bool, error)
	UpdateMissionStatus(ctx context.Context, missionID string, status models.MissionStatus) error

	ListSpaceAssetsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceAsset, error)
	RandomOperationalAsset(ctx context.Context, scenarioID string) (*models.SpaceAsset, bool, error)
	UpdateAssetStatus(ctx context.Context, assetID string, status models.AssetStatus) error

	InjectsToFire(ctx context.Context, scenarioID string, atoDay, hour int) ([]models.ScenarioInject, error)
	MarkInjectFired(ctx context.Context, injectID string, firedAt time.Time) error
	ResetInjectsFromDay(ctx context.Context, scenarioID string, atoDay int) error

	CreateCoverageWindowDedup(ctx context.Context, w *models.SpaceCoverageWindow) error
	ListCoverageWindowsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceCoverageWindow, error)
	ListSpaceNeedsActiveAt(ctx context.Context, scenarioID string, instant time.Time) ([]models.SpaceNeed, error)
	MarkSpaceNeedsFulfilled(ctx context.Context, needIDs []string) error

	ListMissionsByAtoDay(ctx context.Context, scenarioID string, atoDay int) ([]models.MissionRecord, error)
	CreateTaskingOrder(ctx context.Context, order *models.TaskingOrder) error

	CreateSimEvent(ctx context.Context, e *models.SimEvent) error
	EventsUpTo(ctx context.Context, scenarioID string, asOf time.Time) ([]models.SimEvent, error)
}

// Broadcaster fans out §6 WebSocket events; failures are logged and never
// block the loop.
type Broadcaster interface {
	Emit(ctx context.Context, scenarioID, event string, payload map[string]any) error
}

// GameMaster is the day-boundary hook, satisfied structurally by
// *pkg/gamemaster.GameMaster without an import cycle.
type GameMaster interface {
	GenerateATO(ctx context.Context, scenarioID string, atoDay int) error
	AssessBDA(ctx context.Context, scenarioID string, atoDay int) error
}

// Config holds the engine's tunable timers.
type Config struct {
	TickIntervalMs           int
	PositionUpdateIntervalMs int
}

func (c Config) tickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c Config) positionInterval() time.Duration {
	if c.PositionUpdateIntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PositionUpdateIntervalMs) * time.Millisecond
}

// run is one active simulation's mutable state, owned exclusively by its
// own tick/position goroutines plus the Controller's public entry points.
type run struct {
	scenarioID string
	cancel     context.CancelFunc
	done       chan struct{}

	positionTick int
	prevGaps     map[string]coverage.Gap
}

// Controller owns at most one active run at a time. It is the only
// mutable shared resource in this package; every loop body re-checks it
// under mu before proceeding.
type Controller struct {
	store Store
	bcast Broadcaster
	gm    GameMaster
	sgp4  propagator.SGP4
	prop  *propagator.Propagator
	cfg   Config
	log   *slog.Logger

	mu      sync.Mutex
	current *run
}

// New builds a Controller. sgp4 may be nil, in which case the propagator
// falls back to its analytic approximation for assets without ephemeris.
func New(store Store, bcast Broadcaster, gm GameMaster, sgp4 propagator.SGP4, cfg Config, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		store: store, bcast: bcast, gm: gm, sgp4: sgp4,
		prop: propagator.New(sgp4), cfg: cfg, log: log,
	}
}

func (c *Controller) emit(ctx context.Context, scenarioID, event string, payload map[string]any) {
	if c.bcast == nil {
		return
	}
	if err := c.bcast.Emit(ctx, scenarioID, event, payload); err != nil {
		c.log.Warn("simulation: broadcast failed", "event", event, "scenario", scenarioID, "error", err)
	}
}

// Start begins (or resumes a STOPPED) simulation for scenarioID. It fails
// fast if another simulation is already RUNNING on this controller.
func (c *Controller) Start(ctx context.Context, scenarioID string, compressionRatio float64) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.mu.Unlock()

	scenario, found, err := c.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: start: %w", err)
	}
	if !found {
		return fmt.Errorf("simulation: start: scenario %s not found", scenarioID)
	}

	state, found, err := c.store.GetSimulationState(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: start: load state: %w", err)
	}
	now := time.Now().UTC()
	if !found {
		if compressionRatio <= 0 {
			compressionRatio = 720
		}
		state = &models.SimulationState{
			ScenarioID:       scenarioID,
			SimTime:          scenario.StartDate,
			RealStartTime:    now,
			CompressionRatio: compressionRatio,
			CurrentAtoDay:    1,
			LastAtoDayGen:    0,
		}
	}
	state.Status = models.SimRunning
	state.RealStartTime = now
	if compressionRatio > 0 {
		state.CompressionRatio = compressionRatio
	}
	if err := c.store.UpsertSimulationState(ctx, state); err != nil {
		return fmt.Errorf("simulation: start: persist state: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{scenarioID: scenarioID, cancel: cancel, done: make(chan struct{}), prevGaps: map[string]coverage.Gap{}}

	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		cancel()
		return ErrAlreadyRunning
	}
	c.current = r
	c.mu.Unlock()

	go c.loop(runCtx, r)
	return nil
}

// Pause suspends the clock without tearing down the run's goroutines.
func (c *Controller) Pause(ctx context.Context, scenarioID string) error {
	return c.setStatus(ctx, scenarioID, models.SimPaused)
}

// Resume restarts the clock from its paused simTime.
func (c *Controller) Resume(ctx context.Context, scenarioID string) error {
	return c.setStatus(ctx, scenarioID, models.SimRunning)
}

func (c *Controller) setStatus(ctx context.Context, scenarioID string, status models.SimStatus) error {
	state, found, err := c.store.GetSimulationState(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: set status: %w", err)
	}
	if !found {
		return fmt.Errorf("simulation: set status: no state for %s", scenarioID)
	}
	state.Status = status
	return c.store.UpsertSimulationState(ctx, state)
}

// SetSpeed updates the compression ratio applied to subsequent ticks.
func (c *Controller) SetSpeed(ctx context.Context, scenarioID string, compressionRatio float64) error {
	if compressionRatio <= 0 {
		return fmt.Errorf("simulation: set speed: ratio must be positive")
	}
	state, found, err := c.store.GetSimulationState(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: set speed: %w", err)
	}
	if !found {
		return fmt.Errorf("simulation: set speed: no state for %s", scenarioID)
	}
	state.CompressionRatio = compressionRatio
	return c.store.UpsertSimulationState(ctx, state)
}

// Stop clears the controller's timers, nulls the run handle, and persists
// a STOPPED snapshot. It is idempotent: stopping a scenario with nothing
// running and no saved state, or one already STOPPED, is a no-op.
func (c *Controller) Stop(ctx context.Context, scenarioID string) error {
	c.mu.Lock()
	r := c.current
	if r == nil || r.scenarioID != scenarioID {
		c.mu.Unlock()
		state, found, err := c.store.GetSimulationState(ctx, scenarioID)
		if err != nil {
			return fmt.Errorf("simulation: stop: %w", err)
		}
		if !found || state.Status == models.SimStopped {
			return nil
		}
		return c.setStatus(ctx, scenarioID, models.SimStopped)
	}
	c.current = nil
	c.mu.Unlock()

	r.cancel()
	<-r.done
	return c.setStatus(ctx, scenarioID, models.SimStopped)
}

// activeRun returns the controller's run iff it matches scenarioID — the
// re-check every suspension point in the loop bodies performs before
// mutating further. It does not consult the persisted state's status.
func (c *Controller) activeRun(scenarioID string) *run {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.scenarioID != scenarioID {
		return nil
	}
	return c.current
}

// isNotFound recognizes the §5 cancellation sentinel: a scenario or its
// children deleted mid-cycle surfaces as a "not found" or FK-violation
// error from the store, which aborts the loop iteration cleanly instead
// of crashing it.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "foreign key")
}

// atoDayFor computes the 1-indexed ATO day simTime falls in relative to
// the scenario's start date.
func atoDayFor(scenario *models.Scenario, simTime time.Time) int {
	days := int(simTime.Sub(scenario.StartDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days + 1
}

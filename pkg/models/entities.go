package models

import "time"

// Scenario is the root aggregate. All other entities are scenario-scoped
// and cascade-delete with it.
type Scenario struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Theater            string           `json:"theater"`
	Adversary          string           `json:"adversary"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	GenerationStatus   GenerationStatus `json:"generation_status"`
	GenerationStep     string           `json:"generation_step"`
	GenerationProgress int              `json:"generation_progress"` // 0-100
	GenerationError    string           `json:"generation_error,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// SimulationState is the single mutable per-scenario clock/run record.
type SimulationState struct {
	ScenarioID        string    `json:"scenario_id"`
	Status            SimStatus `json:"status"`
	SimTime           time.Time `json:"sim_time"`
	RealStartTime     time.Time `json:"real_start_time"`
	CompressionRatio  float64   `json:"compression_ratio"`
	CurrentAtoDay     int       `json:"current_ato_day"`
	LastAtoDayGen     int       `json:"last_ato_day_generated"`
	IsGenerating      bool      `json:"is_generating"`
}

// StrategyDocument is one node of the strategy cascade (tier 1..5).
// ParentDocID, when set, must point at a document one tier lower.
type StrategyDocument struct {
	ID             string       `json:"id"`
	ScenarioID     string       `json:"scenario_id"`
	Tier           StrategyTier `json:"tier"`
	DocType        StrategyDocType `json:"doc_type"`
	ParentDocID    *string      `json:"parent_doc_id,omitempty"`
	AuthorityLevel string       `json:"authority_level"`
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	EffectiveDate  time.Time    `json:"effective_date"`
	CreatedAt      time.Time    `json:"created_at"`

	Priorities []StrategyPriority `json:"priorities,omitempty"`
}

// StrategyPriority is a ranked objective owned by a StrategyDocument.
type StrategyPriority struct {
	ID                 string `json:"id"`
	StrategyDocID       string `json:"strategy_doc_id"`
	Rank                int    `json:"rank"`
	Objective           string `json:"objective"`
	Description         string `json:"description"`
}

// PlanningDocument sits one level below the strategy cascade.
type PlanningDocument struct {
	ID            string          `json:"id"`
	ScenarioID    string          `json:"scenario_id"`
	DocType       PlanningDocType `json:"doc_type"`
	StrategyDocID *string         `json:"strategy_doc_id,omitempty"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	CreatedAt     time.Time       `json:"created_at"`

	Priorities []PriorityEntry `json:"priorities,omitempty"`
}

// PriorityEntry is a ranked item within a PlanningDocument, optionally traced
// back to a StrategyPriority.
type PriorityEntry struct {
	ID                 string  `json:"id"`
	PlanningDocID      string  `json:"planning_doc_id"`
	Rank               int     `json:"rank"`
	Effect             string  `json:"effect"`
	Description        string  `json:"description"`
	StrategyPriorityID *string `json:"strategy_priority_id,omitempty"`
	OverlapRatio       float64 `json:"overlap_ratio,omitempty"`
}

// TaskingOrder is a one-day operational order owning MissionPackages.
type TaskingOrder struct {
	ID               string     `json:"id"`
	ScenarioID       string     `json:"scenario_id"`
	OrderType        OrderType  `json:"order_type"`
	AtoDayNumber     int        `json:"ato_day_number"`
	EffectiveStart   time.Time  `json:"effective_start"`
	EffectiveEnd     time.Time  `json:"effective_end"`
	PlanningDocID    *string    `json:"planning_doc_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	Packages []MissionPackage `json:"packages,omitempty"`
}

// MissionPackage groups Missions sharing a priority and desired effect.
type MissionPackage struct {
	ID             string `json:"id"`
	TaskingOrderID string `json:"tasking_order_id"`
	PackageID      string `json:"package_id"`
	PriorityRank   int    `json:"priority_rank"`
	MissionType    string `json:"mission_type"`
	EffectDesired  string `json:"effect_desired"`

	Missions []Mission `json:"missions,omitempty"`
}

// MissionRecord pairs a fully hydrated Mission with its owning package's
// priority rank, the one piece of tasking-order context the allocator needs
// but that doesn't live on Mission itself.
type MissionRecord struct {
	Mission             Mission
	TaskingOrderID      string
	PackagePriorityRank int
}

// Mission is a single tasked sortie/unit of effort.
type Mission struct {
	ID               string        `json:"id"`
	MissionPackageID string        `json:"mission_package_id"`
	MissionID        string        `json:"mission_id"` // business identifier, not the row PK
	Callsign         string        `json:"callsign"`
	Domain           Domain        `json:"domain"`
	PlatformType     string        `json:"platform_type"`
	PlatformCount    int           `json:"platform_count"`
	MissionType      string        `json:"mission_type"`
	Status           MissionStatus `json:"status"`
	Affiliation      string        `json:"affiliation"`

	Waypoints           []Waypoint          `json:"waypoints,omitempty"`
	TimeWindows         []TimeWindow        `json:"time_windows,omitempty"`
	Targets             []MissionTarget     `json:"targets,omitempty"`
	SupportRequirements []SupportRequirement `json:"support_requirements,omitempty"`
	SpaceNeeds          []SpaceNeed         `json:"space_needs,omitempty"`
}

// TOTWindow returns the mission's time-on-target window, if any.
func (m *Mission) TOTWindow() *TimeWindow {
	for i := range m.TimeWindows {
		if m.TimeWindows[i].WindowType == WindowTOT {
			return &m.TimeWindows[i]
		}
	}
	return nil
}

// Waypoint is one point in a Mission's ordered route. Sequence is dense,
// unique, and 1-indexed within a mission.
type Waypoint struct {
	ID           string       `json:"id"`
	MissionID    string       `json:"mission_id"`
	Sequence     int          `json:"sequence"`
	WaypointType WaypointType `json:"waypoint_type"`
	Lat          float64      `json:"lat"`
	Lon          float64      `json:"lon"`
	AltitudeFt   *float64     `json:"altitude_ft,omitempty"`
	SpeedKts     *float64     `json:"speed_kts,omitempty"`
}

// TimeWindow is a scheduling window owned by a Mission; at most one is TOT.
type TimeWindow struct {
	ID         string     `json:"id"`
	MissionID  string     `json:"mission_id"`
	WindowType WindowType `json:"window_type"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
}

// MissionTarget is a target associated with a Mission.
type MissionTarget struct {
	ID         string  `json:"id"`
	MissionID  string  `json:"mission_id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	TargetType string  `json:"target_type"`
}

// SupportRequirement is a non-space support need of a Mission.
type SupportRequirement struct {
	ID          string      `json:"id"`
	MissionID   string      `json:"mission_id"`
	SupportType SupportType `json:"support_type"`
	Description string      `json:"description"`
}

// SpaceNeed is a Mission's requirement for a space-based capability.
type SpaceNeed struct {
	ID                  string         `json:"id"`
	MissionID           string         `json:"mission_id"`
	CapabilityType      CapabilityType `json:"capability_type"`
	PriorityRank        int            `json:"priority_rank"`
	StrategyRank        int            `json:"strategy_rank,omitempty"` // traced strategy priority rank; 0 if untraced
	StartTime           time.Time      `json:"start_time"`
	EndTime             time.Time      `json:"end_time"`
	CoverageLat         *float64       `json:"coverage_lat,omitempty"`
	CoverageLon         *float64       `json:"coverage_lon,omitempty"`
	FallbackCapability  *CapabilityType `json:"fallback_capability,omitempty"`
	MissionCriticality  Criticality    `json:"mission_criticality"`
	Fulfilled           bool           `json:"fulfilled"`
}

// HasCoveragePoint reports whether this need names a ground point to cover.
func (n *SpaceNeed) HasCoveragePoint() bool {
	return n.CoverageLat != nil && n.CoverageLon != nil
}

// SpaceAsset is a satellite tracked by the simulation, friendly or hostile.
type SpaceAsset struct {
	ID            string           `json:"id"`
	ScenarioID    string           `json:"scenario_id"`
	Name          string           `json:"name"`
	Constellation string           `json:"constellation"`
	Affiliation   AssetAffiliation `json:"affiliation"`
	Capabilities  []CapabilityType `json:"capabilities"`
	SatNo         int              `json:"sat_no,omitempty"`
	TLELine1      string           `json:"tle_line1,omitempty"`
	TLELine2      string           `json:"tle_line2,omitempty"`
	InclinationDeg float64         `json:"inclination_deg,omitempty"`
	PeriodMin      float64         `json:"period_min,omitempty"`
	Eccentricity   float64         `json:"eccentricity,omitempty"`
	BaseLon        float64         `json:"base_lon,omitempty"`
	Status         AssetStatus     `json:"status"`
}

// HasTLE reports whether asset has a usable two-line element set.
func (a *SpaceAsset) HasTLE() bool {
	return a.TLELine1 != "" && a.TLELine2 != ""
}

// HasCapability reports whether the asset lists the given capability.
func (a *SpaceAsset) HasCapability(c CapabilityType) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// SpaceCoverageWindow is a materialized AOS/LOS interval, kept for audit and
// gap/fulfillment computation.
type SpaceCoverageWindow struct {
	ID             string         `json:"id"`
	ScenarioID     string         `json:"scenario_id"`
	AssetID        string         `json:"asset_id"`
	AssetName      string         `json:"asset_name"`
	Capability     CapabilityType `json:"capability"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	MaxElevation   float64        `json:"max_elevation"`
	CenterLat      float64        `json:"center_lat"`
	CenterLon      float64        `json:"center_lon"`
	SwathWidthKm   float64        `json:"swath_width_km"`
}

// Overlap returns the overlap duration in seconds between the window and
// [start, end), clamped to zero if there is none.
func (w *SpaceCoverageWindow) Overlap(start, end time.Time) time.Duration {
	lo := w.Start
	if start.After(lo) {
		lo = start
	}
	hi := w.End
	if end.Before(hi) {
		hi = end
	}
	if hi.Before(lo) || hi.Equal(lo) {
		return 0
	}
	return hi.Sub(lo)
}

// ScenarioInject is a scheduled MSEL event.
type ScenarioInject struct {
	ID           string     `json:"id"`
	ScenarioID   string     `json:"scenario_id"`
	PlanningDocID string    `json:"planning_doc_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Impact       string     `json:"impact"`
	TriggerDay   int        `json:"trigger_day"`
	TriggerHour  int        `json:"trigger_hour"` // UTC hour 0-23
	InjectType   InjectType `json:"inject_type"`
	Fired        bool       `json:"fired"`
	FiredAt      *time.Time `json:"fired_at,omitempty"`
}

// SimEvent is a time-stamped fact recorded by the simulation engine.
type SimEvent struct {
	ID         string       `json:"id"`
	ScenarioID string       `json:"scenario_id"`
	Time       time.Time    `json:"time"`
	EventType  SimEventType `json:"event_type"`
	AssetID    *string      `json:"asset_id,omitempty"`
	MissionID  *string      `json:"mission_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// DecisionOption is one of the four fixed choices offered on a
// DECISION_REQUIRED SimEvent.
type DecisionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// GenerationLog records one LLM attempt made during scenario generation or
// game-master operation (append-only audit trail).
type GenerationLog struct {
	ID          string           `json:"id"`
	ScenarioID  string           `json:"scenario_id"`
	Step        string           `json:"step"`
	Artifact    string           `json:"artifact"`
	Attempt     int              `json:"attempt"`
	Status      LLMAttemptStatus `json:"status"`
	PromptTokens int             `json:"prompt_tokens"`
	OutputTokens int             `json:"output_tokens"`
	OutputLength int             `json:"output_length"`
	DurationMs   int64           `json:"duration_ms"`
	Message      string          `json:"message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IngestLog records one run of the document ingest pipeline.
type IngestLog struct {
	ID              string                `json:"id"`
	ScenarioID      string                `json:"scenario_id"`
	InputHash       string                `json:"input_hash"`
	HierarchyLevel  IngestHierarchyLevel  `json:"hierarchy_level"`
	DocumentType    string                `json:"document_type"`
	SourceFormat    string                `json:"source_format"`
	Confidence      float64               `json:"confidence"`
	ParentLinkID    string                `json:"parent_link_id,omitempty"`
	EntitiesCreated int                   `json:"entities_created"`
	ReviewFlagCount int                   `json:"review_flag_count"`
	ParseTimeMs     int64                 `json:"parse_time_ms"`
	Success         bool                  `json:"success"`
	Error           string                `json:"error,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// Package allocator implements the Space Allocator (§4.3): contention
// grouping among space needs sharing a capability and overlapping time
// windows, supply matching against asset coverage windows, and priority +
// criticality tiebreak resolution.
package allocator

import (
	"sort"

	"github.com/neg-0/overwatch/pkg/models"
)

// Allocation is the resolved outcome for a single space need.
type Allocation struct {
	NeedID              string
	MissionID           string
	Status              models.AllocationStatus
	AllocatedCapability models.CapabilityType
	AssetID             string
	AssetName           string
}

// Contention describes one contention group: two or more needs for the same
// capability with overlapping time windows.
type Contention struct {
	Capability models.CapabilityType
	NeedIDs    []string
}

// Summary tallies allocation outcomes and the overall risk level.
type Summary struct {
	TotalNeeds int
	Fulfilled  int
	Degraded   int
	Denied     int
	Contention int
	RiskLevel  models.RiskLevel
}

// Result is the full output of Allocate.
type Result struct {
	Allocations []Allocation
	Contentions []Contention
	Summary     Summary
}

// NeedInput is a space need annotated with its owning package's priority
// rank (strategy rank already lives on models.SpaceNeed itself).
type NeedInput struct {
	Need                models.SpaceNeed
	PackagePriorityRank int
}

// rankedNeed wraps a models.SpaceNeed with the tiebreak field carried in from
// its owning package (strategy rank already lives on SpaceNeed itself).
type rankedNeed struct {
	need        models.SpaceNeed
	packagePrio int
}

// Allocate runs the four-step algorithm in §4.3 over one atoDay's worth of
// space needs, asset capability sets, and asset coverage windows.
func Allocate(needs []NeedInput, assets []*models.SpaceAsset, windows []models.SpaceCoverageWindow) Result {
	ranked := make([]rankedNeed, 0, len(needs))
	for _, n := range needs {
		ranked = append(ranked, rankedNeed{need: n.Need, packagePrio: n.PackagePriorityRank})
	}

	groups := groupByContention(ranked)

	allocations := make([]Allocation, 0, len(ranked))
	var contentions []Contention

	for _, g := range groups {
		if len(g) > 1 {
			ids := make([]string, len(g))
			for i, rn := range g {
				ids[i] = rn.need.ID
			}
			contentions = append(contentions, Contention{Capability: g[0].need.CapabilityType, NeedIDs: ids})
		}

		sort.SliceStable(g, func(i, j int) bool { return lessCompetitor(g[i], g[j]) })

		for i, rn := range g {
			asset, ok := findSupplier(rn.need, assets, windows)
			switch {
			case i == 0 && ok:
				allocations = append(allocations, fulfilled(rn.need, asset))
			case i == 0 && !ok:
				allocations = append(allocations, denied(rn.need))
			default:
				allocations = append(allocations, degradedOrDenied(rn.need, assets, windows))
			}
		}
	}

	return Result{Allocations: allocations, Contentions: contentions, Summary: summarize(ranked, allocations, len(contentions))}
}

// lessCompetitor implements the §4.3 step 4 tiebreak order: ascending
// strategy-traced rank, then criticality (CRITICAL highest), then package
// priority, then need priority.
func lessCompetitor(a, b rankedNeed) bool {
	if a.need.StrategyRank != b.need.StrategyRank {
		return a.need.StrategyRank < b.need.StrategyRank
	}
	if ra, rb := a.need.MissionCriticality.Rank(), b.need.MissionCriticality.Rank(); ra != rb {
		return ra < rb
	}
	if a.packagePrio != b.packagePrio {
		return a.packagePrio < b.packagePrio
	}
	return a.need.PriorityRank < b.need.PriorityRank
}

// groupByContention groups needs by capability, merging any two needs whose
// time windows overlap (transitively — a group's window extends to the
// latest end among its members as new needs are folded in).
func groupByContention(needs []rankedNeed) [][]rankedNeed {
	byCap := map[models.CapabilityType][]rankedNeed{}
	for _, n := range needs {
		byCap[n.need.CapabilityType] = append(byCap[n.need.CapabilityType], n)
	}

	var groups [][]rankedNeed
	for _, capNeeds := range byCap {
		sort.Slice(capNeeds, func(i, j int) bool { return capNeeds[i].need.StartTime.Before(capNeeds[j].need.StartTime) })

		var current []rankedNeed
		var groupEnd int64
		for _, n := range capNeeds {
			if len(current) == 0 || n.need.StartTime.Unix() <= groupEnd {
				current = append(current, n)
				if end := n.need.EndTime.Unix(); end > groupEnd {
					groupEnd = end
				}
				continue
			}
			groups = append(groups, current)
			current = []rankedNeed{n}
			groupEnd = n.need.EndTime.Unix()
		}
		if len(current) > 0 {
			groups = append(groups, current)
		}
	}
	return groups
}

// findSupplier locates the first asset that carries the need's capability
// and has a coverage window for it overlapping the need's time window.
func findSupplier(need models.SpaceNeed, assets []*models.SpaceAsset, windows []models.SpaceCoverageWindow) (*models.SpaceAsset, bool) {
	for _, asset := range assets {
		if !asset.HasCapability(need.CapabilityType) {
			continue
		}
		for _, w := range windows {
			if w.AssetID != asset.ID || w.Capability != need.CapabilityType {
				continue
			}
			if w.Start.Before(need.EndTime) && w.End.After(need.StartTime) {
				return asset, true
			}
		}
	}
	return nil, false
}

func fulfilled(need models.SpaceNeed, asset *models.SpaceAsset) Allocation {
	return Allocation{
		NeedID:              need.ID,
		MissionID:           need.MissionID,
		Status:              models.AllocationFulfilled,
		AllocatedCapability: need.CapabilityType,
		AssetID:             asset.ID,
		AssetName:           asset.Name,
	}
}

func denied(need models.SpaceNeed) Allocation {
	return Allocation{NeedID: need.ID, MissionID: need.MissionID, Status: models.AllocationDenied}
}

// degradedOrDenied handles losing competitors in a contended group: DEGRADED
// against the need's declared fallback capability if an asset supplies it,
// otherwise DENIED.
func degradedOrDenied(need models.SpaceNeed, assets []*models.SpaceAsset, windows []models.SpaceCoverageWindow) Allocation {
	if need.FallbackCapability == nil {
		return denied(need)
	}
	fallbackNeed := need
	fallbackNeed.CapabilityType = *need.FallbackCapability
	asset, ok := findSupplier(fallbackNeed, assets, windows)
	if !ok {
		return denied(need)
	}
	return Allocation{
		NeedID:              need.ID,
		MissionID:           need.MissionID,
		Status:              models.AllocationDegraded,
		AllocatedCapability: *need.FallbackCapability,
		AssetID:             asset.ID,
		AssetName:           asset.Name,
	}
}

// summarize tallies allocation outcomes and derives the §4.3 step 6 risk
// level, which additionally escalates to CRITICAL if any CRITICAL-criticality
// need was denied.
func summarize(ranked []rankedNeed, allocations []Allocation, contentionGroups int) Summary {
	criticalityByNeed := make(map[string]models.Criticality, len(ranked))
	for _, rn := range ranked {
		criticalityByNeed[rn.need.ID] = rn.need.MissionCriticality
	}

	s := Summary{TotalNeeds: len(allocations), Contention: contentionGroups}
	anyCriticalDenied, anyDenied, anyDegraded := false, false, false
	for _, a := range allocations {
		switch a.Status {
		case models.AllocationFulfilled:
			s.Fulfilled++
		case models.AllocationDegraded:
			s.Degraded++
			anyDegraded = true
		case models.AllocationDenied:
			s.Denied++
			anyDenied = true
			if criticalityByNeed[a.NeedID] == models.CriticalityCritical {
				anyCriticalDenied = true
			}
		}
	}

	switch {
	case anyCriticalDenied:
		s.RiskLevel = models.RiskCritical
	case anyDenied:
		s.RiskLevel = models.RiskHigh
	case anyDegraded:
		s.RiskLevel = models.RiskModerate
	default:
		s.RiskLevel = models.RiskLow
	}
	return s
}

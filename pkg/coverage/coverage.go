// Package coverage implements the pure, stateless Coverage Calculator
// (§4.2): great-circle geometry, AOS/LOS window detection, gap detection,
// and fulfillment-ratio checks. None of it touches persistence or the clock.
package coverage

import (
	"math"
	"sort"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/propagator"
)

const earthRadiusKm = 6371.0

// minElevationDeg is the fixed per-capability minimum elevation angle table.
var minElevationDeg = map[models.CapabilityType]float64{
	models.CapGPS:              5,
	models.CapGPSMilitary:      5,
	models.CapSATCOM:           5,
	models.CapSATCOMProtected:  10,
	models.CapSATCOMWideband:   5,
	models.CapSATCOMNarrowband: 5,
	models.CapOPIR:             10,
	models.CapISRSpace:         20,
	models.CapSIGINTSpace:      15,
	models.CapLink16:           0,
	models.CapCyberSpace:       0,
	models.CapWeather:          5,
	models.CapPNT:              5,
	models.CapMissileWarning:   10,
	models.CapSpaceDomainAware: 15,
	models.CapNavWarfare:       5,
	models.CapSATCOMTactical:   5,
	models.CapEarthObservation: 10,
	models.CapPositioning:      5,
}

// minElevationFor returns the minimum elevation for a capability, defaulting
// to 5 degrees for any capability not in the fixed table.
func minElevationFor(c models.CapabilityType) float64 {
	if v, ok := minElevationDeg[c]; ok {
		return v
	}
	return 5
}

// GreatCircleAngleRad returns the central angle in radians between two
// geodetic points, in [0, pi], via the Vincenty formulation (numerically
// stable near antipodal and coincident points, unlike the spherical law of
// cosines).
func GreatCircleAngleRad(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, λ1 := deg2rad(lat1), deg2rad(lon1)
	φ2, λ2 := deg2rad(lat2), deg2rad(lon2)
	Δλ := λ2 - λ1

	sinΔλ, cosΔλ := math.Sincos(Δλ)
	sinφ1, cosφ1 := math.Sincos(φ1)
	sinφ2, cosφ2 := math.Sincos(φ2)

	num := math.Hypot(cosφ2*sinΔλ, cosφ1*sinφ2-sinφ1*cosφ2*cosΔλ)
	den := sinφ1*sinφ2 + cosφ1*cosφ2*cosΔλ
	return math.Atan2(num, den)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// CheckResult is the outcome of a single coverage check at an instant.
type CheckResult struct {
	InCoverage    bool
	ElevationDeg  float64
	SlantRangeKm  float64
	SubSatLat     float64
	SubSatLon     float64
	AltKm         float64
}

// CheckCoverage evaluates whether a satellite at satPos covers groundLat/Lon
// for the given capability, per the elevation-angle formula in §4.2.
func CheckCoverage(satPos propagator.Position, groundLat, groundLon float64, capability models.CapabilityType) CheckResult {
	c := GreatCircleAngleRad(satPos.Lat, satPos.Lon, groundLat, groundLon)
	R := earthRadiusKm
	h := satPos.AltKm

	elevationRad := math.Atan2(math.Cos(c)-R/(R+h), math.Sin(c))
	elevationDeg := rad2deg(elevationRad)

	slantRangeKm := math.Sqrt(R*R + (R+h)*(R+h) - 2*R*(R+h)*math.Cos(c))

	return CheckResult{
		InCoverage:   elevationDeg >= minElevationFor(capability),
		ElevationDeg: elevationDeg,
		SlantRangeKm: slantRangeKm,
		SubSatLat:    satPos.Lat,
		SubSatLon:    satPos.Lon,
		AltKm:        h,
	}
}

// activeWindow tracks an open AOS-to-LOS cycle while walking the interval.
type activeWindow struct {
	start      time.Time
	peakElev   float64
	peakLat    float64
	peakLon    float64
	peakAltKm  float64
}

// ComputeCoverageWindows walks [start, end] in stepMin-minute steps and
// materializes one SpaceCoverageWindow per open-close (AOS/LOS) cycle for
// each capability the asset carries. A window still open at end is closed
// there. positionAt must return the same propagated point used to derive
// coverage at each step (callers typically pass a closure wrapping a
// propagator.Propagator with a fixed context).
func ComputeCoverageWindows(
	asset *models.SpaceAsset,
	groundLat, groundLon float64,
	start, end time.Time,
	stepMin float64,
	positionAt func(t time.Time) (propagator.Position, bool),
) []models.SpaceCoverageWindow {
	if stepMin <= 0 {
		stepMin = 1
	}
	step := time.Duration(stepMin * float64(time.Minute))

	active := map[models.CapabilityType]*activeWindow{}
	var windows []models.SpaceCoverageWindow

	closeWindow := func(cap models.CapabilityType, endTime time.Time) {
		aw := active[cap]
		if aw == nil {
			return
		}
		windows = append(windows, models.SpaceCoverageWindow{
			AssetID:      asset.ID,
			AssetName:    asset.Name,
			Capability:   cap,
			Start:        aw.start,
			End:          endTime,
			MaxElevation: aw.peakElev,
			CenterLat:    aw.peakLat,
			CenterLon:    aw.peakLon,
			SwathWidthKm: swathWidthKm(aw.peakElev, aw.peakAltKm),
		})
		delete(active, cap)
	}

	for t := start; !t.After(end); t = t.Add(step) {
		pos, ok := positionAt(t)
		if !ok {
			for cap := range active {
				closeWindow(cap, t)
			}
			continue
		}
		for _, cap := range asset.Capabilities {
			res := CheckCoverage(pos, groundLat, groundLon, cap)
			aw, open := active[cap]
			switch {
			case res.InCoverage && !open:
				active[cap] = &activeWindow{start: t, peakElev: res.ElevationDeg, peakLat: res.SubSatLat, peakLon: res.SubSatLon, peakAltKm: res.AltKm}
			case res.InCoverage && open:
				if res.ElevationDeg > aw.peakElev {
					aw.peakElev = res.ElevationDeg
					aw.peakLat = res.SubSatLat
					aw.peakLon = res.SubSatLon
					aw.peakAltKm = res.AltKm
				}
			case !res.InCoverage && open:
				closeWindow(cap, t)
			}
		}
	}
	for cap := range active {
		closeWindow(cap, end)
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows
}

// swathWidthKm estimates the ground swath diameter visible at peak elevation,
// via the same elevation-angle geometry inverted for central angle.
func swathWidthKm(peakElevDeg, altKm float64) float64 {
	if altKm <= 0 {
		return 0
	}
	R := earthRadiusKm
	elevRad := deg2rad(peakElevDeg)
	// Central angle c relates to elevation via
	// elevation = atan2(cos(c) - R/(R+h), sin(c)). For the swath estimate an
	// order-of-magnitude footprint radius is enough, so use the closed form
	// c = acos(R/(R+h) * cos(elevation)), which omits the exact solution's
	// "- elevation" term (exact at the horizon, wider above it).
	cosC := R / (R + altKm) * math.Cos(elevRad)
	c := math.Acos(clamp(cosC, -1, 1))
	return 2 * R * c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Gap is an uncovered interval for a SpaceNeed.
type Gap struct {
	MissionID  string
	NeedID     string
	Capability models.CapabilityType
	Start      time.Time
	End        time.Time
	Severity   models.GapSeverity
	Priority   int
}

// DetectGaps finds, for each unfulfilled need with a coverage point, the
// uncovered sub-intervals of its window not spanned by matching-capability
// coverage windows. Needs without a coverage point are skipped (no ground
// geometry to check). Output is sorted by severity then priority.
func DetectGaps(needs []models.SpaceNeed, windows []models.SpaceCoverageWindow) []Gap {
	var gaps []Gap

	for _, need := range needs {
		if need.Fulfilled || !need.HasCoveragePoint() {
			continue
		}

		var matching []models.SpaceCoverageWindow
		for _, w := range windows {
			if w.Capability != need.CapabilityType {
				continue
			}
			if w.End.Before(need.StartTime) || w.Start.After(need.EndTime) {
				continue
			}
			matching = append(matching, w)
		}

		if len(matching) == 0 {
			gaps = append(gaps, newGap(need, need.StartTime, need.EndTime))
			continue
		}

		sort.Slice(matching, func(i, j int) bool { return matching[i].Start.Before(matching[j].Start) })

		cursor := need.StartTime
		for _, w := range matching {
			winStart := w.Start
			if winStart.Before(need.StartTime) {
				winStart = need.StartTime
			}
			winEnd := w.End
			if winEnd.After(need.EndTime) {
				winEnd = need.EndTime
			}
			if winStart.After(cursor) {
				gaps = append(gaps, newGap(need, cursor, winStart))
			}
			if winEnd.After(cursor) {
				cursor = winEnd
			}
		}
		if cursor.Before(need.EndTime) {
			gaps = append(gaps, newGap(need, cursor, need.EndTime))
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if severityRank(gaps[i].Severity) != severityRank(gaps[j].Severity) {
			return severityRank(gaps[i].Severity) < severityRank(gaps[j].Severity)
		}
		return gaps[i].Priority < gaps[j].Priority
	})
	return gaps
}

func newGap(need models.SpaceNeed, start, end time.Time) Gap {
	return Gap{
		MissionID:  need.MissionID,
		NeedID:     need.ID,
		Capability: need.CapabilityType,
		Start:      start,
		End:        end,
		Severity:   severityFor(need.PriorityRank),
		Priority:   need.PriorityRank,
	}
}

func severityFor(priority int) models.GapSeverity {
	switch {
	case priority <= 1:
		return models.GapCritical
	case priority <= 3:
		return models.GapDegraded
	default:
		return models.GapLow
	}
}

func severityRank(s models.GapSeverity) int {
	switch s {
	case models.GapCritical:
		return 0
	case models.GapDegraded:
		return 1
	default:
		return 2
	}
}

// DefaultFulfillmentThreshold is the coverage ratio a need must meet to be
// considered fulfilled, absent an explicit override.
const DefaultFulfillmentThreshold = 0.8

// CheckFulfillment sums overlap durations of matching-capability windows
// (clamped to the need's window) for each not-yet-fulfilled need and returns
// the IDs of needs whose ratio now meets threshold. Already-fulfilled needs
// are skipped; the check is monotone — more overlap can never un-fulfill.
func CheckFulfillment(needs []models.SpaceNeed, windows []models.SpaceCoverageWindow, threshold float64) []string {
	if threshold <= 0 {
		threshold = DefaultFulfillmentThreshold
	}
	var newlyFulfilled []string

	for _, need := range needs {
		if need.Fulfilled {
			continue
		}
		total := need.EndTime.Sub(need.StartTime)
		if total <= 0 {
			continue
		}

		var covered time.Duration
		for _, w := range windows {
			if w.Capability != need.CapabilityType {
				continue
			}
			covered += w.Overlap(need.StartTime, need.EndTime)
		}

		ratio := float64(covered) / float64(total)
		if ratio >= threshold {
			newlyFulfilled = append(newlyFulfilled, need.ID)
		}
	}
	return newlyFulfilled
}

package ingest

import (
	"strings"

	"github.com/neg-0/overwatch/pkg/models"
)

// Normalized pairs a coerced enum value with whether the input required the
// fuzzy/default fallback path (and so should be counted toward
// reviewFlagCount).
type Normalized struct {
	Value      string
	ReviewFlag bool
}

var waypointLookup = map[string]string{
	"DEP": "DEP", "IP": "IP", "CP": "CP", "TGT": "TGT", "EGR": "EGR",
	"REC": "REC", "ORBIT": "ORBIT", "REFUEL": "REFUEL", "CAP": "CAP", "PATROL": "PATROL",
}

// NormalizeWaypointType coerces an arbitrary input string to a WaypointType,
// falling back to substring matching and finally the documented default CP.
func NormalizeWaypointType(raw string) Normalized {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if v, ok := waypointLookup[key]; ok {
		return Normalized{Value: v}
	}
	switch {
	case strings.Contains(key, "REFUEL") || strings.Contains(key, "TANK"):
		return Normalized{Value: string(models.WaypointREFUEL), ReviewFlag: true}
	case strings.Contains(key, "ORBIT"):
		return Normalized{Value: string(models.WaypointORBIT), ReviewFlag: true}
	case strings.Contains(key, "TARGET") || strings.Contains(key, "TGT"):
		return Normalized{Value: string(models.WaypointTGT), ReviewFlag: true}
	case strings.Contains(key, "EGRESS"):
		return Normalized{Value: string(models.WaypointEGR), ReviewFlag: true}
	case strings.Contains(key, "RECOVER"):
		return Normalized{Value: string(models.WaypointREC), ReviewFlag: true}
	}
	return Normalized{Value: string(models.WaypointCP), ReviewFlag: true}
}

// NormalizeWindowType coerces to a TimeWindow kind; unknown defaults to TOT.
func NormalizeWindowType(raw string) Normalized {
	key := strings.ToUpper(strings.TrimSpace(raw))
	switch key {
	case string(models.WindowTOT), string(models.WindowONSTA):
		return Normalized{Value: key}
	}
	if strings.Contains(key, "ONSTA") || strings.Contains(key, "ORBIT") || strings.Contains(key, "STATION") {
		return Normalized{Value: string(models.WindowONSTA), ReviewFlag: true}
	}
	return Normalized{Value: string(models.WindowTOT), ReviewFlag: true}
}

// NormalizeSupportType coerces to a SupportRequirement kind; unknown defaults
// to ISR.
func NormalizeSupportType(raw string) Normalized {
	key := strings.ToUpper(strings.TrimSpace(raw))
	switch key {
	case string(models.SupportTanker), string(models.SupportSEAD), string(models.SupportISR),
		string(models.SupportEscort), string(models.SupportAWACS), string(models.SupportJSTARS):
		return Normalized{Value: key}
	}
	switch {
	case strings.Contains(key, "TANK") || strings.Contains(key, "REFUEL") || strings.Contains(key, "AAR"):
		return Normalized{Value: string(models.SupportTanker), ReviewFlag: true}
	case strings.Contains(key, "SEAD") || strings.Contains(key, "SUPPRESS"):
		return Normalized{Value: string(models.SupportSEAD), ReviewFlag: true}
	case strings.Contains(key, "SSURV") || strings.Contains(key, "RECON") || strings.Contains(key, "ISR"):
		return Normalized{Value: string(models.SupportISR), ReviewFlag: true}
	case strings.Contains(key, "ESCORT"):
		return Normalized{Value: string(models.SupportEscort), ReviewFlag: true}
	case strings.Contains(key, "AWACS"):
		return Normalized{Value: string(models.SupportAWACS), ReviewFlag: true}
	case strings.Contains(key, "JSTARS"):
		return Normalized{Value: string(models.SupportJSTARS), ReviewFlag: true}
	}
	return Normalized{Value: string(models.SupportISR), ReviewFlag: true}
}

var capabilityLookup = map[string]bool{}

func init() {
	for _, c := range models.AllCapabilityTypes {
		capabilityLookup[string(c)] = true
	}
}

// NormalizeCapabilityType coerces to a CapabilityType; unknown defaults to
// GPS with reviewFlag set.
func NormalizeCapabilityType(raw string) Normalized {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if capabilityLookup[key] {
		return Normalized{Value: key}
	}
	switch {
	case strings.Contains(key, "SATCOM"):
		return Normalized{Value: string(models.CapSATCOM), ReviewFlag: true}
	case strings.Contains(key, "ISR"):
		return Normalized{Value: string(models.CapISRSpace), ReviewFlag: true}
	case strings.Contains(key, "SIGINT"):
		return Normalized{Value: string(models.CapSIGINTSpace), ReviewFlag: true}
	case strings.Contains(key, "WEATHER"):
		return Normalized{Value: string(models.CapWeather), ReviewFlag: true}
	}
	return Normalized{Value: string(models.CapGPS), ReviewFlag: true}
}

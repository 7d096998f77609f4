package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dtgMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseDTG parses a military date-time group `DDHHMMZ MON YY` (e.g.
// "151430Z JUN 26") into its absolute UTC instant, then derives
// (triggerDay, triggerHour) relative to scenarioStart: triggerDay is
// 1-based — the scenario's start date is ATO day 1, matching
// pkg/simulation's atoDayFor and the Game Master's inject writer — plus
// the whole number of days between scenarioStart's date and the DTG's
// date. triggerHour is the DTG's UTC hour-of-day.
func ParseDTG(dtg string, scenarioStart time.Time) (triggerDay, triggerHour int, err error) {
	fields := strings.Fields(strings.TrimSpace(dtg))
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("ingest: malformed DTG %q", dtg)
	}

	datePart, monStr, yearStr := fields[0], strings.ToUpper(fields[1]), fields[2]
	if len(datePart) != 7 || !strings.HasSuffix(strings.ToUpper(datePart), "Z") {
		return 0, 0, fmt.Errorf("ingest: malformed DTG date part %q", datePart)
	}

	day, err := strconv.Atoi(datePart[0:2])
	if err != nil {
		return 0, 0, fmt.Errorf("ingest: bad DTG day: %w", err)
	}
	hour, err := strconv.Atoi(datePart[2:4])
	if err != nil {
		return 0, 0, fmt.Errorf("ingest: bad DTG hour: %w", err)
	}
	minute, err := strconv.Atoi(datePart[4:6])
	if err != nil {
		return 0, 0, fmt.Errorf("ingest: bad DTG minute: %w", err)
	}

	month, ok := dtgMonths[monStr]
	if !ok {
		return 0, 0, fmt.Errorf("ingest: unknown DTG month %q", monStr)
	}

	yy, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, fmt.Errorf("ingest: bad DTG year: %w", err)
	}
	year := 2000 + yy

	instant := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	startDate := scenarioStart.UTC().Truncate(24 * time.Hour)
	instantDate := instant.Truncate(24 * time.Hour)
	triggerDay = int(instantDate.Sub(startDate).Hours()/24) + 1
	triggerHour = instant.Hour()
	return triggerDay, triggerHour, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

func printScenarioStatus(agg scenarioAggregate) {
	sc := agg.Scenario
	fmt.Printf("\033[1mscenario\033[0m %s — %s\n", sc.ID, sc.Name)
	fmt.Printf("  generation: %s  step=%q  progress=%d%%\n", sc.GenerationStatus, sc.GenerationStep, sc.GenerationProgress)
	if sc.GenerationError != "" {
		fmt.Printf("  \033[31mgeneration error:\033[0m %s\n", sc.GenerationError)
	}
	if agg.Simulation == nil {
		fmt.Println("  simulation: not yet initialized")
		return
	}
	sim := agg.Simulation
	fmt.Printf("  simulation: %s  simTime=%s  compression=%gx  atoDay=%d\n",
		sim.Status, sim.SimTime.Format("2006-01-02T15:04:05Z"), sim.CompressionRatio, sim.CurrentAtoDay)
}

// printEventsTable renders rows as a fixed-width table, padding each cell
// by display width rather than byte length so multi-byte event detail
// (unit names, callsigns) still lines up in a monospace terminal.
func printEventsTable(events []eventRow) {
	if len(events) == 0 {
		fmt.Println("(no events)")
		return
	}

	headers := []string{"TIME", "EVENT", "DETAIL"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		detail, _ := json.Marshal(e.Detail)
		rows = append(rows, []string{
			e.Time.Format("15:04:05"),
			e.EventType,
			truncateDisplay(string(detail), 60),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow(headers, widths)
	sep := make([]string, len(headers))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	printRow(sep, widths)
	for _, row := range rows {
		printRow(row, widths)
	}
}

func printRow(cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = runewidth.FillRight(c, widths[i])
	}
	fmt.Println(strings.Join(padded, "  "))
}

func truncateDisplay(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth-1, "") + "…"
}

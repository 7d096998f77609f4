// Command simctl is a readline-based operator console for driving a
// running overwatch server: generate scenarios, watch generation progress,
// and start/pause/resume/stop/speed/seek a scenario's simulation clock —
// all over the same HTTP API a browser client would use.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

func main() {
	serverURL := flag.String("server", getEnv("OVERWATCH_SERVER_URL", "http://localhost:8080"), "overwatch server base URL")
	flag.Parse()

	client := newAPIClient(*serverURL)

	cacheDir, _ := os.UserCacheDir()
	historyPath := ""
	if cacheDir != "" {
		_ = os.MkdirAll(filepath.Join(cacheDir, "simctl"), 0755)
		historyPath = filepath.Join(cacheDir, "simctl", "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36msimctl>\033[0m ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "simctl: readline init: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("\033[1msimctl\033[0m — overwatch operator console, connected to %s\n", *serverURL)
	fmt.Println("type 'help' for commands, 'exit' or Ctrl-D to quit")

	var activeScenario string

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			break
		}

		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "exit", "quit":
			return
		case "help":
			printHelp()
		case "use":
			if len(args) != 1 {
				fmt.Println("usage: use <scenario-id>")
				continue
			}
			activeScenario = args[0]
			fmt.Printf("active scenario: %s\n", activeScenario)
		case "generate":
			runGenerate(client, args, &activeScenario)
		case "status":
			runStatus(client, args, activeScenario)
		case "events":
			runEvents(client, args, activeScenario)
		case "start":
			runStart(client, args, activeScenario)
		case "pause":
			runSimpleAction(client, activeScenario, "pause")
		case "resume":
			runSimpleAction(client, activeScenario, "resume")
		case "stop":
			runSimpleAction(client, activeScenario, "stop")
		case "speed":
			runSpeed(client, args, activeScenario)
		case "seek":
			runSeek(client, args, activeScenario)
		case "delete":
			runDelete(client, args, &activeScenario)
		default:
			fmt.Printf("unknown command %q — type 'help'\n", cmd)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func printHelp() {
	fmt.Println(`commands:
  generate <name> [theater] [adversary] [days]   create a scenario and start generation
  use <scenario-id>                              set the active scenario for subsequent commands
  status                                         show the active scenario's generation/simulation state
  events [limit]                                 show the active scenario's recent events
  start <compressionRatio>                       start the active scenario's clock
  pause / resume / stop                          control the active scenario's clock
  speed <compressionRatio>                        change the active scenario's time compression
  seek <RFC3339-timestamp>                       jump the active scenario's clock to a time
  delete [scenario-id]                           delete a scenario (defaults to the active one)
  exit / quit                                    leave simctl`)
}

func requireActive(scenarioID string) bool {
	if scenarioID == "" {
		fmt.Println("no active scenario — 'use <scenario-id>' or 'generate' first")
		return false
	}
	return true
}

func runGenerate(c *apiClient, args []string, active *string) {
	if len(args) == 0 {
		fmt.Println("usage: generate <name> [theater] [adversary] [days]")
		return
	}
	req := generateScenarioRequest{Name: args[0]}
	if len(args) > 1 {
		req.Theater = args[1]
	}
	if len(args) > 2 {
		req.Adversary = args[2]
	}
	if len(args) > 3 {
		if d, err := strconv.Atoi(args[3]); err == nil {
			req.Days = d
		}
	}

	var resp scenarioCreatedResponse
	if err := c.post("/api/scenarios/generate", req, &resp); err != nil {
		fmt.Printf("generate failed: %v\n", err)
		return
	}
	*active = resp.ID
	fmt.Printf("scenario %s created (%s) — generation started, active scenario set\n", resp.ID, resp.GenerationStatus)
}

func runStatus(c *apiClient, args []string, active string) {
	id := active
	if len(args) > 0 {
		id = args[0]
	}
	if !requireActive(id) {
		return
	}
	var agg scenarioAggregate
	if err := c.get(fmt.Sprintf("/api/scenarios/%s", id), &agg); err != nil {
		fmt.Printf("status failed: %v\n", err)
		return
	}
	printScenarioStatus(agg)
}

func runEvents(c *apiClient, args []string, active string) {
	if !requireActive(active) {
		return
	}
	path := fmt.Sprintf("/api/scenarios/%s/events", active)
	if len(args) > 0 {
		path += "?limit=" + args[0]
	}
	var events []eventRow
	if err := c.get(path, &events); err != nil {
		fmt.Printf("events failed: %v\n", err)
		return
	}
	printEventsTable(events)
}

func runStart(c *apiClient, args []string, active string) {
	if !requireActive(active) {
		return
	}
	ratio := 60.0
	if len(args) > 0 {
		if r, err := strconv.ParseFloat(args[0], 64); err == nil {
			ratio = r
		}
	}
	var resp map[string]any
	if err := c.post(fmt.Sprintf("/api/scenarios/%s/simulation/start", active), compressionRequest{CompressionRatio: ratio}, &resp); err != nil {
		fmt.Printf("start failed: %v\n", err)
		return
	}
	fmt.Printf("scenario %s: %v\n", active, resp["status"])
}

func runSimpleAction(c *apiClient, active, action string) {
	if !requireActive(active) {
		return
	}
	var resp map[string]any
	if err := c.post(fmt.Sprintf("/api/scenarios/%s/simulation/%s", active, action), nil, &resp); err != nil {
		fmt.Printf("%s failed: %v\n", action, err)
		return
	}
	fmt.Printf("scenario %s: %v\n", active, resp["status"])
}

func runSpeed(c *apiClient, args []string, active string) {
	if !requireActive(active) {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: speed <compressionRatio>")
		return
	}
	ratio, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Println("compressionRatio must be a number")
		return
	}
	var resp map[string]any
	if err := c.put(fmt.Sprintf("/api/scenarios/%s/simulation/speed", active), compressionRequest{CompressionRatio: ratio}, &resp); err != nil {
		fmt.Printf("speed failed: %v\n", err)
		return
	}
	fmt.Printf("scenario %s: compressionRatio=%v\n", active, resp["compressionRatio"])
}

func runSeek(c *apiClient, args []string, active string) {
	if !requireActive(active) {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: seek <RFC3339-timestamp>")
		return
	}
	target, err := time.Parse(time.RFC3339, args[0])
	if err != nil {
		fmt.Printf("invalid timestamp: %v\n", err)
		return
	}
	var resp map[string]any
	if err := c.post(fmt.Sprintf("/api/scenarios/%s/simulation/seek", active), seekRequest{TargetTime: target}, &resp); err != nil {
		fmt.Printf("seek failed: %v\n", err)
		return
	}
	fmt.Printf("scenario %s: targetTime=%v\n", active, resp["targetTime"])
}

func runDelete(c *apiClient, args []string, active *string) {
	id := *active
	if len(args) > 0 {
		id = args[0]
	}
	if !requireActive(id) {
		return
	}
	var resp map[string]any
	if err := c.delete(fmt.Sprintf("/api/scenarios/%s", id), &resp); err != nil {
		fmt.Printf("delete failed: %v\n", err)
		return
	}
	fmt.Printf("scenario %s deleted\n", id)
	if id == *active {
		*active = ""
	}
}

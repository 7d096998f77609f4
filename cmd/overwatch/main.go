// Command overwatch runs the simulation server: HTTP/JSON and WebSocket
// API, the scenario generator, the Game Master, and the real-time
// time-compressed simulation engine, all backed by a single Postgres
// database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/neg-0/overwatch/pkg/api"
	"github.com/neg-0/overwatch/pkg/broadcast"
	"github.com/neg-0/overwatch/pkg/catalog"
	"github.com/neg-0/overwatch/pkg/config"
	"github.com/neg-0/overwatch/pkg/gamemaster"
	"github.com/neg-0/overwatch/pkg/ingest"
	"github.com/neg-0/overwatch/pkg/llm"
	"github.com/neg-0/overwatch/pkg/scenario"
	"github.com/neg-0/overwatch/pkg/simulation"
	"github.com/neg-0/overwatch/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		log.Error("config: initialize failed", "error", err)
		os.Exit(1)
	}
	log.Info("config: loaded", "stats", cfg.Stats())

	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		log.Error("store: load config failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewClient(ctx, dbCfg)
	if err != nil {
		log.Error("store: connect failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	log.Info("store: connected", "database", dbCfg.Database)

	hub := broadcast.New(5*time.Second, log)

	llmBaseURL := getEnv("OVERWATCH_LLM_BASE_URL", "https://api.openai.com/v1")
	llmClient := llm.New(llmBaseURL, cfg.LLM.APIKey)

	var udlClient *catalog.Client
	if cfg.UDL.BaseURL != "" {
		udlClient = catalog.New(cfg.UDL.BaseURL, cfg.UDL.Username, cfg.UDL.Password)
		log.Info("catalog: UDL client configured", "base_url", cfg.UDL.BaseURL)
	}

	pipeline := ingest.New(llmClient, st, hub, ingest.Config{
		FastModel: cfg.LLM.Fast,
		MidModel:  cfg.LLM.MidRange,
	})

	gm := gamemaster.New(st, pipeline, llmClient, st, hub, cfg.Catalog, gamemaster.Config{
		FlagshipModel: cfg.LLM.Flagship,
		MidModel:      cfg.LLM.MidRange,
	})

	gen := scenario.New(st, pipeline, llmClient, st, hub, cfg.Catalog, udlClient, scenario.Config{
		FlagshipModel: cfg.LLM.Flagship,
	})

	sim := simulation.New(st, hub, gm, nil, simulation.Config{
		TickIntervalMs:           cfg.Simulation.TickIntervalMs,
		PositionUpdateIntervalMs: cfg.Simulation.PositionUpdateIntervalMs,
	}, log)

	server := api.New(cfg, st, gen, sim, hub, log)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	log.Info("http: listening", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown: signal received")
	case err := <-errCh:
		log.Error("http: server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown: http server", "error", err)
	}
}


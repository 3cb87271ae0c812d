package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reverse_dcf/pkg/api/config"
	"reverse_dcf/pkg/api/valuation"
	"reverse_dcf/pkg/core/agent"
	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/assumption"
	coreConfig "reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/insight"
	"reverse_dcf/pkg/core/scan"
	"reverse_dcf/pkg/core/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $RDCF_CONFIG or config/rdcf.yaml)")
	flag.Parse()

	cfg, err := coreConfig.Load(*configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, memory otherwise
	var st store.Store
	if cfg.Database.URL != "" {
		if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
			fmt.Printf("[FATAL] %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		pg := store.NewPGStore(store.GetPool())
		if err := pg.Migrate(ctx); err != nil {
			fmt.Printf("[FATAL] %v\n", err)
			os.Exit(1)
		}
		st = pg
		fmt.Println("[STORE] Using Postgres")
	} else {
		st = store.NewMemoryStore()
		fmt.Println("[STORE] DATABASE_URL not set, using in-memory store")
	}

	engine := analysis.NewEngine(assumption.DefaultPolicy(), cfg.Solver)
	agentMgr := agent.NewManager(agent.Config{
		ActiveProvider: cfg.LLM.ActiveProvider,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
	})

	fetcher := ingest.NewScreenerFetcher(cfg.Ingest.BaseURL, cfg.Ingest.Timeout)

	handler := valuation.NewHandler(engine, st, scan.NewScanner(engine, cfg.Scan.Workers))
	handler.Fetcher = fetcher
	// Providers read their own keys; a missing key surfaces as a 502 from
	// the estimate and commentary endpoints.
	handler.Advisor = insight.NewAdvisor(agentMgr)

	mux := http.NewServeMux()
	handler.Register(mux)

	configHandler := config.NewHandler(agentMgr, engine.Solver())
	mux.HandleFunc("/api/config", configHandler.HandleConfig)
	mux.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Background refresh of the configured universe
	if len(cfg.Ingest.Tickers) > 0 {
		refresher := ingest.NewRefresher(fetcher, st, cfg.Ingest.Tickers, cfg.Ingest.RefreshInterval)
		go func() {
			if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Printf("[INGEST] refresher stopped: %v\n", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("API server starting on %s...\n", cfg.Server.ListenAddr)
	fmt.Println("  - POST /api/valuation/value")
	fmt.Println("  - POST /api/valuation/implied-growth")
	fmt.Println("  - GET  /api/assumptions?market_cap=&sector=")
	fmt.Println("  - POST /api/signal")
	fmt.Println("  - POST /api/analysis")
	fmt.Println("  - POST /api/sensitivity")
	fmt.Println("  - GET  /api/securities, GET /api/securities/{ticker}/analysis")
	fmt.Println("  - POST /api/scenarios, GET /api/scenarios?ticker=, GET|DELETE /api/scenarios/{id}")
	fmt.Println("  - POST /api/scan")
	fmt.Println("  - GET  /api/config, POST /api/config/switch")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// Package main runs historyd, the serving daemon: it keeps the per-user
// rolling history store, answers daily prediction requests and exposes the
// history, cycle-stats and deletion endpoints plus the debug/admin routes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunaria-health/innerweather/internal/api"
	"github.com/lunaria-health/innerweather/internal/config"
	"github.com/lunaria-health/innerweather/internal/history"
	"github.com/lunaria-health/innerweather/internal/predict"
	"github.com/lunaria-health/innerweather/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "user_history.db", "Path to the history SQLite database")
	migrations  = flag.String("migrations", "migrations", "Directory with schema migrations")
	tuningPath  = flag.String("tuning", "", "Optional JSON tuning file (retention, timeouts)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("historyd %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuningConfig()
	if *tuningPath != "" {
		cfg, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = cfg
	}

	db, err := history.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer db.Close()
	db.Retention = tuning.GetRetentionDays()

	if _, err := os.Stat(*migrations); err == nil {
		if err := db.MigrateUp(*migrations); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Printf("migrations directory %q not found; running on bootstrap schema", *migrations)
	}

	predictor := &predict.Predictor{
		Phase:  predict.Baseline{},
		Score:  predict.Baseline{},
		Ranges: predict.RangeModel{},
		Hist:   db,
	}

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)
	srv := api.NewServer(db, predictor)
	srv.DefaultHistoryDays = tuning.GetDefaultHistoryDays()
	mux.Handle("/", srv.ServeMux())

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("historyd %s listening on %s", version.Version, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), tuning.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

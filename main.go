package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/price-sentinel/internal/repo"
	"github.com/KNICEX/price-sentinel/internal/schedule"
	"github.com/KNICEX/price-sentinel/internal/service/entries"
	"github.com/KNICEX/price-sentinel/internal/service/export"
	"github.com/KNICEX/price-sentinel/internal/service/monitor"
	"github.com/KNICEX/price-sentinel/ioc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}

	viper.SetDefault("monitor.interval_minutes", 5)
	viper.SetDefault("monitor.workers", 4)
	viper.SetDefault("monitor.call_timeout_seconds", 10)
	viper.SetDefault("metrics_port", 9108)
}

func main() {
	initViper()

	intervalMinutes := viper.GetInt("monitor.interval_minutes")
	if intervalMinutes < 1 || intervalMinutes > 60 {
		panic(fmt.Errorf("monitor.interval_minutes must be between 1 and 60, got %d", intervalMinutes))
	}

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}

	entryRepo := repo.NewEntryRepo(db)
	strategyRepo := repo.NewStrategyRepo(db)
	if err := strategyRepo.SeedDefaults(context.Background()); err != nil {
		panic(err)
	}

	quoteSvc := ioc.InitQuoteService()
	notifier := ioc.InitNotifier()
	metrics := monitor.NewMetrics(prometheus.DefaultRegisterer)

	entryMonitor := monitor.NewEntryMonitor(entryRepo, quoteSvc,
		monitor.WithNotifier(notifier),
		monitor.WithMetrics(metrics),
		monitor.WithWorkers(viper.GetInt("monitor.workers")),
		monitor.WithCallTimeout(ioc.CallTimeout()),
	)

	entriesSvc := entries.NewService(entryRepo, strategyRepo, quoteSvc)
	exportSvc := export.NewService(entryRepo, quoteSvc)

	task := monitor.NewEntryMonitorTask(entryMonitor)
	runner := schedule.NewRunner(task, time.Duration(intervalMinutes)*time.Minute)
	runner.Start(context.Background())

	go func() {
		port := viper.GetInt("metrics_port")
		slog.Info("launching http endpoint", "port", port)
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), newServeMux(entriesSvc, exportSvc))
		if err != nil {
			slog.Error("http server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down, waiting for in-flight tick")
	runner.Stop()
}

// newServeMux exposes metrics, health, and the read side of the command
// layer (entry listing and CSV export).
func newServeMux(entriesSvc *entries.Service, exportSvc *export.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/entries", listEntriesHandler(entriesSvc))
	mux.HandleFunc("/entries.csv", exportEntriesHandler(exportSvc))
	return mux
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func listEntriesHandler(svc *entries.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.List(r.Context())
		if err != nil {
			slog.Error("failed to list entries", "error", err)
			http.Error(w, "could not list entries", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(views); err != nil {
			slog.Error("failed to encode entries", "error", err)
		}
	}
}

func exportEntriesHandler(svc *export.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="entries.csv"`)
		if err := svc.WriteCSV(r.Context(), w); err != nil {
			slog.Error("failed to export entries", "error", err)
		}
	}
}

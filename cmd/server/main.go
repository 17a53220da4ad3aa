package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/forbiddenlink/spiralsounds/internal/analytics"
	"github.com/forbiddenlink/spiralsounds/internal/api"
	"github.com/forbiddenlink/spiralsounds/internal/auth"
	"github.com/forbiddenlink/spiralsounds/internal/config"
	"github.com/forbiddenlink/spiralsounds/internal/database"
	"github.com/forbiddenlink/spiralsounds/internal/realtime"
	"github.com/forbiddenlink/spiralsounds/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "c3BpcmFsc291bmRzLWRldi1zaWduaW5nLWtleS0wMDE="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr              string
	dsn               string
	signingKey        string
	allowedOrigins    stringSliceFlag
	sweepInterval     time.Duration
	analyticsInterval time.Duration
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&sweepInterval, "sweep-interval", config.DefaultSweepInterval, "interval between connection liveness sweeps")
	flag.DurationVar(&analyticsInterval, "analytics-interval", config.DefaultAnalyticsInterval, "interval between analytics broadcasts")
	flag.Parse()

	logger := log.New(os.Stderr, "[spiralsounds] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, sweepInterval, analyticsInterval)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgStoreRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	hub, err := realtime.NewHub(logger, statsUpdater, cfg.SweepInterval)
	if err != nil {
		logger.Fatal("new hub:", err)
	}

	verifier := auth.NewJwtVerifier(cfg.SigningKey)

	aggregator := analytics.NewAggregator(logger, dbConn, hub, cfg.AnalyticsInterval)

	srv := api.NewStoreApp(mux, logger, hub, dbConn, verifier, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()
	go aggregator.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("stopping analytics aggregator...")
	aggregator.Stop()

	logger.Println("shutting down hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}

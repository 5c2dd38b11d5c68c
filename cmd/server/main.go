package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/procurelens/procurelens/internal/gapscan"
	"github.com/procurelens/procurelens/internal/httpapi"
	"github.com/procurelens/procurelens/internal/llm"
	"github.com/procurelens/procurelens/internal/reportpdf"
	"github.com/procurelens/procurelens/internal/store"
	"github.com/procurelens/procurelens/internal/telemetry"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		rulesPath = flag.String("rules", "", "Path to CSV rule definitions (default: built-in rule set)")
		dbPath    = flag.String("db", "", "Path to SQLite history database (empty disables history)")
		uploadDir = flag.String("upload-dir", "", "Directory for uploaded files (default: system temp dir)")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	gateway, err := llm.NewFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if gateway.Enabled() {
		log.Printf("generative features enabled")
	} else {
		log.Printf("generative features disabled; analysis runs heuristics only")
	}

	cfg := httpapi.Config{
		Rules:     gapscan.LoadRules(*rulesPath),
		Renderer:  reportpdf.NewRenderer(),
		UploadDir: *uploadDir,
	}
	if gateway.Enabled() {
		cfg.Completer = gateway
	}
	if *dbPath != "" {
		history, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("open history store (%s): %v", *dbPath, err)
		}
		defer history.Close()
		cfg.History = history
		log.Printf("history store at %s", *dbPath)
	}

	srv := &http.Server{Addr: *addr, Handler: httpapi.NewServer(cfg)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("listening on %s (%d rules loaded)", *addr, len(cfg.Rules))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

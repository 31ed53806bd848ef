package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valfront/internal/client"
	"valfront/internal/config"
	"valfront/internal/httpapi"
	"valfront/internal/track"
	"valfront/internal/version"
)

func main() {
	configPath := flag.String("config", "valfront.yaml", "path to the config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	timings := client.NewTimings()
	backend := client.New(
		cfg.BackendURL,
		cfg.Client.TimeoutSeconds,
		cfg.Client.MaxRetries,
		cfg.Client.BackoffMs,
		cfg.Client.BackoffMaxMs,
		timings,
	)

	store := track.NewStore()
	view := httpapi.NewRowView()

	handler := httpapi.NewHandler(
		store,
		view,
		backend,
		timings,
		time.Duration(cfg.PollIntervalMs)*time.Millisecond,
		cfg.PageSize,
		cfg.Dedup,
	)
	router := httpapi.SetupRouter(handler)

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("%s listening on %s (backend %s)", version.String(), cfg.Listen, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	store.StopAll()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

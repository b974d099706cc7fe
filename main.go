package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"chartseerr/config"
	"chartseerr/services/imdb"
	"chartseerr/services/jellyseerr"
	"chartseerr/services/requester"
)

func main() {
	fmt.Println("🚀 chartseerr starting...")

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Log to both stdout and the configured file, with rotation
	if settings.LogFile != "" {
		logDir := filepath.Dir(settings.LogFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.LogFile,
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     90,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags)
			log.Printf("Logging to file: %s", settings.LogFile)
		}
	}

	log.Printf("chartseerr started (4K: %t, limit: %d, interval: %d day(s))",
		settings.Is4KRequest, settings.MovieLimit, settings.RunIntervalDays)

	seerr := jellyseerr.NewClient(settings.JellyseerrURL, settings.JellyseerrEmail, settings.JellyseerrPassword, settings.Is4KRequest, nil)
	scraper := imdb.NewScraper(settings.IMDBURL, nil)

	// Startup authentication is the one unrecoverable failure: without a
	// token there is nothing useful this process can do.
	authCtx, authCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seerr.Authenticate(authCtx); err != nil {
		authCancel()
		log.Fatalf("❌ no token retrieved, exiting: %v", err)
	}
	authCancel()

	svc := requester.NewService(settings, scraper, seerr)
	if err := svc.Start(context.Background()); err != nil {
		log.Fatalf("failed to start poll loop: %v", err)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Printf("Poll loop shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/time/rate"

	"nutriadvisor/internal/advisor"
	"nutriadvisor/internal/config"
	"nutriadvisor/internal/geminiservice"
	"nutriadvisor/internal/searchtool"
	"nutriadvisor/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight pipeline runs can take minutes; give them a chance to
	// finish before the listener is torn down.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	log.Info().Msg("Server exiting")

	done <- true
}

// buildRoster loads agent definitions from the configured file, falling
// back to the built-in roster when no file is set or it cannot be read.
func buildRoster(path string) advisor.Roster {
	if path == "" {
		return advisor.DefaultRoster()
	}
	loaded, err := advisor.LoadRoster(path)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load roster file, using built-in agents")
		return advisor.DefaultRoster()
	}
	return loaded
}

func main() {
	cfg := config.Load()

	planner := &advisor.Service{
		Roster: buildRoster(cfg.RosterFile),
		Model: &geminiservice.Client{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		},
		Searcher: &searchtool.Client{
			APIKey:  cfg.SerperAPIKey,
			Limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		},
	}

	apiServer := server.NewServer(cfg, planner)

	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, done)

	log.Info().Msgf("Nutrition advisor listening on %s", apiServer.Addr)

	err := apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}

/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the form
UI to the advisor pipeline.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"nutriadvisor/internal/config"
	"nutriadvisor/internal/profile"
)

// PlanGenerator runs the three-stage pipeline for one profile and returns
// the plan text. The server treats it as opaque; failures surface as a
// single user-facing error.
type PlanGenerator interface {
	Generate(ctx context.Context, logger *zerolog.Logger, p profile.UserProfile) (string, error)
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// cfg is the process configuration read once at startup.
	cfg *config.Config

	// planner produces nutrition plans from submitted profiles.
	planner PlanGenerator

	// templates is the glob the HTML renderer loads from.
	templates string
}

// NewServer initializes a Server and returns a configured *http.Server.
// Responses carry no write deadline: a pipeline run is several model round
// trips plus any searches the model decides on, and this layer imposes no
// timeout of its own — the model and search clients carry theirs.
func NewServer(cfg *config.Config, planner PlanGenerator) *http.Server {
	newApp := &Server{
		cfg:       cfg,
		planner:   planner,
		templates: "web/templates/*.html",
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}

	return server
}

/*
Package config reads process-wide configuration from the environment once
at startup. Everything downstream receives the resulting Config by
reference; no other package looks up environment variables directly.
*/
package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

const defaultModel = "gemini-2.0-flash"

// Config holds the settings the advisor needs for one process lifetime.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string

	// GeminiAPIKey authenticates calls to the Gemini generateContent API.
	GeminiAPIKey string

	// SerperAPIKey authenticates calls to the Serper web-search API.
	SerperAPIKey string

	// GeminiModel is the model identifier used for every pipeline stage.
	GeminiModel string

	// RosterFile optionally points at a YAML file overriding the built-in
	// agent roster text.
	RosterFile string
}

// Load reads the environment and returns the process configuration.
// Missing credentials are logged as warnings rather than treated as fatal;
// a run attempted without them fails at the orchestration step.
func Load() *Config {
	cfg := &Config{
		Port:         os.Getenv("PORT"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SerperAPIKey: os.Getenv("SERPER_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		RosterFile:   os.Getenv("ROSTER_FILE"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaultModel
	}

	for _, name := range cfg.MissingCredentials() {
		log.Warn().Msgf("%s is not set; plan generation will fail until it is provided", name)
	}

	return cfg
}

// MissingCredentials returns the names of required API credentials that are
// absent. The form page surfaces these as a warning banner.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.SerperAPIKey == "" {
		missing = append(missing, "SERPER_API_KEY")
	}
	return missing
}

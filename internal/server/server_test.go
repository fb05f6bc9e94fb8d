package server

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nutriadvisor/internal/config"
)

func TestNewServerImposesNoResponseDeadline(t *testing.T) {
	// NewServer loads templates relative to the repo root.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir("../.."); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := &config.Config{Port: "8080", GeminiAPIKey: "k", SerperAPIKey: "k", GeminiModel: "m"}

	srv := NewServer(cfg, &stubPlanner{})

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	// Pipeline runs can outlast any fixed bound; responses are not
	// write-limited by this layer.
	assert.Zero(t, srv.WriteTimeout)
}

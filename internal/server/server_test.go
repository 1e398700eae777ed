package server

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-lp-sniper/internal/storage/memory"
)

func TestNewServerAppliesTimeoutDefaults(t *testing.T) {
	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Store: memory.NewEventStore(), Logger: logrus.New()},
		Config:   ServerConfig{Addr: ":0"},
	})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, srv.e.Server.ReadTimeout)
	assert.Equal(t, 75*time.Second, srv.e.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.e.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, srv.cfg.ShutdownTimeout)
}

func TestNewServerHonorsConfiguredTimeouts(t *testing.T) {
	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Store: memory.NewEventStore(), Logger: logrus.New()},
		Config: ServerConfig{
			Addr:            ":0",
			ReadTimeout:     2 * time.Second,
			WriteTimeout:    3 * time.Second,
			IdleTimeout:     4 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, srv.e.Server.ReadTimeout)
	assert.Equal(t, 3*time.Second, srv.e.Server.WriteTimeout)
	assert.Equal(t, 4*time.Second, srv.e.Server.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.cfg.ShutdownTimeout)
}

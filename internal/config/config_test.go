package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 80, cfg.TotalSeats)
	assert.Equal(t, 8, cfg.SeatsPerRow)
	assert.Equal(t, 7, cfg.MaxBooking)
	assert.InDelta(t, 0.3, cfg.BookedProbability, 1e-9)
	assert.Equal(t, time.Second, cfg.SimulatedDelay)
	assert.True(t, cfg.ToggleWhilePending)
	assert.Equal(t, "random", cfg.SeatSource)
	assert.False(t, cfg.BookingEventsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOTAL_SEATS", "40")
	t.Setenv("MAX_BOOKING", "4")
	t.Setenv("SIMULATED_DELAY", "250ms")
	t.Setenv("TOGGLE_WHILE_PENDING", "off")
	t.Setenv("SEAT_SOURCE", "MySQL")
	t.Setenv("BOOKED_PROBABILITY", "not-a-number")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")

	cfg := Load()

	assert.Equal(t, 40, cfg.TotalSeats)
	assert.Equal(t, 4, cfg.MaxBooking)
	assert.Equal(t, 250*time.Millisecond, cfg.SimulatedDelay)
	assert.False(t, cfg.ToggleWhilePending)
	assert.Equal(t, "mysql", cfg.SeatSource)
	assert.InDelta(t, 0.3, cfg.BookedProbability, 1e-9)
	assert.Equal(t, "amqp://broker:5672/", cfg.RabbitMQURL)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SEATS_PER_ROW=4\nAPP_PORT=9000\n"), 0o644))
	t.Setenv("APP_PORT", "7000")
	t.Setenv("SEATS_PER_ROW", "")
	os.Unsetenv("SEATS_PER_ROW")

	LoadDotEnv(path)
	t.Cleanup(func() { os.Unsetenv("SEATS_PER_ROW") })

	cfg := Load()
	assert.Equal(t, 4, cfg.SeatsPerRow)
	assert.Equal(t, "7000", cfg.Port, "process environment wins over .env")

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

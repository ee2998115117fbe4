package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, "data", cfg.Store.DataDir)
	assert.Equal(t, 3, cfg.Delivery.MaxSendRetries)
	assert.Equal(t, 2.0, cfg.Delivery.RetryBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Delivery.BaseDelay())
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL)
	assert.Empty(t, cfg.Telegram.AdminIDs)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("ADMIN_IDS", "11,22")
	t.Setenv("SEND_DELAY", "1.5")
	t.Setenv("MAX_SEND_RETRIES", "5")
	t.Setenv("RETRY_BACKOFF", "3")
	t.Setenv("STORE_BACKEND", "redis")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []int64{11, 22}, cfg.Telegram.AdminIDs)
	assert.Equal(t, 1500*time.Millisecond, cfg.Delivery.BaseDelay())
	assert.Equal(t, 5, cfg.Delivery.MaxSendRetries)
	assert.Equal(t, 3.0, cfg.Delivery.RetryBackoff)
	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "STORE_BACKEND", "mongo"},
		{"negative retries", "MAX_SEND_RETRIES", "-1"},
		{"shrinking backoff", "RETRY_BACKOFF", "0.5"},
		{"not a number", "SEND_DELAY", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Parse()
			require.Error(t, err)
		})
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.IsAdmin(42), "empty admin list allows everyone")

	cfg.Telegram.AdminIDs = []int64{7}
	assert.True(t, cfg.IsAdmin(7))
	assert.False(t, cfg.IsAdmin(42))
}

func TestParseDistributionTime(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-12-20 18:00", time.Date(2026, 12, 20, 18, 0, 0, 0, loc)},
		{"2026-12-20T18:00", time.Date(2026, 12, 20, 18, 0, 0, 0, loc)},
		{"2026-12-20T18:00:30", time.Date(2026, 12, 20, 18, 0, 30, 0, loc)},
		{"2026-12-20T18:00:00Z", time.Date(2026, 12, 20, 18, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDistributionTime(tt.raw, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	_, err := ParseDistributionTime("", loc)
	require.Error(t, err)
	_, err = ParseDistributionTime("next friday", loc)
	require.Error(t, err)
}

func TestHumanDate(t *testing.T) {
	assert.Equal(t, "15 December 2026", HumanDate(time.Date(2026, 12, 15, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 January 2027", HumanDate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

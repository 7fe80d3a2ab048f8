package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN, "@tcp(localhost:3306)/medi")
	assert.Equal(t, "local", cfg.Scheduling.LockBackend)
	assert.Equal(t, 5*time.Second, cfg.Scheduling.LockTimeout)
	assert.Equal(t, 30, cfg.Scheduling.DefaultDurationMinutes)
	assert.Equal(t, "scheduled", cfg.Scheduling.DefaultStatus)
}

func TestLoadConfigPostgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "clinic")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN, "host=db")
	assert.Contains(t, cfg.Database.DSN, "dbname=clinic")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SCHEDULING_TIMEZONE", "Europe/Berlin")
	t.Setenv("SCHEDULING_LOCK_BACKEND", "redis")
	t.Setenv("SCHEDULING_LOCK_TIMEOUT", "750ms")
	t.Setenv("SCHEDULING_DEFAULT_STATUS", "pending")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	loc, err := cfg.Scheduling.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
	assert.Equal(t, "redis", cfg.Scheduling.LockBackend)
	assert.Equal(t, 750*time.Millisecond, cfg.Scheduling.LockTimeout)
	assert.Equal(t, "pending", cfg.Scheduling.DefaultStatus)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "DB_DRIVER", value: "oracle"},
		{name: "unknown lock backend", key: "SCHEDULING_LOCK_BACKEND", value: "zookeeper"},
		{name: "bad timezone", key: "SCHEDULING_TIMEZONE", value: "Mars/Olympus"},
		{name: "bad default status", key: "SCHEDULING_DEFAULT_STATUS", value: "confirmed"},
		{name: "non numeric duration", key: "SCHEDULING_DEFAULT_DURATION_MINUTES", value: "half-hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", "memory")
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

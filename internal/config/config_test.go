package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Save.AutosaveInterval())
	assert.Equal(t, 240*time.Second, cfg.Reset.Interval())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  width: 32
  noise_scale: 12.5
save:
  backend: badger
  compress: true
reset:
  burst: false
economy:
  ore_cost:
    Copper: 10
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.World.Width)
	assert.Equal(t, 50, cfg.World.Depth, "незаданные поля берутся из значений по умолчанию")
	assert.Equal(t, 12.5, cfg.World.NoiseScale)
	assert.Equal(t, BackendBadger, cfg.Save.GetBackend())
	assert.True(t, cfg.Save.Compress)
	assert.True(t, cfg.Reset.Enabled)
	assert.False(t, cfg.Reset.Burst)
	assert.Equal(t, int64(10), cfg.Economy.OreCost["Copper"])
}

func TestSpawnConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2*time.Second, cfg.Spawn.Interval())
	assert.Equal(t, 10, cfg.Spawn.MaxUnits)
	assert.Equal(t, []int64{0, 500, 5000, 50000, 500000}, cfg.Economy.ExtraSpawnCosts)

	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spawn:
  interval_seconds: 0.5
  max_units: 3
economy:
  extra_spawn_costs: [10, 20]
`), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Spawn.Interval())
	assert.Equal(t, 3, cfg.Spawn.MaxUnits)
	assert.Equal(t, []int64{10, 20}, cfg.Economy.ExtraSpawnCosts)

	require.NoError(t, os.WriteFile(path, []byte("spawn:\n  max_units: -1\n"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "лимит юнитов")
}

func TestLoadFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  tick_hz: 60\n"), 0644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Server.GetTickHz())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("save:\n  backend: ftp\n"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "ftp")

	require.NoError(t, os.WriteFile(path, []byte("world: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("VOXEL_METRICS_PORT", "9100")
	t.Setenv("VOXEL_SAVE_DIR", "/tmp/voxel")

	var s ServerConfig
	assert.Equal(t, 9100, s.GetMetricsPort())
	s.MetricsPort = 9200
	assert.Equal(t, 9200, s.GetMetricsPort(), "конфиг важнее окружения")

	var save SaveConfig
	assert.Equal(t, "/tmp/voxel", save.GetDir())
	assert.Equal(t, "localhost:6379", save.GetRedisAddr())
	assert.Empty(t, save.GetMySQLDSN())

	t.Setenv("VOXEL_MYSQL_DSN", "voxel:secret@tcp(db:3306)/voxel")
	assert.Equal(t, "voxel:secret@tcp(db:3306)/voxel", save.GetMySQLDSN())

	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "voxel-planets", (&TelemetryConfig{}).GetServiceName())

	t.Setenv("VOXEL_METRICS_PORT", "not-a-port")
	assert.Equal(t, 2112, (&ServerConfig{}).GetMetricsPort())
}

func TestEventsAndAPIConfig(t *testing.T) {
	t.Setenv("VOXEL_EVENTS", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Default()
	assert.Equal(t, EventsOff, cfg.Events.GetBackend())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.GetNATSURL())
	assert.Equal(t, 24*time.Hour, cfg.Events.Retention())
	assert.Equal(t, 8088, cfg.API.GetPort())
	assert.Equal(t, time.Hour, cfg.API.TokenTTL())
	assert.Empty(t, cfg.API.GetJWTSecret())

	t.Setenv("JWT_SECRET", "c2VjcmV0")
	assert.Equal(t, "c2VjcmV0", cfg.API.GetJWTSecret())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  backend: kafka\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "kafka")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bombarena/pkg/core"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"-env", noEnvFile(t)})
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Addr, cfg.Addr)
	assert.Equal(t, ProtoTCP, cfg.Proto)
	assert.Equal(t, 0, cfg.TPS, "unthrottled by default")
	assert.Equal(t, core.DefaultConfig(), cfg.Match)
}

func TestMatchFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
width: 15
fuse: 2s
stagnation_limit: 600
scores:
  kill: 50
`), 0o644))

	cfg, err := Load([]string{"-env", noEnvFile(t), "-match", path})
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Match.Width)
	assert.Equal(t, 2*time.Second, cfg.Match.Fuse)
	assert.Equal(t, 600, cfg.Match.StagnationLimit)
	assert.Equal(t, 50, cfg.Match.Scores.Kill)
	// 未出现的字段保持默认
	assert.Equal(t, core.DefaultHeight, cfg.Match.Height)
	assert.Equal(t, core.DefaultScores().Destroy, cfg.Match.Scores.Destroy)
}

func TestEnvThenFlagsPrecedence(t *testing.T) {
	t.Setenv(EnvTPS, "30")
	t.Setenv(EnvProto, "KCP")
	t.Setenv(EnvJWTSecret, "s3cret")

	cfg, err := Load([]string{"-env", noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TPS)
	assert.Equal(t, ProtoKCP, cfg.Proto)
	assert.Equal(t, "s3cret", cfg.JWTSecret)

	cfg, err = Load([]string{"-env", noEnvFile(t), "-tps", "0", "-proto", "ws"})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TPS)
	assert.Equal(t, ProtoWS, cfg.Proto)
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BOMB_AI=true\nLOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv(EnvAI)
		os.Unsetenv(EnvLogLevel)
	})

	cfg, err := Load([]string{"-env", path})
	require.NoError(t, err)
	assert.True(t, cfg.EnableAI)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load([]string{"-env", noEnvFile(t), "-proto", "udp"})
	assert.Error(t, err)

	t.Setenv(EnvTPS, "fast")
	_, err = Load([]string{"-env", noEnvFile(t)})
	assert.Error(t, err)
}

func TestMissingMatchFile(t *testing.T) {
	_, err := Load([]string{"-env", noEnvFile(t), "-match", filepath.Join(t.TempDir(), "nope.yml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

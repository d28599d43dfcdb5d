package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:5000", cfg.Addr())
	assert.Equal(t, "downloads", cfg.DownloadDir)
	assert.Equal(t, "users.json", cfg.UsersFile)
	assert.Equal(t, "yt-dlp", cfg.YtdlpPath)
	assert.True(t, cfg.OpenBrowser)

	maxAge, err := cfg.Retention.MaxAgeDuration()
	require.NoError(t, err)
	assert.Zero(t, maxAge, "retention is off by default")
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytgrab.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\nopen_browser: false\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.OpenBrowser)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "downloads", cfg.DownloadDir)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytgrab.yml")

	cfg := Default()
	cfg.Port = 9000
	cfg.DownloadDir = "/tmp/media"
	cfg.Retention.MaxAge = "72h"

	require.NoError(t, Save(cfg, path))
	assert.True(t, Exists(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestRetentionDurations(t *testing.T) {
	r := Retention{MaxAge: "24h", SweepInterval: "5m"}

	maxAge, err := r.MaxAgeDuration()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, maxAge)
	assert.Equal(t, 5*time.Minute, r.SweepIntervalDuration())

	_, err = Retention{MaxAge: "soon"}.MaxAgeDuration()
	assert.Error(t, err)

	assert.Equal(t, 10*time.Minute, Retention{}.SweepIntervalDuration())
	assert.Equal(t, 10*time.Minute, Retention{SweepInterval: "bogus"}.SweepIntervalDuration())
}

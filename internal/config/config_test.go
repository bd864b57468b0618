package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snaprotate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
defaults:
  mountPoint: /mnt/pool
  format: "2006-01-02_15-04-05"
  spacings:
    0h: 24h
    7d: 7d
logging:
  level: debug
  format: json
targets:
  home:
    subvolume: /mnt/pool/home
    snapshotDir: /mnt/pool/snapshots/home
  root:
    subvolume: /mnt/pool/rootfs
    snapshotDir: /mnt/pool/snapshots/rootfs
    spacings:
      0h: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"home", "root"}, cfg.TargetNames())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	home := cfg.Targets["home"]
	assert.Equal(t, "/mnt/pool", home.MountPoint)
	assert.Equal(t, "2006-01-02_15-04-05", home.Format)
	assert.Equal(t, "/mnt/pool/home", home.Subvolume)
	rules := home.SpacingRules()
	require.Len(t, rules, 2)
	assert.Equal(t, 24*time.Hour, rules[0])
	assert.Equal(t, 7*24*time.Hour, rules[7*24*time.Hour])

	// The root target overrides spacings wholesale, not per entry.
	root := cfg.Targets["root"]
	rules = root.SpacingRules()
	require.Len(t, rules, 1)
	assert.Equal(t, time.Hour, rules[0])
}

func TestLoadMissingFieldNamesTarget(t *testing.T) {
	path := writeConfig(t, `
defaults:
  mountPoint: /mnt/pool
  format: "2006-01-02_15-04-05"
targets:
  home:
    snapshotDir: /mnt/pool/snapshots/home
`)

	_, err := Load(path)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "home", fieldErr.Target)
	assert.Equal(t, "subvolume", fieldErr.Field)
	assert.Contains(t, err.Error(), "home")
	assert.Contains(t, err.Error(), "subvolume")
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("POOL_ROOT", "/mnt/bigdisk")
	path := writeConfig(t, `
defaults:
  mountPoint: $(POOL_ROOT)
  format: "2006-01-02"
targets:
  home:
    subvolume: $(POOL_ROOT)/home
    snapshotDir: $(POOL_ROOT)/snapshots/home
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/bigdisk", cfg.Targets["home"].MountPoint)
	assert.Equal(t, "/mnt/bigdisk/home", cfg.Targets["home"].Subvolume)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "targets: [not: a: mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
defaults:
  mountPoint: /mnt/pool
  format: "2006-01-02"
targets:
  home:
    subvolume: /mnt/pool/home
    snapshotDir: /mnt/pool/snapshots/home
    spacings:
      soon: 1h
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soon")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0s", 0},
		{"90m", 90 * time.Minute},
		{"36h", 36 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1.5d", 36 * time.Hour},
		{"1d12h", 36 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []string{"", "soon", "7", "-5h", "1d-2h"} {
		t.Run("invalid/"+in, func(t *testing.T) {
			_, err := ParseDuration(in)
			assert.Error(t, err)
		})
	}
}

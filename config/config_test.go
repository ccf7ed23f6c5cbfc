package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/nand0san/panzer-go/internal/quota"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recvWindowMillis: 5000\ncredentialFilename: creds.tmp\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.RecvWindowMillis)
	require.Equal(t, "creds.tmp", cfg.CredentialFilename)
	require.Equal(t, Default().HousekeepingSleepCapMillis, cfg.HousekeepingSleepCapMillis, "fields absent from the file keep their default")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recvWindowMillis: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

// Testable property 9: config idempotence. Marshaling a loaded config
// back to YAML and reloading it reproduces the same Config.
func TestConfigIdempotence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recvWindowMillis: 7000\n"), 0o644))

	first, err := Load(path)
	require.NoError(t, err)

	reserialized, err := yaml.Marshal(first)
	require.NoError(t, err)

	roundtripPath := filepath.Join(dir, "roundtrip.yaml")
	require.NoError(t, os.WriteFile(roundtripPath, reserialized, 0o644))

	second, err := Load(roundtripPath)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestQuotaLimitsFallsBackToDefaultsWithoutOverrides(t *testing.T) {
	cfg := Default()
	require.Equal(t, quota.DefaultLimits(), cfg.QuotaLimits())
}

func TestQuotaLimitsAppliesOverrides(t *testing.T) {
	cfg := Default()
	cfg.RateLimitOverrides = []RateLimitOverride{
		{Kind: "REQUEST_WEIGHT", IntervalUnit: "MINUTE", IntervalNum: 1, Limit: 1200},
	}

	limits := cfg.QuotaLimits()
	require.Equal(t, 1200, limits.WeightPerMinute)
	require.Equal(t, quota.DefaultLimits().OrdersPerTenSeconds, limits.OrdersPerTenSeconds)
}

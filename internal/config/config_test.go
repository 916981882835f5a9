package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/mediation-adapter/internal/mediation"
	pkgconfig "github.com/echoface/mediation-adapter/pkg/config"
)

func repoConfDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "conf")
}

func TestLoadShippedConfigs(t *testing.T) {
	for _, runType := range []string{pkgconfig.RunTypeDev, pkgconfig.RunTypeTest, pkgconfig.RunTypeProd} {
		t.Run(runType, func(t *testing.T) {
			cfg, err := Load(pkgconfig.WithConfigDir(repoConfDir(t)), pkgconfig.WithRunType(runType))
			require.NoError(t, err)
			assert.Equal(t, runType, cfg.RunType)
			assert.NotEmpty(t, cfg.EnabledPartners())
			assert.Positive(t, cfg.BidderInfo.Timeout)
		})
	}
}

func TestLoadDevConfig(t *testing.T) {
	cfg, err := Load(pkgconfig.WithConfigDir(repoConfDir(t)), pkgconfig.WithRunType(pkgconfig.RunTypeDev))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.GetAddress())
	assert.Equal(t, "zap", cfg.Logging.Backend)
	require.Len(t, cfg.Partners, 1)

	p := cfg.Partners[0]
	assert.Equal(t, "sim", p.ID)
	assert.Equal(t, "dev-app-0001", p.SetupConfig().Credential("app_id"))
	assert.Equal(t, mediation.AdOptions{Orientation: mediation.OrientationAuto, Muted: true, BackButtonEnabled: true}, p.DefaultOptions)
	assert.Equal(t, 50*time.Millisecond, p.Sim.Latency)
	assert.True(t, p.Sim.DuplicateCallbacks)
}

func TestDefaultsFillMissingKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.yaml"), []byte("port: 9000\n"), 0o644))

	cfg, err := Load(pkgconfig.WithConfigDir(dir), pkgconfig.WithRunType(pkgconfig.RunTypeDev))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.BidderInfo.Timeout)
	assert.Equal(t, 8, cfg.BidderInfo.MaxConcurrency)
	assert.Empty(t, cfg.Partners)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  ServiceConfig
		want string
	}{
		{"empty id", ServiceConfig{Partners: []PartnerConfig{{}}}, "id is empty"},
		{"duplicate id", ServiceConfig{Partners: []PartnerConfig{{ID: "a"}, {ID: "a"}}}, "duplicate id"},
		{"bad orientation", ServiceConfig{Partners: []PartnerConfig{{ID: "a", DefaultOptions: mediation.AdOptions{Orientation: "sideways"}}}}, "unknown orientation"},
		{"negative timeout", ServiceConfig{Partners: []PartnerConfig{{ID: "a", RequestTimeout: -time.Second}}}, "negative request_timeout"},
		{"negative concurrency", ServiceConfig{BidderInfo: BidderInfoConfig{MaxConcurrency: -1}}, "max_concurrency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorContains(t, tc.cfg.Validate(), tc.want)
		})
	}

	ok := ServiceConfig{Partners: []PartnerConfig{{ID: "a", Enabled: true}, {ID: "b"}}}
	assert.NoError(t, ok.Validate())
	assert.Len(t, ok.EnabledPartners(), 1)
}

package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	layered "regharvest/internal/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(layered.NewSource(nil), "LOOKUP")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_PropertiesTierApplies(t *testing.T) {
	source := layered.NewSource(layered.Properties{
		"LOOKUP_OPS_PER_SECOND": "0.5",
		"LOOKUP_TIMEOUT":        "45s",
		"LOOKUP_CHUNK_SIZE":     "1024",
	})

	cfg, err := LoadConfig(source, "LOOKUP")

	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.OpsPerSecond)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 1024, cfg.ChunkSize)
}

func TestLoadConfig_EnvOverridesProperties(t *testing.T) {
	t.Setenv("DOWNLOAD_OPS_PER_SECOND", "4")
	source := layered.NewSource(layered.Properties{
		"DOWNLOAD_OPS_PER_SECOND": "0.25",
		"DOWNLOAD_USER_AGENT":     "props-agent/1.0",
	})

	cfg, err := LoadConfig(source, "DOWNLOAD")

	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.OpsPerSecond)
	// The env var only shadows the key it sets; other keys still resolve
	// from the properties tier.
	assert.Equal(t, "props-agent/1.0", cfg.UserAgent)
}

func TestLoadConfig_PrefixesIndependent(t *testing.T) {
	source := layered.NewSource(layered.Properties{
		"LOOKUP_OPS_PER_SECOND":   "2",
		"DOWNLOAD_OPS_PER_SECOND": "0.5",
	})

	lookupCfg, err := LoadConfig(source, "LOOKUP")
	require.NoError(t, err)
	downloadCfg, err := LoadConfig(source, "DOWNLOAD")
	require.NoError(t, err)

	assert.Equal(t, 2.0, lookupCfg.OpsPerSecond)
	assert.Equal(t, 0.5, downloadCfg.OpsPerSecond)
}

func TestLoadConfig_InvalidValuesAreErrors(t *testing.T) {
	tests := []struct {
		name  string
		props layered.Properties
	}{
		{"unparseable rate", layered.Properties{"FEED_OPS_PER_SECOND": "fast"}},
		{"zero rate", layered.Properties{"FEED_OPS_PER_SECOND": "0"}},
		{"negative rate", layered.Properties{"FEED_OPS_PER_SECOND": "-1"}},
		{"unparseable timeout", layered.Properties{"FEED_TIMEOUT": "soon"}},
		{"negative timeout", layered.Properties{"FEED_TIMEOUT": "-5s"}},
		{"unparseable chunk size", layered.Properties{"FEED_CHUNK_SIZE": "big"}},
		{"zero chunk size", layered.Properties{"FEED_CHUNK_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(layered.NewSource(tt.props), "FEED")
			assert.Error(t, err)
		})
	}
}

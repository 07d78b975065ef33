package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.VisionModel)
	assert.Equal(t, DefaultTopK, cfg.Matching.TopK)
	assert.Equal(t, DefaultMinSimilarity, cfg.Matching.MinSimilarity)
	assert.Equal(t, DefaultFetchTimeout, cfg.Matching.FetchTimeout)
	assert.Equal(t, 512, cfg.CLIP.Dimension)
	assert.Equal(t, 224, cfg.CLIP.ImageSize)
	assert.Equal(t, "in", cfg.SerpAPI.Country)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("MATCH_TOP_K", "8")
	t.Setenv("MATCH_MIN_SIMILARITY", "0.35")
	t.Setenv("MATCH_FETCH_TIMEOUT", "5s")
	t.Setenv("OPENAI_VISION_MODEL", "gpt-4o")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Matching.TopK)
	assert.Equal(t, 0.35, cfg.Matching.MinSimilarity)
	assert.Equal(t, 5*time.Second, cfg.Matching.FetchTimeout)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.VisionModel)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MATCH_TOP_K", "not-a-number")
	t.Setenv("MATCH_FETCH_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, cfg.Matching.TopK)
	assert.Equal(t, DefaultFetchTimeout, cfg.Matching.FetchTimeout)
}

func TestLoadMissingEnvFileIsNotFatal(t *testing.T) {
	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

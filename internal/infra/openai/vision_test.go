package openai

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/look-matcher/internal/core/describe"
	"github.com/jinford/look-matcher/internal/core/look"
)

func TestNewVisionClientRequiresAPIKey(t *testing.T) {
	_, err := NewVisionClientWithAPIKey("")
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestNewVisionClientDefaults(t *testing.T) {
	c, err := NewVisionClientWithAPIKey("test-key")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, c.ModelName())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultMaxTokens, c.maxTokens)
	assert.InDelta(t, DefaultTemperature, c.temperature, 1e-9)
}

func TestNewVisionClientOptions(t *testing.T) {
	c, err := NewVisionClientWithAPIKey("test-key",
		WithModel("gpt-4o"),
		WithTimeout(10*time.Second),
		WithMaxTokens(512),
		WithTemperature(0.7),
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", c.ModelName())
	assert.Equal(t, 10*time.Second, c.timeout)
	assert.Equal(t, 512, c.maxTokens)
	assert.InDelta(t, 0.7, c.temperature, 1e-9)
}

func TestImageContentURLPassesThroughURL(t *testing.T) {
	url, err := imageContentURL(describe.VisionRequest{
		Image: look.FromURL("https://example.com/outfit.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/outfit.jpg", url)
}

func TestImageContentURLEncodesBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	url, err := imageContentURL(describe.VisionRequest{
		Image: look.FromBytes(buf.Bytes()),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestImageContentURLEmptySource(t *testing.T) {
	_, err := imageContentURL(describe.VisionRequest{})
	assert.ErrorIs(t, err, look.ErrEmptyImageSource)
}

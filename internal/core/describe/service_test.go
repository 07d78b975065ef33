package describe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/look-matcher/internal/core/look"
)

type stubVisionClient struct {
	response string
	err      error
	lastReq  VisionRequest
}

func (c *stubVisionClient) CompleteVision(ctx context.Context, req VisionRequest) (string, error) {
	c.lastReq = req
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *stubVisionClient) ModelName() string { return "stub-vision-model" }

const validResponse = `{
  "items": [
    {
      "type": "dress",
      "color": "navy blue",
      "style": "floral print",
      "material": "cotton",
      "features": ["V-neck", "midi length"],
      "search_keywords": "navy blue floral midi dress"
    },
    {
      "type": "sneakers",
      "color": "white",
      "style": "solid",
      "search_keywords": "white platform sneakers women"
    }
  ],
  "overall_style": "casual chic",
  "occasion": "weekend brunch"
}`

func newTestService(client VisionClient) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(client, WithLogger(logger))
}

func TestDescribeParsesValidResponse(t *testing.T) {
	client := &stubVisionClient{response: validResponse}
	svc := newTestService(client)

	analysis, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	require.NoError(t, err)

	require.Len(t, analysis.Items, 2)
	assert.Equal(t, "dress", analysis.Items[0].Type)
	assert.Equal(t, "navy blue floral midi dress", analysis.Items[0].SearchKeywords)
	assert.Equal(t, "casual chic", analysis.OverallStyle)
	assert.Equal(t, "weekend brunch", analysis.Occasion)
	assert.Equal(t, "stub-vision-model", analysis.Model)
	assert.NotEqual(t, analysis.ID.String(), "00000000-0000-0000-0000-000000000000")

	// プロンプトが送信されていること
	assert.Equal(t, AnalysisPrompt, client.lastReq.Prompt)
}

func TestDescribeUnwrapsMarkdownFencedJSON(t *testing.T) {
	client := &stubVisionClient{
		response: "Here is the analysis:\n```json\n" + validResponse + "\n```\nLet me know if you need more.",
	}
	svc := newTestService(client)

	analysis, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	require.NoError(t, err)
	assert.Len(t, analysis.Items, 2)
}

func TestDescribeUnwrapsBareFencedJSON(t *testing.T) {
	client := &stubVisionClient{response: "```\n" + validResponse + "\n```"}
	svc := newTestService(client)

	analysis, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	require.NoError(t, err)
	assert.Len(t, analysis.Items, 2)
}

func TestDescribeMalformedJSONIsParseFailure(t *testing.T) {
	client := &stubVisionClient{response: "I could not find any structured data, sorry."}
	svc := newTestService(client)

	_, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestDescribeMissingItemsArrayIsParseFailure(t *testing.T) {
	client := &stubVisionClient{response: `{"overall_style": "casual"}`}
	svc := newTestService(client)

	_, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestDescribeItemWithoutKeywordsIsParseFailure(t *testing.T) {
	client := &stubVisionClient{response: `{"items": [{"type": "dress", "color": "red", "style": "solid"}]}`}
	svc := newTestService(client)

	_, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestDescribeEmptyItemsIsDistinctFromParseFailure(t *testing.T) {
	client := &stubVisionClient{response: `{"items": [], "overall_style": "n/a"}`}
	svc := newTestService(client)

	_, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	assert.ErrorIs(t, err, ErrNoItems)
	assert.NotErrorIs(t, err, ErrParseFailure)
}

func TestDescribeClientErrorIsWrapped(t *testing.T) {
	apiErr := errors.New("rate limit exceeded")
	client := &stubVisionClient{err: apiErr}
	svc := newTestService(client)

	_, err := svc.Describe(context.Background(), look.FromURL("https://example.com/outfit.jpg"))
	assert.ErrorIs(t, err, apiErr)
}

func TestDescribeEmptyImageSource(t *testing.T) {
	svc := newTestService(&stubVisionClient{response: validResponse})

	_, err := svc.Describe(context.Background(), look.ImageSource{})
	assert.ErrorIs(t, err, look.ErrEmptyImageSource)
}

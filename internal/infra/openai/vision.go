// Package openai はOpenAI APIを使用したVision LLMクライアント実装を提供する
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/look-matcher/internal/core/describe"
)

const (
	// DefaultModel はデフォルトで使用するVisionモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second

	// DefaultMaxTokens はレスポンスの最大トークン数
	DefaultMaxTokens = 2048

	// DefaultTemperature は生成のランダム性。構造化出力のため低めに設定する
	DefaultTemperature = 0.2

	// MaxRetries はレート制限エラー時の最大リトライ回数
	MaxRetries = 3

	// BaseBackoff はExponential Backoffの基底時間
	BaseBackoff = 2 * time.Second

	// MaxBackoff はExponential Backoffの最大待機時間
	MaxBackoff = 32 * time.Second
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set: please set OPENAI_API_KEY environment variable")

	// ErrMaxRetriesExceeded は最大リトライ回数を超過した場合のエラー
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// VisionClient は OpenAI Chat Completions API を使用した Vision クライアント実装
type VisionClient struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// VisionOption は VisionClient 構築時のオプション
type VisionOption func(*VisionClient)

// WithModel は使用するVisionモデルを設定する
func WithModel(model string) VisionOption {
	return func(c *VisionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout はAPIコールのタイムアウトを設定する
func WithTimeout(timeout time.Duration) VisionOption {
	return func(c *VisionClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxTokens はレスポンスの最大トークン数を設定する
func WithMaxTokens(maxTokens int) VisionOption {
	return func(c *VisionClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
	}
}

// WithTemperature は生成のランダム性を設定する
func WithTemperature(temperature float64) VisionOption {
	return func(c *VisionClient) {
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// NewVisionClient は新しい VisionClient を作成する
// APIキーは環境変数 OPENAI_API_KEY から読み込む
func NewVisionClient(opts ...VisionOption) (*VisionClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	return NewVisionClientWithAPIKey(apiKey, opts...)
}

// NewVisionClientWithAPIKey はAPIキーを指定して VisionClient を作成する
func NewVisionClientWithAPIKey(apiKey string, opts ...VisionOption) (*VisionClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	c := &VisionClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       DefaultModel,
		timeout:     DefaultTimeout,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ModelName はモデル名を返す
func (c *VisionClient) ModelName() string {
	return c.model
}

// CompleteVision は画像とプロンプトをVisionモデルに渡してテキストを生成する
func (c *VisionClient) CompleteVision(ctx context.Context, req describe.VisionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	imageURL, err := imageContentURL(req)
	if err != nil {
		return "", err
	}

	return c.completeWithRetry(ctx, req.Prompt, imageURL)
}

func (c *VisionClient) completeWithRetry(ctx context.Context, prompt, imageURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(math.Pow(2, float64(attempt-1))) * BaseBackoff
			if backoffDuration > MaxBackoff {
				backoffDuration = MaxBackoff
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		params := openai.ChatCompletionNewParams{
			Model: shared.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(prompt),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: imageURL,
					}),
				}),
			},
			MaxTokens:   openai.Int(int64(c.maxTokens)),
			Temperature: openai.Float(c.temperature),
		}

		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err

			if isRateLimitError(err) {
				continue
			}

			return "", fmt.Errorf("OpenAI API call failed: %w", err)
		}

		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("no completion choices returned")
		}

		return completion.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// imageContentURL は画像ソースをChat APIのimage_urlとして渡せる文字列へ変換する。
// URLはそのまま、バイト列はbase64のdata URLにする。
func imageContentURL(req describe.VisionRequest) (string, error) {
	if err := req.Image.Validate(); err != nil {
		return "", err
	}

	if req.Image.IsURL() {
		return req.Image.URL, nil
	}

	mimeType := http.DetectContentType(req.Image.Data)
	encoded := base64.StdEncoding.EncodeToString(req.Image.Data)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}

	return false
}

// インターフェース実装の確認
var _ describe.VisionClient = (*VisionClient)(nil)

package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jinford/look-matcher/internal/core/look"
)

// VisionRequest はVision LLMへの1回の解析リクエストを表す
type VisionRequest struct {
	Image  look.ImageSource
	Prompt string
}

// VisionClient は画像付きプロンプトを送信して応答テキストを受け取るインターフェース
type VisionClient interface {
	CompleteVision(ctx context.Context, req VisionRequest) (string, error)
	ModelName() string
}

// Service は画像解析のビジネスロジックを提供する
type Service struct {
	client VisionClient
	logger *slog.Logger
}

// ServiceOption は Service 構築時のオプション
type ServiceOption func(*Service)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService は新しい Service を作成する
func NewService(client VisionClient, opts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rawAnalysis はLLM応答のデコード用中間構造体
type rawAnalysis struct {
	Items        []Item `json:"items"`
	OverallStyle string `json:"overall_style"`
	Occasion     string `json:"occasion"`
}

// Describe は画像を解析してファッションアイテムのリストを返す。
// LLM応答が期待するJSON構造に適合しない場合はErrParseFailureを返す。
func (s *Service) Describe(ctx context.Context, img look.ImageSource) (*Analysis, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	response, err := s.client.CompleteVision(ctx, VisionRequest{
		Image:  img,
		Prompt: AnalysisPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}

	analysis, err := parseAnalysis(response)
	if err != nil {
		s.logger.Warn("Vision応答の解析に失敗", "error", err, "responseLength", len(response))
		return nil, err
	}

	analysis.ID = uuid.New()
	analysis.Model = s.client.ModelName()

	s.logger.Info("画像解析が完了",
		"analysisID", analysis.ID,
		"items", len(analysis.Items),
	)

	return analysis, nil
}

// parseAnalysis は応答テキストからJSONを取り出して検証する
func parseAnalysis(response string) (*Analysis, error) {
	jsonStr := extractJSON(response)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	if raw.Items == nil {
		return nil, fmt.Errorf("%w: missing items array", ErrParseFailure)
	}
	for i, item := range raw.Items {
		if item.Type == "" {
			return nil, fmt.Errorf("%w: item %d has no type", ErrParseFailure, i)
		}
		if item.SearchKeywords == "" {
			return nil, fmt.Errorf("%w: item %d has no search_keywords", ErrParseFailure, i)
		}
	}

	if len(raw.Items) == 0 {
		return nil, ErrNoItems
	}

	return &Analysis{
		Items:        raw.Items,
		OverallStyle: raw.OverallStyle,
		Occasion:     raw.Occasion,
	}, nil
}

// extractJSON はマークダウンのコードフェンスに包まれたJSONを取り出す。
// LLMは ```json ... ``` の形式で応答を返すことがある。
func extractJSON(response string) string {
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(response, "```"); idx >= 0 {
		rest := response[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(response)
}

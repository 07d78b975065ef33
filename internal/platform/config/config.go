package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// OpenAI設定（画像解析用Vision LLM）
	OpenAI OpenAIConfig

	// SerpAPI設定（商品検索用）
	SerpAPI SerpAPIConfig

	// CLIP設定（画像Embedding用）
	CLIP CLIPConfig

	// マッチング設定
	Matching MatchingConfig

	// ログ設定
	LogLevel  string
	LogFormat string
}

// OpenAIConfig はOpenAI API設定（Vision解析用）
type OpenAIConfig struct {
	APIKey      string
	VisionModel string // 画像解析に使用するモデル名
	MaxTokens   int
	Temperature float64
}

// SerpAPIConfig はSerpAPI設定
type SerpAPIConfig struct {
	APIKey  string
	BaseURL string        // テスト時の差し替え用
	Timeout time.Duration // 検索API呼び出しのタイムアウト
	Country string        // 検索結果の地域バイアス（glパラメータ）
}

// CLIPConfig はCLIP ONNXモデル設定
type CLIPConfig struct {
	// OrtLibraryPath はONNX Runtime共有ライブラリのパス（空の場合はシステムデフォルト）
	OrtLibraryPath string
	// VisualModelPath は画像エンコーダのONNXモデルパス
	VisualModelPath string
	// TextModelPath はテキストエンコーダのONNXモデルパス（省略可）
	TextModelPath string
	// TokenizerPath はtokenizer.jsonのパス（テキストエンコーダ使用時に必須）
	TokenizerPath string
	// Dimension はEmbeddingベクトルの次元数
	Dimension int
	// ImageSize はモデル入力の一辺のピクセル数
	ImageSize int
	// MaxSeqLen はテキストエンコーダの最大トークン長
	MaxSeqLen int
}

// MatchingConfig は類似度マッチングの調整パラメータ
type MatchingConfig struct {
	// TopK は返却する上位マッチ数
	TopK int
	// MinSimilarity は採用する最小類似度スコア
	MinSimilarity float64
	// FetchTimeout は候補画像1枚あたりの取得タイムアウト
	FetchTimeout time.Duration
	// MaxConcurrency は候補画像の並列取得・Embedding数
	MaxConcurrency int
	// MaxResults は検索APIから取得する候補数の上限
	MaxResults int
}

const (
	// DefaultTopK は上位マッチ数のデフォルト値
	DefaultTopK = 5
	// DefaultMinSimilarity は最小類似度スコアのデフォルト値
	DefaultMinSimilarity = 0.2
	// DefaultFetchTimeout は画像取得タイムアウトのデフォルト値
	DefaultFetchTimeout = 10 * time.Second
	// DefaultMaxConcurrency は並列実行数のデフォルト値
	DefaultMaxConcurrency = 4
	// DefaultMaxResults は検索候補数のデフォルト値
	DefaultMaxResults = 15
)

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 2048),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.2),
		},
		SerpAPI: SerpAPIConfig{
			APIKey:  getEnv("SERPAPI_API_KEY", ""),
			BaseURL: getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),
			Timeout: getEnvAsDuration("SERPAPI_TIMEOUT", 30*time.Second),
			Country: getEnv("SERPAPI_COUNTRY", "in"),
		},
		CLIP: CLIPConfig{
			OrtLibraryPath:  getEnv("CLIP_ORT_LIBRARY_PATH", ""),
			VisualModelPath: getEnv("CLIP_VISUAL_MODEL_PATH", "models/clip-vit-b-32-visual.onnx"),
			TextModelPath:   getEnv("CLIP_TEXT_MODEL_PATH", ""),
			TokenizerPath:   getEnv("CLIP_TOKENIZER_PATH", ""),
			Dimension:       getEnvAsInt("CLIP_DIMENSION", 512),
			ImageSize:       getEnvAsInt("CLIP_IMAGE_SIZE", 224),
			MaxSeqLen:       getEnvAsInt("CLIP_MAX_SEQ_LEN", 77),
		},
		Matching: MatchingConfig{
			TopK:           getEnvAsInt("MATCH_TOP_K", DefaultTopK),
			MinSimilarity:  getEnvAsFloat("MATCH_MIN_SIMILARITY", DefaultMinSimilarity),
			FetchTimeout:   getEnvAsDuration("MATCH_FETCH_TIMEOUT", DefaultFetchTimeout),
			MaxConcurrency: getEnvAsInt("MATCH_MAX_CONCURRENCY", DefaultMaxConcurrency),
			MaxResults:     getEnvAsInt("MATCH_MAX_RESULTS", DefaultMaxResults),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数をtime.Durationとして取得します（例: "10s", "1m"）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

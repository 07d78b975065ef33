// Package clip はCLIP ONNXモデルによる画像・テキストEmbedding生成を提供する
package clip

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// DefaultDimension はCLIP ViT-B/32のEmbedding次元数
	DefaultDimension = 512
	// DefaultImageSize はCLIP ViT-B/32の入力画像サイズ
	DefaultImageSize = 224
	// DefaultMaxSeqLen はCLIPテキストエンコーダの最大トークン長
	DefaultMaxSeqLen = 77
)

// ortEnvOnce はプロセス全体で一度だけONNX Runtime環境を初期化する
var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

func initORT(libraryPath string) error {
	ortEnvOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Config はエンコーダの構成を表す
type Config struct {
	// OrtLibraryPath はONNX Runtime共有ライブラリのパス（空の場合はシステムデフォルト）
	OrtLibraryPath string
	// VisualModelPath は画像エンコーダのONNXモデルパス
	VisualModelPath string
	// TextModelPath はテキストエンコーダのONNXモデルパス（省略時はテキストEmbedding不可）
	TextModelPath string
	// TokenizerPath はtokenizer.jsonのパス
	TokenizerPath string
	// Dimension はEmbeddingベクトルの次元数
	Dimension int
	// ImageSize はモデル入力の一辺のピクセル数
	ImageSize int
	// MaxSeqLen はテキストエンコーダの最大トークン長
	MaxSeqLen int
}

// Encoder はCLIP ONNXモデルのラッパー。
// 画像とテキストを同一の埋め込み空間のベクトルへ変換する。
type Encoder struct {
	cfg     Config
	modelID string

	mu         sync.Mutex
	visualSess *ort.DynamicAdvancedSession
	textEnc    *textEncoder

	cache *embedCache
}

// NewEncoder はONNXモデルを読み込んでエンコーダを初期化する
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.VisualModelPath == "" {
		return nil, fmt.Errorf("visual model path is required")
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = DefaultImageSize
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = DefaultMaxSeqLen
	}

	if err := initORT(cfg.OrtLibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	visualSess, err := ort.NewDynamicAdvancedSession(
		cfg.VisualModelPath,
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load visual model: %w", err)
	}

	enc := &Encoder{
		cfg:        cfg,
		modelID:    filepath.Base(cfg.VisualModelPath),
		visualSess: visualSess,
		cache:      newEmbedCache(),
	}

	if cfg.TextModelPath != "" {
		textEnc, err := newTextEncoder(cfg)
		if err != nil {
			visualSess.Destroy()
			return nil, err
		}
		enc.textEnc = textEnc
	}

	return enc, nil
}

// ModelID はキャッシュキーや互換性確認に使うモデル識別子を返す
func (e *Encoder) ModelID() string {
	return e.modelID
}

// Dimension はEmbeddingベクトルの次元数を返す
func (e *Encoder) Dimension() int {
	return e.cfg.Dimension
}

// EncodeImage は1枚の画像からEmbeddingベクトルを生成する
func (e *Encoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	vectors, err := e.EncodeImages(ctx, []image.Image{img})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeImages は複数画像を1回の推論でまとめてEmbeddingへ変換する。
// 結果は1枚ずつEncodeImageを呼んだ場合と機能的に等価で、レイテンシのみが異なる。
func (e *Encoder) EncodeImages(ctx context.Context, imgs []image.Image) ([][]float32, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("no images provided")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := e.cfg.ImageSize

	// 前処理とキャッシュ確認。キャッシュ未登録の画像だけ推論対象にする。
	vectors := make([][]float32, len(imgs))
	keys := make([]string, len(imgs))
	var pending []int
	var batch []float32

	for i, img := range imgs {
		tensor, err := Preprocess(img, size)
		if err != nil {
			return nil, fmt.Errorf("failed to preprocess image %d: %w", i, err)
		}
		keys[i] = e.cache.key(e.modelID, tensor)
		if cached, ok := e.cache.get(keys[i]); ok {
			vectors[i] = cached
			continue
		}
		pending = append(pending, i)
		batch = append(batch, tensor...)
	}

	if len(pending) == 0 {
		return vectors, nil
	}

	inputShape := ort.NewShape(int64(len(pending)), 3, int64(size), int64(size))
	inputTensor, err := ort.NewTensor(inputShape, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}

	e.mu.Lock()
	runErr := e.visualSess.Run([]ort.Value{inputTensor}, outputs)
	e.mu.Unlock()
	if runErr != nil {
		return nil, fmt.Errorf("visual model inference failed: %w", runErr)
	}

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer outputTensor.Destroy()

	data := outputTensor.GetData()
	dim := e.cfg.Dimension
	if len(data) != len(pending)*dim {
		return nil, fmt.Errorf("unexpected output length %d (want %d)", len(data), len(pending)*dim)
	}

	for n, i := range pending {
		vector := make([]float32, dim)
		copy(vector, data[n*dim:(n+1)*dim])
		vectors[i] = vector
		e.cache.put(keys[i], vector)
	}

	return vectors, nil
}

// EncodeText はテキストからEmbeddingベクトルを生成する。
// テキストエンコーダが構成されていない場合はエラーを返す。
func (e *Encoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	if e.textEnc == nil {
		return nil, fmt.Errorf("text encoder is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.textEnc.encode(text)
}

// Close はONNXセッションとランタイムリソースを解放する
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.visualSess != nil {
		e.visualSess.Destroy()
		e.visualSess = nil
	}
	if e.textEnc != nil {
		e.textEnc.close()
		e.textEnc = nil
	}
	return nil
}

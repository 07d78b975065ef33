package match

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/jinford/look-matcher/internal/core/look"
)

// Fetcher は画像の取得とデコードのインターフェース
type Fetcher interface {
	// Fetch はURLまたは生バイト列から画像を取得してデコードする
	Fetch(ctx context.Context, src look.ImageSource) (image.Image, error)
}

// Encoder は画像のEmbedding生成インターフェース。
// 問い合わせ画像と候補画像で同一の前処理・同一のモデルが適用される。
type Encoder interface {
	// EncodeImage は画像からEmbeddingベクトルを生成する
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
}

// Options は1回のマッチング操作の調整パラメータを表す
type Options struct {
	// TopK は返却する上位マッチ数。0の場合はサービスのデフォルト値を使用する。
	TopK int
	// MinSimilarity は採用する最小類似度スコア。未指定の場合はデフォルト値を使用する。
	MinSimilarity mo.Option[float64]
}

const (
	defaultTopK           = 5
	defaultMinSimilarity  = 0.2
	defaultMaxConcurrency = 4
)

// Service は候補画像の取得・Embedding・ランキングを統括する
type Service struct {
	fetcher        Fetcher
	encoder        Encoder
	maxConcurrency int
	topK           int
	minSimilarity  float64
	logger         *slog.Logger
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

// WithMaxConcurrency は候補画像の並列処理数を設定する
func WithMaxConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithDefaultTopK はtop_kのデフォルト値を上書きする
func WithDefaultTopK(k int) ServiceOption {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithDefaultMinSimilarity はmin_similarityのデフォルト値を上書きする
func WithDefaultMinSimilarity(min float64) ServiceOption {
	return func(s *Service) {
		s.minSimilarity = min
	}
}

// NewService は新しい Service を作成する
func NewService(fetcher Fetcher, encoder Encoder, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher:        fetcher,
		encoder:        encoder,
		maxConcurrency: defaultMaxConcurrency,
		topK:           defaultTopK,
		minSimilarity:  defaultMinSimilarity,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetchMemo は1回のマッチング操作内で同一URLの再取得を防ぐ
type fetchMemo struct {
	mu      sync.Mutex
	entries map[string]*memoEntry
}

type memoEntry struct {
	once sync.Once
	img  image.Image
	err  error
}

func newFetchMemo() *fetchMemo {
	return &fetchMemo{entries: make(map[string]*memoEntry)}
}

func (m *fetchMemo) fetch(ctx context.Context, f Fetcher, url string) (image.Image, error) {
	m.mu.Lock()
	entry, ok := m.entries[url]
	if !ok {
		entry = &memoEntry{}
		m.entries[url] = entry
	}
	m.mu.Unlock()

	entry.once.Do(func() {
		entry.img, entry.err = f.Fetch(ctx, look.FromURL(url))
	})
	return entry.img, entry.err
}

// MatchLook は問い合わせ画像と候補リストの類似度ランキングを実行する。
//
// 候補ごとの画像取得とEmbedding生成は独立しているため並列実行されるが、
// 最終結果のソートと同点時の順序は完了順ではなく元の候補リスト順に基づく。
// 候補側の失敗はResult.Failuresに収集され、バッチ全体は中断されない。
// 問い合わせ画像側の失敗のみがエラーとして返される。
func (s *Service) MatchLook(ctx context.Context, query look.ImageSource, candidates []Candidate, opts Options) (*Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	topK := opts.TopK
	if topK == 0 {
		topK = s.topK
	}
	if topK < 0 {
		return nil, ErrInvalidTopK
	}
	minSimilarity := opts.MinSimilarity.OrElse(s.minSimilarity)
	if minSimilarity < -1 || minSimilarity > 1 {
		return nil, ErrInvalidMinSimilarity
	}

	// 問い合わせ画像のEmbedding生成。失敗した場合は比較の基準が失われるため致命的。
	queryVector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryImage, err)
	}

	// 候補ごとの取得・Embeddingを並列実行する。
	// 元の候補リスト順を保つため、結果はインデックスで固定したスライスに書き込む。
	vectors := make([][]float32, len(candidates))
	failures := make([]*CandidateFailure, len(candidates))
	memo := newFetchMemo()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, candidate := range candidates {
		g.Go(func() error {
			if candidate.ImageURL == "" {
				failures[i] = &CandidateFailure{
					Candidate: candidate,
					Stage:     StageFetch,
					Reason:    "candidate has no image URL",
				}
				return nil
			}

			img, err := memo.fetch(gctx, s.fetcher, candidate.ImageURL)
			if err != nil {
				failures[i] = &CandidateFailure{
					Candidate: candidate,
					Stage:     StageFetch,
					Reason:    err.Error(),
				}
				return nil
			}

			vector, err := s.encoder.EncodeImage(gctx, img)
			if err != nil {
				failures[i] = &CandidateFailure{
					Candidate: candidate,
					Stage:     StageEmbed,
					Reason:    err.Error(),
				}
				return nil
			}

			vectors[i] = vector
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// 呼び出し元によるキャンセル時は部分的な結果を破棄する
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedded := make([]Embedded, 0, len(candidates))
	result := &Result{}
	for i, candidate := range candidates {
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
			continue
		}
		embedded = append(embedded, Embedded{Candidate: candidate, Vector: vectors[i]})
	}

	matches, err := Rank(queryVector, embedded, topK, minSimilarity)
	if err != nil {
		return nil, err
	}
	result.Matches = matches

	s.logger.Debug("候補画像のランキングが完了",
		"candidates", len(candidates),
		"matched", len(result.Matches),
		"failed", len(result.Failures),
	)

	return result, nil
}

// Compare は2枚の画像の類似度スコアを計算する
func (s *Service) Compare(ctx context.Context, a, b look.ImageSource) (float64, error) {
	vecA, err := s.embedQuery(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("failed to embed first image: %w", err)
	}
	vecB, err := s.embedQuery(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("failed to embed second image: %w", err)
	}
	return Cosine(vecA, vecB), nil
}

func (s *Service) embedQuery(ctx context.Context, src look.ImageSource) ([]float32, error) {
	img, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.encoder.EncodeImage(ctx, img)
}

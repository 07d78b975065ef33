package match

import "errors"

var (
	// ErrInvalidTopK はtop_kが負数の場合のエラー
	ErrInvalidTopK = errors.New("top_k must not be negative")

	// ErrInvalidMinSimilarity はmin_similarityが[-1, 1]の範囲外の場合のエラー
	ErrInvalidMinSimilarity = errors.New("min_similarity must be within [-1, 1]")

	// ErrQueryImage は問い合わせ画像の取得・Embedding生成に失敗した場合のエラー。
	// 候補側の失敗と異なり、比較の基準が失われるためバッチ全体が中断される。
	ErrQueryImage = errors.New("failed to prepare query image embedding")
)

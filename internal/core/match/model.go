// Package match は問い合わせ画像と候補商品画像の視覚的類似度マッチングを提供する
package match

import (
	"github.com/samber/mo"
)

// Candidate は検索コラボレータが提案した商品候補を表す
type Candidate struct {
	// Platform は出典プラットフォーム名（例: "Amazon India", "Myntra"）
	Platform string `json:"platform"`
	// Title は商品タイトル
	Title string `json:"title"`
	// ProductURL は商品ページのURL
	ProductURL string `json:"productURL"`
	// ImageURL は商品画像（サムネイル）のURL
	ImageURL string `json:"imageURL"`
	// Price は価格表示（検索結果に含まれない場合がある）
	Price mo.Option[string] `json:"price,omitempty"`
}

// Embedded はEmbedding済みの候補を表す。
// Vectorは問い合わせ画像と同一のモデル・バージョンで生成されていなければならない。
type Embedded struct {
	Candidate Candidate
	Vector    []float32
}

// Match は類似度スコア付きの候補を表す
type Match struct {
	Candidate Candidate `json:"candidate"`
	// Score はコサイン類似度（[-1, 1]、通常は[0, 1]）
	Score float64 `json:"score"`
}

// FailureStage は候補処理が失敗した段階を表す
type FailureStage string

const (
	// StageFetch は画像取得段階の失敗
	StageFetch FailureStage = "fetch"
	// StageEmbed はEmbedding生成段階の失敗
	StageEmbed FailureStage = "embed"
)

// CandidateFailure は1候補の処理失敗を表す。
// バッチ全体を中断せず、結果と併せて呼び出し元へ返される。
type CandidateFailure struct {
	Candidate Candidate    `json:"candidate"`
	Stage     FailureStage `json:"stage"`
	Reason    string       `json:"reason"`
}

// Result はランキング結果と候補ごとの失敗をまとめる
type Result struct {
	// Matches はスコア降順のマッチリスト（長さ <= top_k）
	Matches []Match `json:"matches"`
	// Failures は除外された候補とその理由
	Failures []CandidateFailure `json:"failures,omitempty"`
}

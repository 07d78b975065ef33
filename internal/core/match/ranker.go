package match

import (
	"math"
	"sort"
)

// Cosine は2つのベクトルのコサイン類似度を計算する。
// どちらかのベクトルの大きさがゼロの場合、類似度は0と定義する（ゼロ除算エラーにはしない）。
// 次元数が一致しないベクトルは比較不能なので同様に0を返す。
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank は問い合わせベクトルと候補ベクトルの類似度ランキングを計算する。
//
// アルゴリズム:
//  1. 各候補についてコサイン類似度を入力順に計算する
//  2. minSimilarity未満の候補を除外する
//  3. スコア降順にソートする（同点は入力順を維持する安定ソート）
//  4. 先頭topK件に切り詰める
//
// 候補リストが空、またはtopKが0の場合は空の結果を返す（エラーではない）。
// 入力を変更しない純粋関数であり、I/Oも行わない。
func Rank(query []float32, candidates []Embedded, topK int, minSimilarity float64) ([]Match, error) {
	if topK < 0 {
		return nil, ErrInvalidTopK
	}
	if minSimilarity < -1 || minSimilarity > 1 {
		return nil, ErrInvalidMinSimilarity
	}

	if topK == 0 || len(candidates) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := Cosine(query, c.Vector)
		if score < minSimilarity {
			continue
		}
		matches = append(matches, Match{
			Candidate: c.Candidate,
			Score:     score,
		})
	}

	// 安定ソートにより同点スコアは元の候補順を保つ
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

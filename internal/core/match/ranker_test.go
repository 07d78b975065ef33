package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateNamed(title string) Candidate {
	return Candidate{
		Platform:   "Amazon India",
		Title:      title,
		ProductURL: "https://www.amazon.in/dp/" + title,
		ImageURL:   "https://img.example.com/" + title + ".jpg",
	}
}

func TestCosineSymmetry(t *testing.T) {
	a := []float32{0.3, -0.5, 0.8}
	b := []float32{0.1, 0.9, -0.2}

	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosineSelfIdentity(t *testing.T) {
	a := []float32{0.3, -0.5, 0.8}

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
}

func TestCosineZeroMagnitudeIsZero(t *testing.T) {
	a := []float32{1, 0}
	zero := []float32{0, 0}

	assert.Equal(t, 0.0, Cosine(a, zero))
	assert.Equal(t, 0.0, Cosine(zero, a))
	assert.Equal(t, 0.0, Cosine(zero, zero))
}

func TestCosineDimensionMismatchIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
}

func TestRankScenario(t *testing.T) {
	// 問い合わせ [1,0] に対して A=[1,0], B=[0,1], C=[0.9,0.1]
	query := []float32{1, 0}
	candidates := []Embedded{
		{Candidate: candidateNamed("A"), Vector: []float32{1, 0}},
		{Candidate: candidateNamed("B"), Vector: []float32{0, 1}},
		{Candidate: candidateNamed("C"), Vector: []float32{0.9, 0.1}},
	}

	matches, err := Rank(query, candidates, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "A", matches[0].Candidate.Title)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	assert.Equal(t, "C", matches[1].Candidate.Title)
	assert.InDelta(t, 0.9/math.Sqrt(0.81+0.01), matches[1].Score, 1e-9)

	// B はスコア0.0でしきい値0.5未満のため除外される
	for _, m := range matches {
		assert.NotEqual(t, "B", m.Candidate.Title)
	}
}

func TestRankResultIsSortedDescending(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Embedded{
		{Candidate: candidateNamed("low"), Vector: []float32{0.2, 1, 0}},
		{Candidate: candidateNamed("high"), Vector: []float32{1, 0.01, 0}},
		{Candidate: candidateNamed("mid"), Vector: []float32{0.7, 0.7, 0}},
	}

	matches, err := Rank(query, candidates, 10, -1)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	for i := 0; i+1 < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i].Score, matches[i+1].Score)
	}
	assert.Equal(t, "high", matches[0].Candidate.Title)
	assert.Equal(t, "low", matches[2].Candidate.Title)
}

func TestRankTieBreakIsStableByInputOrder(t *testing.T) {
	query := []float32{1, 0}
	// first と second は完全に同一のベクトルを持つ
	candidates := []Embedded{
		{Candidate: candidateNamed("first"), Vector: []float32{0.5, 0.5}},
		{Candidate: candidateNamed("second"), Vector: []float32{0.5, 0.5}},
		{Candidate: candidateNamed("best"), Vector: []float32{1, 0}},
	}

	matches, err := Rank(query, candidates, 3, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "best", matches[0].Candidate.Title)
	assert.Equal(t, "first", matches[1].Candidate.Title)
	assert.Equal(t, "second", matches[2].Candidate.Title)
}

func TestRankResultLengthBound(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Embedded{
		{Candidate: candidateNamed("a"), Vector: []float32{1, 0}},
		{Candidate: candidateNamed("b"), Vector: []float32{0.9, 0.1}},
		{Candidate: candidateNamed("c"), Vector: []float32{0, 1}},
	}

	matches, err := Rank(query, candidates, 2, 0.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)

	// しきい値を満たす候補が top_k 未満の場合はその数まで
	matches, err = Rank(query, candidates, 10, 0.5)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRankIdempotent(t *testing.T) {
	query := []float32{0.6, 0.8}
	candidates := []Embedded{
		{Candidate: candidateNamed("a"), Vector: []float32{0.8, 0.6}},
		{Candidate: candidateNamed("b"), Vector: []float32{0.6, 0.8}},
	}

	first, err := Rank(query, candidates, 5, 0.2)
	require.NoError(t, err)
	second, err := Rank(query, candidates, 5, 0.2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRankEmptyCandidatesIsNotAnError(t *testing.T) {
	matches, err := Rank([]float32{1, 0}, nil, 5, 0.2)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankTopKZeroReturnsEmpty(t *testing.T) {
	candidates := []Embedded{
		{Candidate: candidateNamed("a"), Vector: []float32{1, 0}},
	}

	matches, err := Rank([]float32{1, 0}, candidates, 0, 0.2)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankAllBelowThresholdReturnsEmpty(t *testing.T) {
	candidates := []Embedded{
		{Candidate: candidateNamed("a"), Vector: []float32{0, 1}},
		{Candidate: candidateNamed("b"), Vector: []float32{-1, 0}},
	}

	matches, err := Rank([]float32{1, 0}, candidates, 5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankInvalidParameters(t *testing.T) {
	candidates := []Embedded{
		{Candidate: candidateNamed("a"), Vector: []float32{1, 0}},
	}

	_, err := Rank([]float32{1, 0}, candidates, -1, 0.2)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = Rank([]float32{1, 0}, candidates, 5, 1.5)
	assert.ErrorIs(t, err, ErrInvalidMinSimilarity)

	_, err = Rank([]float32{1, 0}, candidates, 5, -1.5)
	assert.ErrorIs(t, err, ErrInvalidMinSimilarity)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Embedded{
		{Candidate: candidateNamed("b"), Vector: []float32{0.5, 0.5}},
		{Candidate: candidateNamed("a"), Vector: []float32{1, 0}},
	}

	_, err := Rank(query, candidates, 5, 0)
	require.NoError(t, err)

	assert.Equal(t, "b", candidates[0].Candidate.Title)
	assert.Equal(t, "a", candidates[1].Candidate.Title)
	assert.Equal(t, []float32{1, 0}, query)
}

package clip

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPreprocessOutputLayout(t *testing.T) {
	img := solidImage(640, 480, color.RGBA{R: 255, A: 255})

	data, err := Preprocess(img, 224)
	require.NoError(t, err)

	assert.Len(t, data, 3*224*224)
}

func TestPreprocessNormalizesChannels(t *testing.T) {
	// 白一色の画像ではチャネルごとに (1 - mean) / std の一定値になる
	img := solidImage(300, 300, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	data, err := Preprocess(img, 224)
	require.NoError(t, err)

	plane := 224 * 224
	assert.InDelta(t, (1.0-normMean[0])/normStd[0], data[0], 1e-3)
	assert.InDelta(t, (1.0-normMean[1])/normStd[1], data[plane], 1e-3)
	assert.InDelta(t, (1.0-normMean[2])/normStd[2], data[2*plane], 1e-3)
}

func TestPreprocessDeterministic(t *testing.T) {
	img := solidImage(500, 300, color.RGBA{R: 120, G: 80, B: 200, A: 255})

	first, err := Preprocess(img, 224)
	require.NoError(t, err)
	second, err := Preprocess(img, 224)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPreprocessSmallerThanTarget(t *testing.T) {
	// 入力がターゲットより小さくても拡大されて正しい形状になる
	img := solidImage(50, 30, color.RGBA{G: 128, A: 255})

	data, err := Preprocess(img, 224)
	require.NoError(t, err)
	assert.Len(t, data, 3*224*224)
}

func TestPreprocessInvalidInput(t *testing.T) {
	_, err := Preprocess(nil, 224)
	assert.Error(t, err)

	_, err = Preprocess(image.NewRGBA(image.Rect(0, 0, 0, 0)), 224)
	assert.Error(t, err)

	_, err = Preprocess(solidImage(10, 10, color.RGBA{A: 255}), 0)
	assert.Error(t, err)
}

func TestEmbedCacheRoundTrip(t *testing.T) {
	cache := newEmbedCache()

	tensor := []float32{0.1, 0.2, 0.3}
	key := cache.key("clip-vit-b-32-visual.onnx", tensor)

	_, ok := cache.get(key)
	assert.False(t, ok)

	vector := []float32{1, 2, 3}
	cache.put(key, vector)

	got, ok := cache.get(key)
	require.True(t, ok)
	assert.Equal(t, vector, got)
}

func TestEmbedCacheKeyDependsOnModelAndData(t *testing.T) {
	cache := newEmbedCache()
	tensor := []float32{0.5, 0.25}

	assert.Equal(t, cache.key("m1", tensor), cache.key("m1", tensor))
	assert.NotEqual(t, cache.key("m1", tensor), cache.key("m2", tensor))
	assert.NotEqual(t, cache.key("m1", tensor), cache.key("m1", []float32{0.5, 0.26}))
}

func TestEmbedCacheEvictsOldestAtCapacity(t *testing.T) {
	cache := newEmbedCache()

	firstKey := cache.key("m", []float32{0})
	cache.put(firstKey, []float32{0})

	for i := 1; i <= maxCacheEntries; i++ {
		key := cache.key("m", []float32{float32(i)})
		cache.put(key, []float32{float32(i)})
	}

	assert.Equal(t, maxCacheEntries, cache.len())

	// 最初に登録したエントリが追い出され、最新のエントリは残る
	_, ok := cache.get(firstKey)
	assert.False(t, ok)

	lastKey := cache.key("m", []float32{float32(maxCacheEntries)})
	_, ok = cache.get(lastKey)
	assert.True(t, ok)
}

func TestPadTokensTruncatesAndPads(t *testing.T) {
	enc := &textEncoder{maxSeqLen: 4}

	ids, mask := enc.padTokens([]int{10, 20})
	assert.Equal(t, []int64{10, 20, 0, 0}, ids)
	assert.Equal(t, []int64{1, 1, 0, 0}, mask)

	ids, mask = enc.padTokens([]int{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1}, mask)
}

package clip

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
)

// maxCacheEntries はキャッシュの保持件数の上限。
// サーバ稼働時にリクエストをまたいで無制限に成長しないようにする。
const maxCacheEntries = 1024

// embedCache は前処理済みテンソルの内容をキーとするEmbeddingのメモリキャッシュ。
// 同一のランキング操作内で同じ画像が複数候補に現れた場合の再推論を防ぐ。
// 上限に達した場合は古いエントリから破棄する。
type embedCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
	order   []string
}

func newEmbedCache() *embedCache {
	return &embedCache{entries: make(map[string][]float32)}
}

// key はテンソル内容とモデルIDからキャッシュキーを生成する
func (c *embedCache) key(modelID string, data []float32) string {
	h := sha1.New()
	h.Write([]byte(modelID))
	var buf [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *embedCache) get(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *embedCache) put(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = vector
		return
	}

	for len(c.entries) >= maxCacheEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = vector
	c.order = append(c.order, key)
}

func (c *embedCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package imgfetch はURLまたはバイト列からの画像取得とデコードを提供する
package imgfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// デコード対象の画像フォーマットを登録する
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/jinford/look-matcher/internal/core/look"
)

const (
	// DefaultTimeout は1回の画像取得のデフォルトタイムアウト
	DefaultTimeout = 10 * time.Second

	// defaultUserAgent は一部のCDNがボットUAを拒否するため、一般的なブラウザUAを名乗る
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxBodySize はデコード対象として読み込む最大バイト数
	maxBodySize = 20 << 20 // 20MiB
)

// Fetcher は画像の取得とデコードを行う
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option は Fetcher 構築時のオプション
type Option func(*Fetcher)

// WithTimeout は1回の取得あたりのタイムアウトを設定する
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithHTTPClient はHTTPクライアントを差し替える
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher は新しい Fetcher を作成する
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch はURLまたは生バイト列から画像を取得してデコードする。
// ネットワークエラー・タイムアウト・非2xx応答・デコード失敗はそれぞれ
// 区別可能なエラーとして返され、呼び出し元が候補単位で回復できる。
func (f *Fetcher) Fetch(ctx context.Context, src look.ImageSource) (image.Image, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	data := src.Data
	if src.IsURL() {
		fetched, err := f.download(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		data = fetched
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-dimension image", ErrDecodeFailed)
	}

	return img, nil
}

// download は1回の取得あたりのタイムアウト付きで画像バイト列を取得する
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d %s", ErrBadStatus, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	return data, nil
}

// Package serpapi はSerpAPI経由のGoogle Lens・Googleショッピング検索クライアントを提供する
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/mo"

	"github.com/jinford/look-matcher/internal/core/catalog"
)

const (
	// DefaultBaseURL はSerpAPIのエンドポイント
	DefaultBaseURL = "https://serpapi.com"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 30 * time.Second

	// DefaultCountry は検索対象の国コード
	DefaultCountry = "in"
)

// Client は SerpAPI を使用した catalog.Searcher 実装
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	timeout    time.Duration
	country    string
}

// Option は Client 構築時のオプション
type Option func(*Client)

// WithHTTPClient はHTTPクライアントを差し替える
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL はAPIのエンドポイントを差し替える
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithTimeout はAPI呼び出しのタイムアウトを設定する
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCountry は検索対象の国コードを設定する
func WithCountry(country string) Option {
	return func(c *Client) {
		if country != "" {
			c.country = country
		}
	}
}

// NewClient は新しい Client を作成する。
// APIキーが空でもエラーにはせず、検索時にcatalog.ErrUnavailableを返す。
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		country:    DefaultCountry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse はSerpAPIレスポンスのうち本実装が参照する部分
type searchResponse struct {
	Error           string          `json:"error"`
	VisualMatches   []visualMatch   `json:"visual_matches"`
	ShoppingResults []shoppingEntry `json:"shopping_results"`
}

type visualMatch struct {
	Title     string  `json:"title"`
	Link      string  `json:"link"`
	Thumbnail string  `json:"thumbnail"`
	Source    string  `json:"source"`
	Rating    float64 `json:"rating"`
	Reviews   int     `json:"reviews"`
	Price     struct {
		Value string `json:"value"`
	} `json:"price"`
}

type shoppingEntry struct {
	Title          string  `json:"title"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	Thumbnail      string  `json:"thumbnail"`
	Source         string  `json:"source"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Rating         float64 `json:"rating"`
	Reviews        int     `json:"reviews"`
}

// productLink は商品ページのURLを返す。
// ショッピング検索の結果はproduct_linkのみを持つことがある。
func (e shoppingEntry) productLink() string {
	if e.ProductLink != "" {
		return e.ProductLink
	}
	return e.Link
}

// price は価格表示を返す。数値のextracted_priceを優先し、price文字列で代替する。
func (e shoppingEntry) price() string {
	if e.ExtractedPrice != 0 {
		return strconv.FormatFloat(e.ExtractedPrice, 'f', -1, 64)
	}
	return e.Price
}

// VisualSearch はGoogle Lensエンジンで画像URLに視覚的に類似する商品を検索する
func (c *Client) VisualSearch(ctx context.Context, imageURL string, maxResults int) ([]*catalog.Product, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: SERPAPI_API_KEY is not set", catalog.ErrUnavailable)
	}

	params := url.Values{}
	params.Set("engine", "google_lens")
	params.Set("url", imageURL)
	params.Set("hl", "en")
	params.Set("gl", c.country)
	params.Set("api_key", c.apiKey)

	resp, err := c.doSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	products := make([]*catalog.Product, 0, len(resp.VisualMatches))
	for _, m := range resp.VisualMatches {
		if len(products) >= maxResults {
			break
		}
		products = append(products, &catalog.Product{
			Title:     m.Title,
			Link:      m.Link,
			Thumbnail: m.Thumbnail,
			Source:    m.Source,
			Price:     optionalString(m.Price.Value),
			Rating:    optionalFloat(m.Rating),
			Reviews:   optionalInt(m.Reviews),
			Method:    catalog.MethodVisual,
		})
	}
	return products, nil
}

// TextSearch はGoogleショッピング検索でキーワードに一致する商品を検索する。
// 国内EC事業者の結果を引き寄せるため、クエリに国名を付加する。
func (c *Client) TextSearch(ctx context.Context, query string, maxResults int) ([]*catalog.Product, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: SERPAPI_API_KEY is not set", catalog.ErrUnavailable)
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query+" india")
	params.Set("tbm", "shop")
	params.Set("num", fmt.Sprintf("%d", maxResults))
	params.Set("gl", c.country)
	params.Set("api_key", c.apiKey)

	resp, err := c.doSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	products := make([]*catalog.Product, 0, len(resp.ShoppingResults))
	for _, e := range resp.ShoppingResults {
		if len(products) >= maxResults {
			break
		}
		products = append(products, &catalog.Product{
			Title:     e.Title,
			Link:      e.productLink(),
			Thumbnail: e.Thumbnail,
			Source:    e.Source,
			Price:     optionalString(e.price()),
			Rating:    optionalFloat(e.Rating),
			Reviews:   optionalInt(e.Reviews),
			Method:    catalog.MethodText,
		})
	}
	return products, nil
}

func (c *Client) doSearch(ctx context.Context, params url.Values) (*searchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", httpResp.StatusCode, truncate(string(body), 200))
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("search API error: %s", resp.Error)
	}

	return &resp, nil
}

func optionalString(s string) mo.Option[string] {
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}

func optionalFloat(f float64) mo.Option[float64] {
	if f == 0 {
		return mo.None[float64]()
	}
	return mo.Some(f)
}

func optionalInt(n int) mo.Option[int] {
	if n == 0 {
		return mo.None[int]()
	}
	return mo.Some(n)
}

// truncate はルーン境界を保ったまま文字列を最大max文字に切り詰める
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// インターフェース実装の確認
var _ catalog.Searcher = (*Client)(nil)

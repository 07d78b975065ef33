// Package catalog はECサイト横断の商品候補検索を提供する
package catalog

import (
	"errors"
	"strings"

	"github.com/samber/mo"
)

// ErrUnavailable は検索プロバイダが利用できない場合のエラー（認証情報未設定など）。
// パイプラインを停止させず、候補ゼロとして継続するかどうかは呼び出し元が判断する。
var ErrUnavailable = errors.New("product search provider is unavailable")

// SearchMethod は候補がどの検索経路で見つかったかを表す
type SearchMethod string

const (
	// MethodVisual はGoogle Lensによる画像検索
	MethodVisual SearchMethod = "visual"
	// MethodText はショッピングAPIによるテキスト検索
	MethodText SearchMethod = "text"
)

// Product は検索APIが返した商品候補を表す
type Product struct {
	// Title は商品タイトル
	Title string `json:"title"`
	// Link は商品ページのURL
	Link string `json:"link"`
	// Thumbnail は商品画像のURL
	Thumbnail string `json:"thumbnail,omitempty"`
	// Source は出典名（国内プラットフォームの場合は正規化済みの名称）
	Source string `json:"source,omitempty"`
	// Price は価格表示
	Price mo.Option[string] `json:"price,omitempty"`
	// Rating は評価値
	Rating mo.Option[float64] `json:"rating,omitempty"`
	// Reviews はレビュー数
	Reviews mo.Option[int] `json:"reviews,omitempty"`
	// Method は検索経路
	Method SearchMethod `json:"method"`
}

// domesticPlatforms は優先対象のインドEC事業者のドメインと正規名称
var domesticPlatforms = map[string]string{
	"amazon.in":        "Amazon India",
	"flipkart.com":     "Flipkart",
	"myntra.com":       "Myntra",
	"ajio.com":         "Ajio",
	"nykaa.com":        "Nykaa",
	"nykaafashion.com": "Nykaa Fashion",
	"tatacliq.com":     "Tata CLiQ",
	"shoppersstop.com": "Shoppers Stop",
	"lifestyle.com":    "Lifestyle",
	"maxfashion.in":    "Max Fashion",
	"westside.com":     "Westside",
	"zara.com/in":      "Zara India",
}

// domesticPlatform はリンクが国内ECのものである場合に正規名称を返す
func domesticPlatform(link string) (string, bool) {
	lower := strings.ToLower(link)
	for domain, name := range domesticPlatforms {
		if strings.Contains(lower, domain) {
			return name, true
		}
	}
	return "", false
}

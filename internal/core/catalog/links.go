package catalog

import "strings"

// SearchLink はECサイトの検索ページへの静的リンクを表す
type SearchLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// linkTemplates は各プラットフォームの検索URLテンプレート
var linkTemplates = []SearchLink{
	{Platform: "Amazon.in", URL: "https://www.amazon.in/s?k="},
	{Platform: "Flipkart", URL: "https://www.flipkart.com/search?q="},
	{Platform: "Myntra", URL: "https://www.myntra.com/"},
	{Platform: "Ajio", URL: "https://www.ajio.com/search/?text="},
}

// nykaaLink はアクセサリ系アイテムにのみ追加される検索リンク
var nykaaLink = SearchLink{Platform: "Nykaa Fashion", URL: "https://www.nykaafashion.com/search/product?q="}

// accessoryKeywords を含むアイテム種別はNykaa Fashionでも検索する
var accessoryKeywords = []string{"bag", "jewelry", "accessory", "sunglasses", "watch", "earring", "necklace", "bracelet"}

// SearchLinks は検索キーワードから各プラットフォームの検索ページURLを生成する。
// itemTypeがアクセサリ系の場合はNykaa Fashionのリンクも含める。
func SearchLinks(keywords, itemType string) []SearchLink {
	query := strings.ReplaceAll(strings.TrimSpace(keywords), " ", "+")

	links := make([]SearchLink, 0, len(linkTemplates)+1)
	for _, tmpl := range linkTemplates {
		links = append(links, SearchLink{
			Platform: tmpl.Platform,
			URL:      tmpl.URL + query,
		})
	}

	lowerType := strings.ToLower(itemType)
	for _, kw := range accessoryKeywords {
		if strings.Contains(lowerType, kw) {
			links = append(links, SearchLink{
				Platform: nykaaLink.Platform,
				URL:      nykaaLink.URL + query,
			})
			break
		}
	}

	return links
}

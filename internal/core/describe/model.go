// Package describe はVision LLMによるファッションアイテムの構造化認識を提供する
package describe

import (
	"github.com/google/uuid"
)

// Item は画像から認識された1つのファッションアイテムを表す
type Item struct {
	// Type はアイテム種別（例: dress, jeans, sneakers, handbag）
	Type string `json:"type"`
	// Color は色の説明
	Color string `json:"color"`
	// Style はスタイル・柄の説明（例: floral print, solid, striped）
	Style string `json:"style"`
	// Material は視認できる素材（例: denim, leather, cotton）
	Material string `json:"material,omitempty"`
	// Features は特徴のリスト（例: V-neck, high-waisted）
	Features []string `json:"features,omitempty"`
	// SearchKeywords はオンライン検索向けに最適化されたクエリ
	SearchKeywords string `json:"search_keywords"`
}

// Analysis は1枚の画像に対する解析結果全体を表す
type Analysis struct {
	// ID は解析操作の識別子
	ID uuid.UUID `json:"id"`
	// Items は認識されたアイテムのリスト
	Items []Item `json:"items"`
	// OverallStyle は全体の雰囲気の説明
	OverallStyle string `json:"overall_style,omitempty"`
	// Occasion は想定される着用シーン
	Occasion string `json:"occasion,omitempty"`
	// Model は解析に使用したモデル名
	Model string `json:"model,omitempty"`
}

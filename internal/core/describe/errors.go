package describe

import "errors"

var (
	// ErrParseFailure はLLMの応答が期待するJSON構造に適合しない場合のエラー。
	// 空のアイテムリストへ黙って変換せず、明示的に呼び出し元へ伝える。
	ErrParseFailure = errors.New("vision response does not conform to the expected JSON structure")

	// ErrNoItems は応答自体は正常だがアイテムが1つも認識されなかった場合のエラー
	ErrNoItems = errors.New("no fashion items identified in the image")
)

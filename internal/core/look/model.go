// Package look はパイプライン全体で共有する入力画像の表現を提供する
package look

import "errors"

// ErrEmptyImageSource は画像ソースが未指定の場合のエラー
var ErrEmptyImageSource = errors.New("image source is empty: URL or raw bytes required")

// ImageSource はユーザが指定した画像の取得元を表す。
// URLか生バイト列のどちらか一方を保持する。
type ImageSource struct {
	URL  string
	Data []byte
}

// FromURL はURL指定のImageSourceを作成する
func FromURL(url string) ImageSource {
	return ImageSource{URL: url}
}

// FromBytes はアップロード済みバイト列のImageSourceを作成する
func FromBytes(data []byte) ImageSource {
	return ImageSource{Data: data}
}

// IsURL はURL指定かどうかを返す
func (s ImageSource) IsURL() bool {
	return s.URL != ""
}

// Validate はどちらのソースも指定されていない場合にエラーを返す
func (s ImageSource) Validate() error {
	if s.URL == "" && len(s.Data) == 0 {
		return ErrEmptyImageSource
	}
	return nil
}

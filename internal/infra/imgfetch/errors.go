package imgfetch

import "errors"

var (
	// ErrRequestFailed はネットワークエラーで画像を取得できなかった場合のエラー
	ErrRequestFailed = errors.New("image request failed")

	// ErrTimeout は取得がタイムアウトした場合のエラー
	ErrTimeout = errors.New("image request timed out")

	// ErrBadStatus は非2xx応答が返った場合のエラー
	ErrBadStatus = errors.New("image request returned non-success status")

	// ErrDecodeFailed は応答ボディを画像としてデコードできなかった場合のエラー
	ErrDecodeFailed = errors.New("image could not be decoded")
)

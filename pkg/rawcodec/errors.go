package rawcodec

import "errors"

var (
	// ErrUnknownRawMode は未知の生データ配置が指定された場合のエラー
	ErrUnknownRawMode = errors.New("unknown raw mode")

	// ErrShortData は画素データが途中で終わっている場合のエラー
	ErrShortData = errors.New("pixel data is truncated")
)

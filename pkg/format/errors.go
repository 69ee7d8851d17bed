package format

import "errors"

var (
	// ErrFormatNotFound は名前・拡張子・シグネチャに一致するフォーマットがない場合のエラー
	ErrFormatNotFound = errors.New("format not found")

	// ErrNoEncoder はフォーマットが書き出しに対応していない場合のエラー
	ErrNoEncoder = errors.New("format has no encoder")

	// ErrNoDecoder はフォーマットが読み込みに対応していない場合のエラー
	ErrNoDecoder = errors.New("format has no decoder")
)

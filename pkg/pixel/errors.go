package pixel

import "errors"

var (
	// ErrUnsupportedImage は画像型やモードを扱えない場合のエラー
	ErrUnsupportedImage = errors.New("unsupported image")
)

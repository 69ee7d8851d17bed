package bmp

import "errors"

var (
	// ErrNotThisFormat は先頭のシグネチャが "BM" でない場合のエラー。
	// フォーマット判定側はこのエラーを見て次のハンドラを試せる。
	ErrNotThisFormat = errors.New("not a BMP file")

	// ErrMalformedHeader はヘッダーサイズが未知、または画像サイズが不正な場合のエラー
	ErrMalformedHeader = errors.New("malformed BMP header")

	// ErrUnsupportedBitDepth は1,4,8,16,24,32以外のビット深度の場合のエラー
	ErrUnsupportedBitDepth = errors.New("unsupported BMP bit depth")

	// ErrUnsupportedCompression は非圧縮・ビットフィールド以外の圧縮方式の場合のエラー
	ErrUnsupportedCompression = errors.New("unsupported BMP compression")

	// ErrUnsupportedBitfieldLayout はビットフィールドのマスクが既知の組み合わせでない場合のエラー
	ErrUnsupportedBitfieldLayout = errors.New("unsupported BMP bitfields layout")

	// ErrUnsupportedPaletteSize はパレットの色数が範囲外の場合のエラー
	ErrUnsupportedPaletteSize = errors.New("unsupported BMP palette size")

	// ErrUnsupportedPixelMode は書き出せない画素モードの場合のエラー
	ErrUnsupportedPixelMode = errors.New("cannot write pixel mode as BMP")
)

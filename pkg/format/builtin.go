package format

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	xbmp "golang.org/x/image/bmp"

	"github.com/zurustar/bmpkit/pkg/bmp"
	"github.com/zurustar/bmpkit/pkg/pixel"
)

// フォーマット名
const (
	NameBMP      = "BMP"
	NameDIB      = "DIB"
	NamePNG      = "PNG"
	NameFallback = "BMP-X"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// RegisterBuiltins は組み込みフォーマットを r に登録する。
// 登録順は BMP, DIB, PNG, BMP-X（golang.org/x/image/bmp による読み込み）。
func RegisterBuiltins(r *Registry) {
	r.Register(&Format{
		Name:       NameBMP,
		Extensions: []string{".bmp"},
		Accept:     bmp.Accept,
		Decode:     decodeBMP,
		Encode:     encodeBMP,
	})
	// DIB はシグネチャを持たないため拡張子か名前でのみ選ばれる
	r.Register(&Format{
		Name:       NameDIB,
		Extensions: []string{".dib"},
		Decode:     decodeDIB,
		Encode:     encodeDIB,
	})
	r.Register(&Format{
		Name:       NamePNG,
		Extensions: []string{".png"},
		Accept:     func(prefix []byte) bool { return bytes.HasPrefix(prefix, pngSignature) },
		Decode:     decodeStd(png.Decode),
		Encode:     encodePNG,
	})
	r.Register(&Format{
		Name:   NameFallback,
		Accept: bmp.Accept,
		Decode: decodeStd(xbmp.Decode),
	})
}

func bmpOptions(opts *Options) *bmp.EncodeOptions {
	if opts == nil {
		return nil
	}
	return &bmp.EncodeOptions{DPI: opts.DPI}
}

func decodeBMP(r io.ReadSeeker) (*pixel.Image, error) {
	return bmp.Decode(r)
}

func encodeBMP(w io.Writer, img *pixel.Image, opts *Options) error {
	return bmp.Encode(w, img, bmpOptions(opts))
}

func decodeDIB(r io.ReadSeeker) (*pixel.Image, error) {
	return bmp.DecodeDIB(r)
}

// encodeDIB はBMPとして書き出し、14バイトのファイルヘッダーを除いて出力する
func encodeDIB(w io.Writer, img *pixel.Image, opts *Options) error {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img, bmpOptions(opts)); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes()[14:])
	return err
}

// decodeStd は標準形式の image.Image を返すデコーダを DecodeFunc に変換する
func decodeStd(decode func(io.Reader) (image.Image, error)) DecodeFunc {
	return func(r io.ReadSeeker) (*pixel.Image, error) {
		m, err := decode(r)
		if err != nil {
			return nil, err
		}
		img, err := pixel.FromImage(m)
		if err != nil {
			return nil, fmt.Errorf("failed to convert decoded image: %w", err)
		}
		return img, nil
	}
}

func encodePNG(w io.Writer, img *pixel.Image, _ *Options) error {
	return png.Encode(w, img)
}

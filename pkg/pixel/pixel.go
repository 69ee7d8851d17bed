// Package pixel はBMPコーデックが読み書きするメモリ上の画像コンテナを提供する。
//
// 画素はモードごとに固定のバイト配置で Pix に格納される:
//   - "1":    1バイト/画素（0 または 255）
//   - "L":    1バイト/画素（グレースケール）
//   - "P":    1バイト/画素（パレットインデックス）
//   - "RGB":  3バイト/画素（R, G, B）
//   - "RGBA": 4バイト/画素（R, G, B, A、非乗算）
//   - "I;16": 2バイト/画素（ビッグエンディアン）
//   - "CMYK": 4バイト/画素
package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// Mode は画素モードを表す
type Mode string

const (
	Bilevel  Mode = "1"
	Gray     Mode = "L"
	Paletted Mode = "P"
	RGB      Mode = "RGB"
	RGBA     Mode = "RGBA"
	Gray16   Mode = "I;16"
	CMYK     Mode = "CMYK"
)

// BytesPerPixel はモードの1画素あたりのバイト数を返す
func (m Mode) BytesPerPixel() int {
	switch m {
	case Bilevel, Gray, Paletted:
		return 1
	case Gray16:
		return 2
	case RGB:
		return 3
	case RGBA, CMYK:
		return 4
	}
	return 0
}

// Valid はモードが既知かどうかを返す
func (m Mode) Valid() bool {
	return m.BytesPerPixel() > 0
}

// Info はデコード時に得られた付随情報
type Info struct {
	DPI         [2]int // 水平・垂直解像度（0は不明）
	Compression string // 圧縮方式の名前
	Format      string // 読み込み元フォーマット名
}

// Image はモード付きの画素バッファ
type Image struct {
	Mode    Mode
	Rect    image.Rectangle
	Pix     []byte
	Stride  int
	Palette *Palette
	Info    Info
}

// New は指定モード・サイズのゼロ埋め画像を作成する
func New(mode Mode, width, height int) (*Image, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: mode %q", ErrUnsupportedImage, mode)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid image size: %dx%d", width, height)
	}
	stride := width * mode.BytesPerPixel()
	return &Image{
		Mode:   mode,
		Rect:   image.Rect(0, 0, width, height),
		Pix:    make([]byte, stride*height),
		Stride: stride,
	}, nil
}

// Width は画像の幅を返す
func (img *Image) Width() int { return img.Rect.Dx() }

// Height は画像の高さを返す
func (img *Image) Height() int { return img.Rect.Dy() }

// Row はy行目（0始まり）の画素バイト列を返す
func (img *Image) Row(y int) []byte {
	start := y * img.Stride
	return img.Pix[start : start+img.Width()*img.Mode.BytesPerPixel()]
}

// SetPalette はパレットを設定する。rgb は order で示す順序の3バイト組の並び。
// BMPデコーダのパレット受け口として使われる。
func (img *Image) SetPalette(order string, rgb []byte) error {
	p, err := NewPalette(order, rgb)
	if err != nil {
		return err
	}
	img.Palette = p
	return nil
}

// ColorModel は image.Image を実装する
func (img *Image) ColorModel() color.Model {
	switch img.Mode {
	case Bilevel, Gray:
		return color.GrayModel
	case Gray16:
		return color.Gray16Model
	case Paletted:
		if img.Palette != nil {
			return img.Palette.Colors
		}
		return color.GrayModel
	case CMYK:
		return color.CMYKModel
	case RGB:
		return color.RGBAModel
	}
	return color.NRGBAModel
}

// Bounds は image.Image を実装する
func (img *Image) Bounds() image.Rectangle { return img.Rect }

// At は image.Image を実装する
func (img *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(img.Rect)) {
		return color.Transparent
	}
	x -= img.Rect.Min.X
	y -= img.Rect.Min.Y
	i := y*img.Stride + x*img.Mode.BytesPerPixel()
	p := img.Pix
	switch img.Mode {
	case Bilevel, Gray:
		return color.Gray{Y: p[i]}
	case Gray16:
		return color.Gray16{Y: uint16(p[i])<<8 | uint16(p[i+1])}
	case Paletted:
		if img.Palette == nil {
			return color.Gray{Y: p[i]}
		}
		idx := int(p[i])
		if idx >= len(img.Palette.Colors) {
			return color.Black
		}
		return img.Palette.Colors[idx]
	case RGB:
		return color.RGBA{R: p[i], G: p[i+1], B: p[i+2], A: 0xff}
	case RGBA:
		return color.NRGBA{R: p[i], G: p[i+1], B: p[i+2], A: p[i+3]}
	case CMYK:
		return color.CMYK{C: p[i], M: p[i+1], Y: p[i+2], K: p[i+3]}
	}
	return color.Transparent
}

// Equal は2つの画像のモード・サイズ・画素・パレットが一致するかを返す
func Equal(a, b *Image) bool {
	if a.Mode != b.Mode || a.Rect.Dx() != b.Rect.Dx() || a.Rect.Dy() != b.Rect.Dy() {
		return false
	}
	for y := 0; y < a.Height(); y++ {
		ra, rb := a.Row(y), b.Row(y)
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	if a.Mode != Paletted {
		return true
	}
	if (a.Palette == nil) != (b.Palette == nil) {
		return false
	}
	if a.Palette == nil {
		return true
	}
	return a.Palette.Equal(b.Palette)
}

package pixel

import (
	"fmt"
	"image/color"
)

// Palette はインデックスカラー画像のパレット
type Palette struct {
	Order  string        // 読み込み元のチャネル順（"RGB", "BGR" など）
	Colors color.Palette // color.RGBA の並び
}

// entrySize はチャネル順ごとの1エントリのバイト数を返す
func entrySize(order string) int {
	switch order {
	case "RGB", "BGR":
		return 3
	case "RGBX", "BGRX":
		return 4
	}
	return 0
}

// NewPalette はバイト列からパレットを作成する
func NewPalette(order string, data []byte) (*Palette, error) {
	n := entrySize(order)
	if n == 0 {
		return nil, fmt.Errorf("%w: palette order %q", ErrUnsupportedImage, order)
	}
	if len(data)%n != 0 {
		return nil, fmt.Errorf("palette data length %d is not a multiple of %d", len(data), n)
	}
	colors := make(color.Palette, 0, len(data)/n)
	for i := 0; i+n <= len(data); i += n {
		c := color.RGBA{A: 0xff}
		if order[0] == 'B' {
			c.B, c.G, c.R = data[i], data[i+1], data[i+2]
		} else {
			c.R, c.G, c.B = data[i], data[i+1], data[i+2]
		}
		colors = append(colors, c)
	}
	return &Palette{Order: order, Colors: colors}, nil
}

// PaletteFromColors は color.Palette から RGB 順のパレットを作る
func PaletteFromColors(p color.Palette) *Palette {
	colors := make(color.Palette, len(p))
	for i, c := range p {
		colors[i] = color.RGBAModel.Convert(c)
	}
	return &Palette{Order: "RGB", Colors: colors}
}

// Bytes はパレットを order の順でバイト列に変換する。
// 4バイト順序の場合、4バイト目は0になる。
func (p *Palette) Bytes(order string) []byte {
	n := entrySize(order)
	if n == 0 {
		return nil
	}
	out := make([]byte, len(p.Colors)*n)
	for i, c := range p.Colors {
		r, g, b, _ := c.RGBA()
		o := out[i*n:]
		if order[0] == 'B' {
			o[0], o[1], o[2] = byte(b>>8), byte(g>>8), byte(r>>8)
		} else {
			o[0], o[1], o[2] = byte(r>>8), byte(g>>8), byte(b>>8)
		}
	}
	return out
}

// Len はエントリ数を返す
func (p *Palette) Len() int { return len(p.Colors) }

// Equal は色の並びが一致するかを返す（Order は比較しない）
func (p *Palette) Equal(o *Palette) bool {
	if len(p.Colors) != len(o.Colors) {
		return false
	}
	for i := range p.Colors {
		r1, g1, b1, a1 := p.Colors[i].RGBA()
		r2, g2, b2, a2 := o.Colors[i].RGBA()
		if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
			return false
		}
	}
	return true
}

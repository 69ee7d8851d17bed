package pixel

import (
	"image"
	"image/color"
)

// FromImage は標準の image.Image を Image に変換する。
// 型ごとに最も近いモードを選ぶ:
//   - *Image:          そのまま返す
//   - *image.Gray:     L
//   - *image.Paletted: P
//   - *image.Gray16:   I;16
//   - *image.CMYK:     CMYK
//   - *image.NRGBA:    RGBA
//   - それ以外:        Opaque() が true なら RGB、そうでなければ RGBA（非乗算に変換）
func FromImage(src image.Image) (*Image, error) {
	if img, ok := src.(*Image); ok {
		return img, nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch s := src.(type) {
	case *image.Gray:
		dst, _ := New(Gray, w, h)
		for y := 0; y < h; y++ {
			copy(dst.Row(y), s.Pix[y*s.Stride:y*s.Stride+w])
		}
		return dst, nil

	case *image.Paletted:
		dst, _ := New(Paletted, w, h)
		for y := 0; y < h; y++ {
			copy(dst.Row(y), s.Pix[y*s.Stride:y*s.Stride+w])
		}
		dst.Palette = PaletteFromColors(s.Palette)
		return dst, nil

	case *image.Gray16:
		dst, _ := New(Gray16, w, h)
		for y := 0; y < h; y++ {
			copy(dst.Row(y), s.Pix[y*s.Stride:y*s.Stride+w*2])
		}
		return dst, nil

	case *image.CMYK:
		dst, _ := New(CMYK, w, h)
		for y := 0; y < h; y++ {
			copy(dst.Row(y), s.Pix[y*s.Stride:y*s.Stride+w*4])
		}
		return dst, nil

	case *image.NRGBA:
		dst, _ := New(RGBA, w, h)
		for y := 0; y < h; y++ {
			copy(dst.Row(y), s.Pix[y*s.Stride:y*s.Stride+w*4])
		}
		return dst, nil
	}

	mode := RGBA
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		mode = RGB
	}
	dst, _ := New(mode, w, h)
	for y := 0; y < h; y++ {
		row := dst.Row(y)
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if mode == RGB {
				row[x*3], row[x*3+1], row[x*3+2] = c.R, c.G, c.B
			} else {
				row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = c.R, c.G, c.B, c.A
			}
		}
	}
	return dst, nil
}

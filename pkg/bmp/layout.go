package bmp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/zurustar/bmpkit/pkg/pixel"
	"github.com/zurustar/bmpkit/pkg/rawcodec"
)

// Layout は画素データの解釈方法
type Layout struct {
	Mode    pixel.Mode       // 展開後の画素モード
	Raw     rawcodec.RawMode // 生データの配置
	Stride  int              // 1行のバイト数（4バイト境界）
	Masks   *Masks           // ビットフィールド圧縮の場合のみ
	Palette *PaletteTable    // インデックスカラーでパレットを保持する場合のみ
}

// ビット深度ごとの画素モードと生データ配置
var bitModes = map[int]struct {
	mode pixel.Mode
	raw  rawcodec.RawMode
}{
	1:  {pixel.Paletted, rawcodec.RawP1},
	4:  {pixel.Paletted, rawcodec.RawP4},
	8:  {pixel.Paletted, rawcodec.RawP},
	16: {pixel.RGB, rawcodec.RawBGR15},
	24: {pixel.RGB, rawcodec.RawBGR},
	32: {pixel.RGBA, rawcodec.RawBGRA},
}

// 対応するビットフィールドの組み合わせ。16ビットではアルファマスクを見ない。
var bitfieldLayouts = []struct {
	bits     int
	masks    Masks
	useAlpha bool
	raw      rawcodec.RawMode
}{
	{32, Masks{R: 0x00ff0000, G: 0x0000ff00, B: 0x000000ff, A: 0xff000000}, true, rawcodec.RawBGRA},
	{16, Masks{R: 0xf800, G: 0x07e0, B: 0x001f}, false, rawcodec.RawBGR16},
	{16, Masks{R: 0x7c00, G: 0x03e0, B: 0x001f}, false, rawcodec.RawBGR15},
}

// matchBitfields は (bits, masks) に対応する生データ配置を返す
func matchBitfields(bits int, m Masks) (rawcodec.RawMode, error) {
	for _, l := range bitfieldLayouts {
		if l.bits != bits || l.masks.R != m.R || l.masks.G != m.G || l.masks.B != m.B {
			continue
		}
		if l.useAlpha && l.masks.A != m.A {
			continue
		}
		return l.raw, nil
	}
	return "", fmt.Errorf("%w: %d bits, %v", ErrUnsupportedBitfieldLayout, bits, m)
}

// Stride はBMPの行のバイト数を返す: ((width*bits + 31) >> 3) &^ 3
func Stride(width, bits int) int {
	return rawcodec.Stride(width, bits)
}

// readMasks はチャネルマスクを読む。56バイト以上のヘッダーではヘッダー内のオフセット40〜56、
// 40バイトヘッダーではヘッダー直後の12バイトを r から読む。
func readMasks(h *Header, r io.Reader) (Masks, error) {
	le := binary.LittleEndian
	switch h.Size {
	case os2HeaderSize, v4HeaderSize, v5HeaderSize:
		s := h.raw
		return Masks{R: le.Uint32(s[40:]), G: le.Uint32(s[44:]), B: le.Uint32(s[48:]), A: le.Uint32(s[52:])}, nil
	case infoHeaderSize:
		var buf [12]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Masks{}, fmt.Errorf("%w: cannot read bitfield masks: %v", ErrMalformedHeader, err)
		}
		return Masks{R: le.Uint32(buf[0:]), G: le.Uint32(buf[4:]), B: le.Uint32(buf[8:])}, nil
	}
	return Masks{}, fmt.Errorf("%w: bitfields in %d-byte header", ErrUnsupportedCompression, h.Size)
}

// resolveLayout はビット深度と圧縮方式から画素の配置を決め、
// インデックスカラーの場合は r からパレットを読み込む。
func resolveLayout(h *Header, r io.Reader) (Layout, error) {
	bm, ok := bitModes[h.BitCount]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, h.BitCount)
	}
	layout := Layout{Mode: bm.mode, Raw: bm.raw}

	stride := ((int64(h.Width)*int64(h.BitCount) + 31) >> 3) &^ 3
	if stride > math.MaxInt32 {
		return Layout{}, fmt.Errorf("%w: row too long (%d bytes)", ErrMalformedHeader, stride)
	}
	layout.Stride = int(stride)

	switch h.Compression {
	case CompressionRGB:
	case CompressionBitfields:
		masks, err := readMasks(h, r)
		if err != nil {
			return Layout{}, err
		}
		raw, err := matchBitfields(h.BitCount, masks)
		if err != nil {
			return Layout{}, err
		}
		layout.Raw = raw
		layout.Masks = &masks
	default:
		return Layout{}, fmt.Errorf("%w: %s", ErrUnsupportedCompression, h.Compression)
	}

	if layout.Mode != pixel.Paletted {
		return layout, nil
	}

	colors := h.Colors()
	if colors <= 0 || colors > 1<<16 {
		return Layout{}, fmt.Errorf("%w: %d", ErrUnsupportedPaletteSize, colors)
	}
	table, grey, err := readPalette(r, int(colors), h.LUTSize)
	if err != nil {
		return Layout{}, err
	}

	switch {
	case grey && colors == 2 && h.BitCount == 1:
		layout.Mode, layout.Raw = pixel.Bilevel, rawcodec.RawBilevel
	case grey && colors != 2 && h.BitCount == 8:
		layout.Mode, layout.Raw = pixel.Gray, rawcodec.RawL
	case grey && colors != 2 && h.BitCount == 4:
		layout.Mode, layout.Raw = pixel.Gray, rawcodec.RawL4
	default:
		layout.Palette = table
	}
	return layout, nil
}

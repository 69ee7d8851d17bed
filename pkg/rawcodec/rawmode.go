// Package rawcodec はストライド付きの非圧縮画素データを読み書きする。
//
// 1行ぶんの生データ（ストライドまでパディングされたバイト列）と
// pixel.Image の1行との相互変換を、生データの並び（RawMode）ごとに行う。
// 行の上下方向と開始オフセットは Tile で指定する。
package rawcodec

import (
	"fmt"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

// RawMode は1画素の生データ上のビット/バイト配置を表す
type RawMode string

const (
	RawBilevel RawMode = "1"      // 1ビット/画素 → 0/255
	RawL4      RawMode = "L;4"    // 4ビット/画素 → グレー値
	RawL       RawMode = "L"      // 8ビット/画素 → グレー値
	RawP1      RawMode = "P;1"    // 1ビット/画素 → インデックス
	RawP4      RawMode = "P;4"    // 4ビット/画素 → インデックス
	RawP       RawMode = "P"      // 8ビット/画素 → インデックス
	RawBGR15   RawMode = "BGR;15" // 16ビット 5-5-5（リトルエンディアン）
	RawBGR16   RawMode = "BGR;16" // 16ビット 5-6-5（リトルエンディアン）
	RawBGR     RawMode = "BGR"    // 24ビット B,G,R
	RawBGRA    RawMode = "BGRA"   // 32ビット B,G,R,A
)

// rowFunc は width 画素ぶんを src から dst へ変換する
type rowFunc func(dst, src []byte, width int)

type rawInfo struct {
	bits   int
	mode   pixel.Mode
	unpack rowFunc
	pack   rowFunc
}

var rawModes = map[RawMode]rawInfo{
	RawBilevel: {1, pixel.Bilevel, unpackBilevel, packBilevel},
	RawL4:      {4, pixel.Gray, unpackNibbles, packNibbles},
	RawL:       {8, pixel.Gray, copyBytes, copyBytes},
	RawP1:      {1, pixel.Paletted, unpackBits, packBits},
	RawP4:      {4, pixel.Paletted, unpackNibbles, packNibbles},
	RawP:       {8, pixel.Paletted, copyBytes, copyBytes},
	RawBGR15:   {16, pixel.RGB, unpackBGR15, packBGR15},
	RawBGR16:   {16, pixel.RGB, unpackBGR16, packBGR16},
	RawBGR:     {24, pixel.RGB, unpackBGR, packBGR},
	RawBGRA:    {32, pixel.RGBA, unpackBGRA, packBGRA},
}

func lookup(raw RawMode) (rawInfo, error) {
	info, ok := rawModes[raw]
	if !ok {
		return rawInfo{}, fmt.Errorf("%w: %q", ErrUnknownRawMode, raw)
	}
	return info, nil
}

// BitsPerPixel は生データ1画素あたりのビット数を返す（未知の場合は0）
func (r RawMode) BitsPerPixel() int {
	return rawModes[r].bits
}

// PixelMode は展開先の画素モードを返す（未知の場合は空文字）
func (r RawMode) PixelMode() pixel.Mode {
	return rawModes[r].mode
}

// Stride は幅 width、ビット深度 bits の行を4バイト境界に揃えたバイト数を返す。
// 32ビット単位への切り上げと同値: ((width*bits + 31) >> 3) &^ 3
func Stride(width, bits int) int {
	return int(((int64(width)*int64(bits) + 31) >> 3) &^ 3)
}

func copyBytes(dst, src []byte, width int) {
	copy(dst[:width], src[:width])
}

func unpackBits(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		dst[x] = (src[x>>3] >> (7 - uint(x&7))) & 1
	}
}

func packBits(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		if x&7 == 0 {
			dst[x>>3] = 0
		}
		dst[x>>3] |= (src[x] & 1) << (7 - uint(x&7))
	}
}

func unpackBilevel(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		if src[x>>3]&(0x80>>uint(x&7)) != 0 {
			dst[x] = 0xff
		} else {
			dst[x] = 0
		}
	}
}

// packBilevel は0以外の値を1ビットとして詰める
func packBilevel(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		if x&7 == 0 {
			dst[x>>3] = 0
		}
		if src[x] != 0 {
			dst[x>>3] |= 0x80 >> uint(x&7)
		}
	}
}

func unpackNibbles(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		b := src[x>>1]
		if x&1 == 0 {
			dst[x] = b >> 4
		} else {
			dst[x] = b & 0x0f
		}
	}
}

func packNibbles(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		if x&1 == 0 {
			dst[x>>1] = (src[x] & 0x0f) << 4
		} else {
			dst[x>>1] |= src[x] & 0x0f
		}
	}
}

// scale5 は5ビット値を8ビットに伸張する
func scale5(v uint16) byte { return byte(v<<3 | v>>2) }

// scale6 は6ビット値を8ビットに伸張する
func scale6(v uint16) byte { return byte(v<<2 | v>>4) }

func unpackBGR15(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		v := uint16(src[x*2]) | uint16(src[x*2+1])<<8
		d := dst[x*3:]
		d[0] = scale5((v >> 10) & 0x1f)
		d[1] = scale5((v >> 5) & 0x1f)
		d[2] = scale5(v & 0x1f)
	}
}

func packBGR15(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		s := src[x*3:]
		v := uint16(s[0]>>3)<<10 | uint16(s[1]>>3)<<5 | uint16(s[2]>>3)
		dst[x*2] = byte(v)
		dst[x*2+1] = byte(v >> 8)
	}
}

func unpackBGR16(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		v := uint16(src[x*2]) | uint16(src[x*2+1])<<8
		d := dst[x*3:]
		d[0] = scale5((v >> 11) & 0x1f)
		d[1] = scale6((v >> 5) & 0x3f)
		d[2] = scale5(v & 0x1f)
	}
}

func packBGR16(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		s := src[x*3:]
		v := uint16(s[0]>>3)<<11 | uint16(s[1]>>2)<<5 | uint16(s[2]>>3)
		dst[x*2] = byte(v)
		dst[x*2+1] = byte(v >> 8)
	}
}

func unpackBGR(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		dst[x*3], dst[x*3+1], dst[x*3+2] = src[x*3+2], src[x*3+1], src[x*3]
	}
}

// packBGR は unpackBGR と同じ入れ替えになる
func packBGR(dst, src []byte, width int) {
	unpackBGR(dst, src, width)
}

func unpackBGRA(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		i := x * 4
		dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
	}
}

func packBGRA(dst, src []byte, width int) {
	unpackBGRA(dst, src, width)
}

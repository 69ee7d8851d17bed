// Package bmp は Windows / OS/2 ビットマップ（BMP/DIB）の読み書きを行う。
//
// 対応するヘッダー:
//   - OS/2 1.x コアヘッダー (12バイト)
//   - Windows 3.x / OS/2 2.x 情報ヘッダー (40, 64, 108, 124バイト)
//
// 対応する圧縮方式:
//   - BI_RGB (0): 非圧縮
//   - BI_BITFIELDS (3): 既知のマスクの組み合わせのみ
//
// RLE圧縮には対応しない。
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Compression はBMPの圧縮方式コード
type Compression uint32

const (
	CompressionRGB       Compression = 0 // 非圧縮
	CompressionRLE8      Compression = 1
	CompressionRLE4      Compression = 2
	CompressionBitfields Compression = 3 // チャネルマスク指定
)

func (c Compression) String() string {
	switch c {
	case CompressionRGB:
		return "raw"
	case CompressionRLE8:
		return "rle8"
	case CompressionRLE4:
		return "rle4"
	case CompressionBitfields:
		return "bitfields"
	}
	return fmt.Sprintf("compression(%d)", uint32(c))
}

// ヘッダーサイズ
const (
	fileHeaderSize = 14
	coreHeaderSize = 12  // OS/2 1.x BITMAPCOREHEADER
	infoHeaderSize = 40  // BITMAPINFOHEADER
	os2HeaderSize  = 64  // OS/2 2.x BITMAPINFOHEADER2
	v4HeaderSize   = 108 // BITMAPV4HEADER
	v5HeaderSize   = 124 // BITMAPV5HEADER
)

// maxPixels を超える画像は読み込まない（メモリ枯渇対策）
const maxPixels = 1 << 31

// inchesPerMeter は解像度の pixels/meter を DPI に換算する係数
const inchesPerMeter = 39.3701

// bmpFileHeader BMPファイルヘッダー (14バイト)
type bmpFileHeader struct {
	Signature  [2]byte // "BM"
	FileSize   uint32  // ファイルサイズ
	Reserved1  uint16  // 予約
	Reserved2  uint16  // 予約
	DataOffset uint32  // 画像データへのオフセット
}

// Masks はビットフィールド圧縮のチャネルマスク
type Masks struct {
	R, G, B, A uint32
}

func (m Masks) String() string {
	return fmt.Sprintf("R=%#x G=%#x B=%#x A=%#x", m.R, m.G, m.B, m.A)
}

// Header は情報ヘッダーから読み取った値
type Header struct {
	Size           int         // 情報ヘッダーのサイズ
	Width          int         // 画像の幅
	Height         int         // 画像の高さ（常に正）
	TopDown        bool        // 行が上から順に格納されているか
	BitCount       int         // ビット深度
	Compression    Compression // 圧縮方式
	PixelsPerMeter [2]uint32   // 水平・垂直解像度
	DPI            [2]int      // PixelsPerMeter を換算した値
	HasResolution  bool        // 解像度フィールドを持つヘッダーか
	ColorsUsed     uint32      // ヘッダーに記録された色数（0は既定値）
	LUTSize        int         // パレット1エントリのバイト数（3または4）

	raw []byte // 情報ヘッダーのバイト列（サイズフィールドを含む）
}

// Colors は実際のパレット色数を返す。ヘッダーの値が0ならビット深度から求める。
func (h *Header) Colors() int64 {
	if h.ColorsUsed == 0 {
		return int64(1) << uint(h.BitCount)
	}
	return int64(h.ColorsUsed)
}

// Kind はヘッダーの種類名を返す
func (h *Header) Kind() string {
	switch h.Size {
	case coreHeaderSize:
		return "OS/2 core"
	case infoHeaderSize:
		return "info"
	case os2HeaderSize:
		return "OS/2 v2"
	case v4HeaderSize:
		return "v4"
	case v5HeaderSize:
		return "v5"
	}
	return "unknown"
}

// readSafe は buf を埋めるまで読む。途中でEOFになった場合、残りはゼロのまま成功とする。
func readSafe(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}

// parseHeader は情報ヘッダーを読み込み、画像の大きさとビット深度を検証する。
// r はヘッダーサイズフィールドの位置にある必要がある。
func parseHeader(r io.Reader) (*Header, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: cannot read header size: %v", ErrMalformedHeader, err)
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])

	switch size {
	case coreHeaderSize, infoHeaderSize, os2HeaderSize, v4HeaderSize, v5HeaderSize:
	default:
		return nil, fmt.Errorf("%w: unsupported header type (%d)", ErrMalformedHeader, size)
	}

	s := make([]byte, size)
	copy(s, sizeBuf[:])
	if err := readSafe(r, s[4:]); err != nil {
		return nil, fmt.Errorf("failed to read BMP info header: %w", err)
	}

	h := &Header{Size: int(size), raw: s}
	le := binary.LittleEndian

	if size == coreHeaderSize {
		// OS/2 1.x: 16ビットの幅・高さ、常にボトムアップ
		h.Width = int(le.Uint16(s[4:]))
		h.Height = int(le.Uint16(s[6:]))
		h.BitCount = int(le.Uint16(s[10:]))
		h.Compression = CompressionRGB
		h.LUTSize = 3
	} else {
		width := int32(le.Uint32(s[4:]))
		if width <= 0 {
			return nil, fmt.Errorf("%w: invalid width %d", ErrMalformedHeader, width)
		}
		h.Width = int(width)

		// 高さの最上位バイトの最上位ビットでトップダウン格納を判定する
		height := int64(le.Uint32(s[8:]))
		if s[11]&0x80 != 0 {
			h.TopDown = true
			height = (int64(1) << 32) - height
		}
		h.Height = int(height)

		h.BitCount = int(le.Uint16(s[14:]))
		h.Compression = Compression(le.Uint32(s[16:]))
		h.PixelsPerMeter = [2]uint32{le.Uint32(s[24:]), le.Uint32(s[28:])}
		h.DPI = [2]int{ppmToDPI(h.PixelsPerMeter[0]), ppmToDPI(h.PixelsPerMeter[1])}
		h.HasResolution = true
		h.ColorsUsed = le.Uint32(s[32:])
		h.LUTSize = 4
	}

	if h.Width <= 0 || h.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid size (%dx%d)", ErrMalformedHeader, h.Width, h.Height)
	}
	if int64(h.Width)*int64(h.Height) > maxPixels {
		return nil, fmt.Errorf("%w: image too large (%dx%d)", ErrMalformedHeader, h.Width, h.Height)
	}

	switch h.BitCount {
	case 1, 4, 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, h.BitCount)
	}

	return h, nil
}

// ppmToDPI は pixels/meter を DPI に切り上げ換算する
func ppmToDPI(ppm uint32) int {
	return int(math.Ceil(float64(ppm) / inchesPerMeter))
}

// dpiToPPM は DPI を pixels/meter に切り捨て換算する。MaxDPI を超える値は MaxDPI とみなす。
func dpiToPPM(dpi int) uint32 {
	dpi = min(dpi, MaxDPI)
	return uint32(float64(dpi) * inchesPerMeter)
}

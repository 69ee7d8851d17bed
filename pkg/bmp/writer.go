package bmp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/zurustar/bmpkit/pkg/pixel"
	"github.com/zurustar/bmpkit/pkg/rawcodec"
)

// DefaultDPI は EncodeOptions.DPI が0の場合の解像度
const DefaultDPI = 96

// MaxDPI は pixels/meter が uint32 に収まる最大の解像度
const MaxDPI = 109092110

// EncodeOptions は書き出し時の設定
type EncodeOptions struct {
	DPI int // 水平・垂直解像度（0なら DefaultDPI）
}

// 書き出し可能なモードごとの生データ配置・ビット深度・パレット色数
var saveModes = map[pixel.Mode]struct {
	raw    rawcodec.RawMode
	bits   int
	colors int
}{
	pixel.Bilevel:  {rawcodec.RawBilevel, 1, 2},
	pixel.Gray:     {rawcodec.RawL, 8, 256},
	pixel.Paletted: {rawcodec.RawP, 8, 256},
	pixel.RGB:      {rawcodec.RawBGR, 24, 0},
	pixel.RGBA:     {rawcodec.RawBGRA, 32, 0},
}

// bmpInfoHeader BMP情報ヘッダー (BITMAPINFOHEADER, 40バイト)
type bmpInfoHeader struct {
	HeaderSize      uint32 // ヘッダーサイズ
	Width           int32  // 画像の幅
	Height          int32  // 画像の高さ（正: ボトムアップ）
	Planes          uint16 // プレーン数 (常に1)
	BitCount        uint16 // ビット深度
	Compression     uint32 // 圧縮方式
	ImageSize       uint32 // 画像データサイズ
	XPixelsPerMeter uint32 // 水平解像度
	YPixelsPerMeter uint32 // 垂直解像度
	ColorsUsed      uint32 // 使用色数
	ColorsImportant uint32 // 重要な色数
}

// bmpV4Extension BITMAPV4HEADER の追加部分 (68バイト)
type bmpV4Extension struct {
	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	AlphaMask uint32
	CSType    [4]byte  // 色空間 ("BGRs" = LCS_sRGB)
	Endpoints [36]byte // CIEXYZTRIPLE（未使用）
	GammaRed  uint32
	GammaGrn  uint32
	GammaBlue uint32
}

// Encode は img をBMPファイルとして w に書き出す。
// 対応するモードは 1, L, P, RGB, RGBA。RGBA はビットフィールド圧縮を宣言した
// 108バイトヘッダーで書き出す。行は常にボトムアップで格納する。
func Encode(w io.Writer, img *pixel.Image, opts *EncodeOptions) error {
	sm, ok := saveModes[img.Mode]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedPixelMode, img.Mode)
	}
	width, height := img.Width(), img.Height()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("cannot write empty image (%dx%d)", width, height)
	}
	if int64(width)*int64(height) > maxPixels || int64(width) > math.MaxInt32 {
		return fmt.Errorf("image too large for BMP (%dx%d)", width, height)
	}
	if img.Mode == pixel.Paletted && img.Palette != nil && img.Palette.Len() > sm.colors {
		return fmt.Errorf("palette has %d colors, BMP 8-bit allows %d", img.Palette.Len(), sm.colors)
	}

	dpi := DefaultDPI
	if opts != nil && opts.DPI > 0 {
		dpi = opts.DPI
	}
	if dpi > MaxDPI {
		return fmt.Errorf("dpi %d exceeds %d", dpi, MaxDPI)
	}
	ppm := dpiToPPM(dpi)

	stride := Stride(width, sm.bits)
	headerSize := infoHeaderSize
	compression := CompressionRGB
	if img.Mode == pixel.RGBA {
		headerSize = v4HeaderSize
		compression = CompressionBitfields
	}
	offset := int64(fileHeaderSize + headerSize + sm.colors*4)
	imageSize := int64(stride) * int64(height)
	if offset+imageSize > math.MaxUint32 {
		return fmt.Errorf("image too large for BMP (%d bytes)", offset+imageSize)
	}

	tile, err := rawcodec.NewTile(img.Rect, offset, sm.raw, stride, rawcodec.BottomUp)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	fh := bmpFileHeader{
		Signature:  [2]byte{'B', 'M'},
		FileSize:   uint32(offset + imageSize),
		DataOffset: uint32(offset),
	}
	if err := binary.Write(bw, binary.LittleEndian, &fh); err != nil {
		return fmt.Errorf("failed to write BMP file header: %w", err)
	}

	ih := bmpInfoHeader{
		HeaderSize:      uint32(headerSize),
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitCount:        uint16(sm.bits),
		Compression:     uint32(compression),
		ImageSize:       uint32(imageSize),
		XPixelsPerMeter: ppm,
		YPixelsPerMeter: ppm,
		ColorsUsed:      uint32(sm.colors),
		ColorsImportant: uint32(sm.colors),
	}
	if err := binary.Write(bw, binary.LittleEndian, &ih); err != nil {
		return fmt.Errorf("failed to write BMP info header: %w", err)
	}

	if img.Mode == pixel.RGBA {
		ext := bmpV4Extension{
			RedMask:   0x00ff0000,
			GreenMask: 0x0000ff00,
			BlueMask:  0x000000ff,
			AlphaMask: 0xff000000,
			CSType:    [4]byte{'B', 'G', 'R', 's'},
		}
		if err := binary.Write(bw, binary.LittleEndian, &ext); err != nil {
			return fmt.Errorf("failed to write BMP channel masks: %w", err)
		}
	}

	if _, err := bw.Write(paletteBytes(img, sm.colors)); err != nil {
		return fmt.Errorf("failed to write BMP palette: %w", err)
	}

	if err := rawcodec.Encode(bw, tile, img); err != nil {
		return err
	}
	return bw.Flush()
}

// paletteBytes はモードに応じたBGRX形式のパレットを返す
func paletteBytes(img *pixel.Image, colors int) []byte {
	out := make([]byte, colors*4)
	switch img.Mode {
	case pixel.Bilevel:
		// 2色パレットは {0, 255} で表す
		for i, v := range []byte{0, 255} {
			out[i*4], out[i*4+1], out[i*4+2] = v, v, v
		}
	case pixel.Gray:
		for i := 0; i < colors; i++ {
			out[i*4], out[i*4+1], out[i*4+2] = byte(i), byte(i), byte(i)
		}
	case pixel.Paletted:
		if img.Palette != nil {
			// 足りないエントリは黒のまま
			copy(out, img.Palette.Bytes("BGRX"))
		} else {
			for i := 0; i < colors; i++ {
				out[i*4], out[i*4+1], out[i*4+2] = byte(i), byte(i), byte(i)
			}
		}
	}
	return out
}

// EncodeImage は標準の image.Image を変換してから書き出す
func EncodeImage(w io.Writer, m image.Image, opts *EncodeOptions) error {
	img, err := pixel.FromImage(m)
	if err != nil {
		return err
	}
	return Encode(w, img, opts)
}

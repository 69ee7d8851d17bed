package bmp

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/zurustar/bmpkit/pkg/pixel"
	"github.com/zurustar/bmpkit/pkg/rawcodec"
)

// TestOpen_NotBMP はシグネチャが違う場合に ErrNotThisFormat を返すことをテストする
func TestOpen_NotBMP(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte", []byte{'B'}},
		{"PNG", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")},
		{"lowercase", []byte("bm\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotThisFormat) {
				t.Errorf("error = %v, want %v", err, ErrNotThisFormat)
			}
			if !IsNotThisFormat(err) {
				t.Error("IsNotThisFormat() = false")
			}
		})
	}
}

func TestOpen_TruncatedFileHeader(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("BM\x00\x00")))
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("error = %v, want %v", err, ErrMalformedHeader)
	}
}

func TestAccept(t *testing.T) {
	if !Accept([]byte("BM")) {
		t.Error("Accept(BM) = false")
	}
	if Accept([]byte("B")) || Accept([]byte("MB")) {
		t.Error("Accept should reject non-BMP prefixes")
	}
}

// TestDecode_24BitBottomUp は非圧縮24ビットBMPのデコードをテストする
func TestDecode_24BitBottomUp(t *testing.T) {
	// 2x2、1行6バイト + パディング2バイト
	pixels := []byte{
		// 下の行 (y=1): 青, 白
		0xff, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00,
		// 上の行 (y=0): 赤, 緑
		0x00, 0x00, 0xff, 0x00, 0xff, 0x00, 0x00, 0x00,
	}
	data := buildBMP(testHeader{size: infoHeaderSize, width: 2, height: 2, bits: 24, ppm: 3780}, nil, pixels)

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if img.Mode != pixel.RGB {
		t.Fatalf("Mode = %s, want RGB", img.Mode)
	}

	want := map[[2]int]color.RGBA{
		{0, 0}: {0xff, 0, 0, 0xff},
		{1, 0}: {0, 0xff, 0, 0xff},
		{0, 1}: {0, 0, 0xff, 0xff},
		{1, 1}: {0xff, 0xff, 0xff, 0xff},
	}
	for p, c := range want {
		if got := img.At(p[0], p[1]); got != c {
			t.Errorf("At(%d,%d) = %v, want %v", p[0], p[1], got, c)
		}
	}

	if img.Info.DPI != [2]int{97, 97} {
		t.Errorf("DPI = %v, want [97 97]", img.Info.DPI)
	}
	if img.Info.Compression != "raw" || img.Info.Format != "BMP" {
		t.Errorf("Info = %+v", img.Info)
	}
}

func TestDecode_TopDown(t *testing.T) {
	pixels := []byte{
		0x01, 0x00, 0x00, 0x00, // y=0
		0x02, 0x00, 0x00, 0x00, // y=1
		0x03, 0x00, 0x00, 0x00, // y=2
	}
	pal := greyPalette(256, 4)
	pal[3*4] = 0xaa // パレットを階調でなくする

	data := buildBMP(testHeader{size: infoHeaderSize, width: 1, height: -3, bits: 8}, pal, pixels)
	f, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Tile.Direction() != rawcodec.TopDown {
		t.Errorf("Direction = %v, want top-down", f.Tile.Direction())
	}

	img, err := f.Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for y := 0; y < 3; y++ {
		if got := img.Row(y)[0]; got != byte(y+1) {
			t.Errorf("row %d = %d, want %d", y, got, y+1)
		}
	}
	if img.Palette == nil || img.Palette.Order != "BGR" {
		t.Fatalf("palette = %+v, want BGR palette", img.Palette)
	}
	if c := img.Palette.Colors[3].(color.RGBA); c.B != 0xaa || c.R != 3 {
		t.Errorf("palette[3] = %v", c)
	}
}

// TestDecode_DataOffset はファイルヘッダーのオフセットまで読み飛ばすことをテストする
func TestDecode_DataOffset(t *testing.T) {
	pixels := []byte{0x10, 0x20, 0x30, 0x00}
	data := buildBMP(testHeader{size: infoHeaderSize, width: 1, height: 1, bits: 24}, nil, nil)
	gap := []byte{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad}
	data = append(data, gap...)
	data = append(data, pixels...)
	data[10] += byte(len(gap))

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if got := img.At(0, 0); got != (color.RGBA{0x30, 0x20, 0x10, 0xff}) {
		t.Errorf("At(0,0) = %v", got)
	}
}

// TestDecode_1BitBilevel は2色パレットの1ビット画像が 0/255 の画素になることをテストする
func TestDecode_1BitBilevel(t *testing.T) {
	pixels := []byte{0xa5, 0x80, 0x00, 0x00} // 10100101 1
	data := buildBMP(testHeader{size: infoHeaderSize, width: 9, height: 1, bits: 1, colors: 2}, greyPalette(2, 4), pixels)

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if img.Mode != pixel.Bilevel {
		t.Fatalf("Mode = %s, want 1", img.Mode)
	}
	want := []byte{255, 0, 255, 0, 0, 255, 0, 255, 255}
	if !bytes.Equal(img.Row(0), want) {
		t.Errorf("row = %v, want %v", img.Row(0), want)
	}
	if img.Palette != nil {
		t.Error("bilevel image must not carry a palette")
	}
}

func TestDecode_4BitIndexed(t *testing.T) {
	pal := make([]byte, 16*4)
	for i := 0; i < 16; i++ {
		pal[i*4+2] = byte(i * 16) // 赤の階調
	}
	pixels := []byte{0x12, 0x3f, 0x00, 0x00}
	data := buildBMP(testHeader{size: infoHeaderSize, width: 3, height: 1, bits: 4}, pal, pixels)

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if img.Mode != pixel.Paletted {
		t.Fatalf("Mode = %s, want P", img.Mode)
	}
	if want := []byte{1, 2, 3}; !bytes.Equal(img.Row(0), want) {
		t.Errorf("row = %v, want %v", img.Row(0), want)
	}
	if got := img.At(2, 0); got != (color.RGBA{48, 0, 0, 0xff}) {
		t.Errorf("At(2,0) = %v", got)
	}
}

func TestDecode_16BitBitfields565(t *testing.T) {
	m := Masks{R: 0xf800, G: 0x07e0, B: 0x001f}
	// 純粋な赤 (0xf800) と緑 (0x07e0)
	pixels := []byte{0x00, 0xf8, 0xe0, 0x07}

	for _, size := range []int{infoHeaderSize, os2HeaderSize} {
		t.Run(fmt.Sprintf("%d-byte header", size), func(t *testing.T) {
			data := buildBMP(testHeader{size: size, width: 2, height: 1, bits: 16, compression: 3, masks: &m}, nil, pixels)

			img, err := Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Failed to decode BMP: %v", err)
			}
			if got := img.At(0, 0); got != (color.RGBA{0xff, 0, 0, 0xff}) {
				t.Errorf("At(0,0) = %v", got)
			}
			if got := img.At(1, 0); got != (color.RGBA{0, 0xff, 0, 0xff}) {
				t.Errorf("At(1,0) = %v", got)
			}
			if img.Info.Compression != "bitfields" {
				t.Errorf("Compression = %q", img.Info.Compression)
			}
		})
	}
}

func TestDecode_32BitBGRA(t *testing.T) {
	m := Masks{R: 0xff0000, G: 0xff00, B: 0xff, A: 0xff000000}
	pixels := []byte{0x10, 0x20, 0x30, 0x80}
	data := buildBMP(testHeader{size: v5HeaderSize, width: 1, height: 1, bits: 32, compression: 3, masks: &m}, nil, pixels)

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if img.Mode != pixel.RGBA {
		t.Fatalf("Mode = %s, want RGBA", img.Mode)
	}
	if got := img.At(0, 0); got != (color.NRGBA{0x30, 0x20, 0x10, 0x80}) {
		t.Errorf("At(0,0) = %v", got)
	}
}

// TestDecode_OS2Core は12バイトヘッダーのBMPのデコードをテストする
func TestDecode_OS2Core(t *testing.T) {
	pal := []byte{0x00, 0x00, 0xff, 0xff, 0x00, 0x00} // 赤, 青
	pixels := []byte{0x40, 0x00, 0x00, 0x00}          // 01
	data := buildBMP(testHeader{size: coreHeaderSize, width: 2, height: 1, bits: 1}, pal, pixels)

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if got := img.At(0, 0); got != (color.RGBA{0xff, 0, 0, 0xff}) {
		t.Errorf("At(0,0) = %v", got)
	}
	if got := img.At(1, 0); got != (color.RGBA{0, 0, 0xff, 0xff}) {
		t.Errorf("At(1,0) = %v", got)
	}
	if img.Info.DPI != [2]int{0, 0} {
		t.Errorf("DPI = %v, want none", img.Info.DPI)
	}
}

// TestDecodeDIB はファイルヘッダーなしのビットマップをパレット直後から読むことをテストする
func TestDecodeDIB(t *testing.T) {
	pixels := []byte{0x00, 0x80, 0xff, 0x00}
	dib := buildDIB(testHeader{size: infoHeaderSize, width: 3, height: 1, bits: 8}, greyPalette(256, 4), pixels)

	img, err := DecodeDIB(bytes.NewReader(dib))
	if err != nil {
		t.Fatalf("Failed to decode DIB: %v", err)
	}
	if img.Mode != pixel.Gray {
		t.Fatalf("Mode = %s, want L", img.Mode)
	}
	if want := []byte{0x00, 0x80, 0xff}; !bytes.Equal(img.Row(0), want) {
		t.Errorf("row = %v, want %v", img.Row(0), want)
	}
	if img.Info.Format != "DIB" {
		t.Errorf("Format = %q, want DIB", img.Info.Format)
	}

	// BMPとして開くとシグネチャ不一致になる
	if _, err := Decode(bytes.NewReader(dib)); !errors.Is(err, ErrNotThisFormat) {
		t.Errorf("Decode(dib) error = %v, want %v", err, ErrNotThisFormat)
	}
}

func TestDecode_TruncatedPixels(t *testing.T) {
	data := buildBMP(testHeader{size: infoHeaderSize, width: 4, height: 4, bits: 24}, nil, make([]byte, 20))
	_, err := Decode(bytes.NewReader(data))
	if !errors.Is(err, rawcodec.ErrShortData) {
		t.Errorf("error = %v, want %v", err, rawcodec.ErrShortData)
	}
}

func TestDecodeConfig(t *testing.T) {
	data := buildBMP(testHeader{size: infoHeaderSize, width: 7, height: -5, bits: 32}, nil, nil)
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 7 || cfg.Height != 5 {
		t.Errorf("size = %dx%d, want 7x5", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.NRGBAModel {
		t.Errorf("ColorModel = %v, want NRGBA", cfg.ColorModel)
	}
}

// onlyReader は io.Reader だけを実装する
type onlyReader struct{ r *bytes.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func TestDecode_NonSeekableReader(t *testing.T) {
	data := buildBMP(testHeader{size: infoHeaderSize, width: 1, height: 1, bits: 24}, nil, []byte{1, 2, 3, 0})
	img, err := Decode(onlyReader{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Failed to decode BMP: %v", err)
	}
	if got := img.At(0, 0); got != (color.RGBA{3, 2, 1, 0xff}) {
		t.Errorf("At(0,0) = %v", got)
	}
}

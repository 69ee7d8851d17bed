package rawcodec

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

func TestUnpack(t *testing.T) {
	tests := []struct {
		raw   RawMode
		width int
		src   []byte
		want  []byte
	}{
		{RawBilevel, 10, []byte{0xa5, 0xc0}, []byte{255, 0, 255, 0, 0, 255, 0, 255, 255, 255}},
		{RawP1, 10, []byte{0xa5, 0xc0}, []byte{1, 0, 1, 0, 0, 1, 0, 1, 1, 1}},
		{RawP4, 3, []byte{0x12, 0x3f}, []byte{1, 2, 3}},
		{RawL4, 4, []byte{0xf0, 0x7a}, []byte{15, 0, 7, 10}},
		{RawP, 3, []byte{9, 8, 7}, []byte{9, 8, 7}},
		{RawL, 2, []byte{0, 255}, []byte{0, 255}},
		{RawBGR, 2, []byte{1, 2, 3, 4, 5, 6}, []byte{3, 2, 1, 6, 5, 4}},
		{RawBGRA, 1, []byte{1, 2, 3, 4}, []byte{3, 2, 1, 4}},
		{RawBGR15, 2, []byte{0x00, 0x7c, 0x1f, 0x00}, []byte{255, 0, 0, 0, 0, 255}},
		{RawBGR16, 2, []byte{0xe0, 0x07, 0x1f, 0x00}, []byte{0, 255, 0, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			info, err := lookup(tt.raw)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			dst := make([]byte, len(tt.want))
			info.unpack(dst, tt.src, tt.width)
			if !bytes.Equal(dst, tt.want) {
				t.Errorf("unpack = %v, want %v", dst, tt.want)
			}
		})
	}
}

func TestBitsPerPixel(t *testing.T) {
	if RawBGR.BitsPerPixel() != 24 || RawP4.BitsPerPixel() != 4 || RawMode("XYZ").BitsPerPixel() != 0 {
		t.Error("unexpected BitsPerPixel values")
	}
	if RawL4.PixelMode() != pixel.Gray || RawBGRA.PixelMode() != pixel.RGBA {
		t.Error("unexpected PixelMode values")
	}
}

func TestNewTile_Errors(t *testing.T) {
	box := image.Rect(0, 0, 10, 2)
	tests := []struct {
		name   string
		box    image.Rectangle
		offset int64
		raw    RawMode
		stride int
		dir    Direction
	}{
		{"unknown raw", box, 0, "RGB;7", 40, BottomUp},
		{"empty box", image.Rect(0, 0, 0, 2), 0, RawP, 4, BottomUp},
		{"negative offset", box, -1, RawP, 12, BottomUp},
		{"short stride", box, 0, RawBGR, 20, BottomUp},
		{"bad direction", box, 0, RawP, 12, Direction(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTile(tt.box, tt.offset, tt.raw, tt.stride, tt.dir); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDecode_Directions(t *testing.T) {
	// 3行、各行 [行番号, パディング...]
	data := []byte{0xee, 0xee, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}

	for _, tt := range []struct {
		dir  Direction
		want []byte
	}{
		{TopDown, []byte{1, 2, 3}},
		{BottomUp, []byte{3, 2, 1}},
	} {
		t.Run(tt.dir.String(), func(t *testing.T) {
			tile, err := NewTile(image.Rect(0, 0, 1, 3), 2, RawL, 4, tt.dir)
			if err != nil {
				t.Fatalf("NewTile: %v", err)
			}
			img, _ := pixel.New(pixel.Gray, 1, 3)
			if err := Decode(bytes.NewReader(data), tile, img); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(img.Pix, tt.want) {
				t.Errorf("Pix = %v, want %v", img.Pix, tt.want)
			}
		})
	}
}

func TestDecode_ModeMismatch(t *testing.T) {
	tile, _ := NewTile(image.Rect(0, 0, 1, 1), 0, RawBGR, 4, BottomUp)
	img, _ := pixel.New(pixel.Gray, 1, 1)
	if err := Decode(bytes.NewReader(make([]byte, 4)), tile, img); err == nil {
		t.Error("expected error for mode mismatch, got nil")
	}
}

func TestDecode_ShortData(t *testing.T) {
	tile, _ := NewTile(image.Rect(0, 0, 2, 2), 0, RawBGR, 8, BottomUp)
	img, _ := pixel.New(pixel.RGB, 2, 2)
	err := Decode(bytes.NewReader(make([]byte, 10)), tile, img)
	if !errors.Is(err, ErrShortData) {
		t.Errorf("error = %v, want %v", err, ErrShortData)
	}
}

func TestEncode_Padding(t *testing.T) {
	img, _ := pixel.New(pixel.RGB, 1, 2)
	copy(img.Pix, []byte{1, 2, 3, 4, 5, 6})
	tile, _ := NewTile(img.Rect, 0, RawBGR, 4, BottomUp)

	var buf bytes.Buffer
	if err := Encode(&buf, tile, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{6, 5, 4, 0, 3, 2, 1, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Encode = %v, want %v", buf.Bytes(), want)
	}
}

// Property 1: 詰め直した生データを展開すると元の画素に戻る
// 損失のない配置（1, P;1, P;4, L;4, P, L, BGR, BGRA）で unpack(pack(row)) == row が成り立つ。
func TestProperty1_PackUnpackInverse(t *testing.T) {
	lossless := []RawMode{RawBilevel, RawP1, RawP4, RawL4, RawP, RawL, RawBGR, RawBGRA}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("unpack(pack(row)) == row", prop.ForAll(
		func(modeIdx int, row []uint8) bool {
			raw := lossless[modeIdx]
			info := rawModes[raw]
			bpp := info.mode.BytesPerPixel()
			width := len(row) / bpp
			src := make([]byte, width*bpp)
			copy(src, row)
			// 配置が表せる値に揃える
			for i := range src {
				switch raw {
				case RawBilevel:
					src[i] = (src[i] & 1) * 255
				case RawP1:
					src[i] &= 1
				case RawP4, RawL4:
					src[i] &= 0x0f
				}
			}

			packed := make([]byte, Stride(width, info.bits))
			info.pack(packed, src, width)
			got := make([]byte, len(src))
			info.unpack(got, packed, width)
			return bytes.Equal(got, src)
		},
		gen.IntRange(0, len(lossless)-1),
		gen.SliceOf(gen.UInt8()),
	))

	// 5ビット値から伸張した画素は BGR;15 で往復しても変わらない
	properties.Property("BGR;15 round trip of expanded values", prop.ForAll(
		func(vals []uint16) bool {
			width := len(vals)
			packed := make([]byte, width*2)
			for i, v := range vals {
				v &= 0x7fff
				packed[i*2], packed[i*2+1] = byte(v), byte(v>>8)
			}
			rgb := make([]byte, width*3)
			unpackBGR15(rgb, packed, width)
			again := make([]byte, width*2)
			packBGR15(again, rgb, width)
			for i := 0; i < width; i++ {
				if again[i*2] != packed[i*2] || again[i*2+1] != packed[i*2+1] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt16()),
	))

	properties.TestingRun(t)
}

package bmp

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

var writableModes = []pixel.Mode{pixel.Bilevel, pixel.Gray, pixel.Paletted, pixel.RGB, pixel.RGBA}

// randomImage は seed から決まる画素で画像を作る
func randomImage(mode pixel.Mode, w, h int, seed int64) *pixel.Image {
	rng := rand.New(rand.NewSource(seed))
	img, _ := pixel.New(mode, w, h)
	rng.Read(img.Pix)
	switch mode {
	case pixel.Bilevel:
		for i := range img.Pix {
			img.Pix[i] = (img.Pix[i] & 1) * 255
		}
	case pixel.Paletted:
		pal := make([]byte, 256*3)
		rng.Read(pal)
		pal[0], pal[1], pal[2] = 1, 2, 3 // 階調にならないようにする
		img.Palette, _ = pixel.NewPalette("RGB", pal)
	}
	return img
}

// Property 1: 書き出したBMPを読み戻すと元の画像と一致する
// 任意のサイズ・モード・画素値について decode(encode(img)) == img が成り立つ。
func TestProperty1_EncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(img)) == img", prop.ForAll(
		func(w, h, modeIdx int, seed int64) bool {
			src := randomImage(writableModes[modeIdx], w, h, seed)

			var buf bytes.Buffer
			if err := Encode(&buf, src, nil); err != nil {
				return false
			}
			got, err := Decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				return false
			}
			return pixel.Equal(src, got)
		},
		gen.IntRange(1, 70),
		gen.IntRange(1, 12),
		gen.IntRange(0, len(writableModes)-1),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// Property 2: 行のバイト数は4の倍数で、幅×ビット深度を収める最小の値になる
func TestProperty2_StrideAlignment(t *testing.T) {
	depths := []int{1, 4, 8, 16, 24, 32}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("stride is the smallest multiple of 4 that holds a row", prop.ForAll(
		func(width, bits int) bool {
			stride := Stride(width, bits)
			rowBits := width * bits
			return stride%4 == 0 && stride*8 >= rowBits && stride*8-rowBits < 32
		},
		gen.IntRange(1, 100000),
		gen.IntRange(0, len(depths)-1).Map(func(i int) int { return depths[i] }),
	))

	properties.TestingRun(t)
}

// Property 3: 不正なバイト列を与えてもパニックせず、エラーか画像のどちらかを返す
func TestProperty3_HostileInputNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("Decode returns an image or an error", prop.ForAll(
		func(body []uint8, headerSizeIdx int) bool {
			sizes := []uint32{coreHeaderSize, infoHeaderSize, os2HeaderSize, v4HeaderSize, v5HeaderSize}
			data := []byte{'B', 'M', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
			size := sizes[headerSizeIdx]
			data = append(data, byte(size), byte(size>>8), 0, 0)
			data = append(data, body...)

			img, err := Decode(bytes.NewReader(data))
			return (img == nil) != (err == nil)
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

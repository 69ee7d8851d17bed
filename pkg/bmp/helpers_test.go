package bmp

import (
	"bytes"
	"encoding/binary"
)

// testHeader はテスト用の情報ヘッダーの内容
type testHeader struct {
	size        int
	width       int32
	height      int32
	bits        uint16
	compression uint32
	ppm         uint32
	colors      uint32
	masks       *Masks // 64/108/124バイトヘッダーではヘッダー内に、40バイトでは直後に書く
}

// bytes は情報ヘッダー（と40バイトヘッダーの場合のマスク）のバイト列を作る
func (th testHeader) bytes() []byte {
	le := binary.LittleEndian
	s := make([]byte, th.size)
	le.PutUint32(s[0:], uint32(th.size))
	if th.size == coreHeaderSize {
		le.PutUint16(s[4:], uint16(th.width))
		le.PutUint16(s[6:], uint16(th.height))
		le.PutUint16(s[8:], 1)
		le.PutUint16(s[10:], th.bits)
		return s
	}
	le.PutUint32(s[4:], uint32(th.width))
	le.PutUint32(s[8:], uint32(th.height))
	le.PutUint16(s[12:], 1)
	le.PutUint16(s[14:], th.bits)
	le.PutUint32(s[16:], th.compression)
	le.PutUint32(s[24:], th.ppm)
	le.PutUint32(s[28:], th.ppm)
	le.PutUint32(s[32:], th.colors)
	if th.masks != nil {
		m := th.masks
		if th.size >= os2HeaderSize {
			le.PutUint32(s[40:], m.R)
			le.PutUint32(s[44:], m.G)
			le.PutUint32(s[48:], m.B)
			le.PutUint32(s[52:], m.A)
		} else {
			var extra [12]byte
			le.PutUint32(extra[0:], m.R)
			le.PutUint32(extra[4:], m.G)
			le.PutUint32(extra[8:], m.B)
			s = append(s, extra[:]...)
		}
	}
	return s
}

// buildDIB は情報ヘッダー・パレット・画素データを連結する
func buildDIB(th testHeader, palette []byte, pixels []byte) []byte {
	var buf bytes.Buffer
	buf.Write(th.bytes())
	buf.Write(palette)
	buf.Write(pixels)
	return buf.Bytes()
}

// buildBMP はファイルヘッダーを付けたBMPを作る。画素データはパレットの直後に置く。
func buildBMP(th testHeader, palette []byte, pixels []byte) []byte {
	dib := buildDIB(th, palette, pixels)
	offset := fileHeaderSize + len(dib) - len(pixels)
	le := binary.LittleEndian
	out := make([]byte, fileHeaderSize, fileHeaderSize+len(dib))
	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(fileHeaderSize+len(dib)))
	le.PutUint32(out[10:], uint32(offset))
	return append(out, dib...)
}

// greyPalette は n エントリの (i,i,i) パレットを entrySize バイト単位で作る
func greyPalette(n, entrySize int) []byte {
	out := make([]byte, 0, n*entrySize)
	for i := 0; i < n; i++ {
		v := byte(i)
		if n == 2 && i == 1 {
			v = 255
		}
		e := make([]byte, entrySize)
		e[0], e[1], e[2] = v, v, v
		out = append(out, e...)
	}
	return out
}

package bmp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WrapDIB はファイルヘッダーを持たないDIB（アイコンリソースやクリップボードの中身）の
// 先頭に14バイトのファイルヘッダーを付け、単体のBMPファイルにする。
// dpi が正で、ヘッダーが解像度フィールドを持つ場合は解像度を書き換える。
// 画素データのオフセットはヘッダー・マスク・パレットの大きさから求める。
func WrapDIB(dib []byte, dpi int) ([]byte, error) {
	if dpi > MaxDPI {
		return nil, fmt.Errorf("dpi %d exceeds %d", dpi, MaxDPI)
	}
	r := bytes.NewReader(dib)
	f, err := OpenDIB(r)
	if err != nil {
		return nil, err
	}
	if len(dib) < f.Header.Size {
		return nil, fmt.Errorf("%w: DIB is shorter than its header (%d < %d)", ErrMalformedHeader, len(dib), f.Header.Size)
	}

	out := make([]byte, fileHeaderSize+len(dib))
	if int64(len(out)) > math.MaxUint32 {
		return nil, fmt.Errorf("DIB too large to wrap (%d bytes)", len(dib))
	}
	body := out[fileHeaderSize:]
	copy(body, dib)

	if dpi > 0 && f.Header.HasResolution {
		ppm := dpiToPPM(dpi)
		binary.LittleEndian.PutUint32(body[24:], ppm)
		binary.LittleEndian.PutUint32(body[28:], ppm)
	}

	le := binary.LittleEndian
	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(len(out)))
	le.PutUint32(out[10:], uint32(fileHeaderSize+f.Tile.Offset()))
	return out, nil
}

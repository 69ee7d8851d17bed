package bmp

import (
	"fmt"
	"io"
)

// PaletteSink はデコードしたパレットを受け取る。
// rgb は order で示すチャネル順の3バイト組の並び。
type PaletteSink interface {
	SetPalette(order string, rgb []byte) error
}

// PaletteTable はファイルから読み込んだパレット
type PaletteTable struct {
	Order string // チャネル順（BMPでは常に "BGR"）
	Data  []byte // 3バイト × 色数
}

// Len は色数を返す
func (p *PaletteTable) Len() int { return len(p.Data) / 3 }

// readPalette は entrySize バイトのエントリを colors 個読み、先頭3バイトをBGRとして保持する。
// 同時に、すべてのエントリ i が (i,i,i) に等しいか（グレースケールの階調か）を判定する。
// 2色パレットでは比較するインデックスを {0, 255} とする。
func readPalette(r io.Reader, colors, entrySize int) (*PaletteTable, bool, error) {
	data := make([]byte, colors*3)
	entry := make([]byte, entrySize)
	grey := true
	for i := 0; i < colors; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return nil, false, fmt.Errorf("%w: palette truncated at entry %d of %d: %v", ErrMalformedHeader, i, colors, err)
		}
		v := i
		if colors == 2 && i == 1 {
			v = 255
		}
		if v > 255 || entry[0] != byte(v) || entry[1] != byte(v) || entry[2] != byte(v) {
			grey = false
		}
		copy(data[i*3:], entry[:3])
	}
	return &PaletteTable{Order: "BGR", Data: data}, grey, nil
}

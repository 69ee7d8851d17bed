package rawcodec

import (
	"fmt"
	"image"
)

// Direction は生データ上の行の並び順
type Direction int

const (
	TopDown  Direction = 1  // 先頭の行が画像の一番上
	BottomUp Direction = -1 // 先頭の行が画像の一番下（BMPの既定）
)

func (d Direction) String() string {
	if d == TopDown {
		return "top-down"
	}
	return "bottom-up"
}

// Tile は矩形領域を読み書きするための記述子。作成後は変更できない。
type Tile struct {
	box       image.Rectangle
	offset    int64
	raw       RawMode
	stride    int
	direction Direction
}

// NewTile は Tile を作成する。stride が raw と幅から求まる最小値より小さい場合はエラー。
func NewTile(box image.Rectangle, offset int64, raw RawMode, stride int, dir Direction) (Tile, error) {
	info, err := lookup(raw)
	if err != nil {
		return Tile{}, err
	}
	if box.Empty() {
		return Tile{}, fmt.Errorf("empty tile box: %v", box)
	}
	if offset < 0 {
		return Tile{}, fmt.Errorf("negative tile offset: %d", offset)
	}
	need := (int64(box.Dx())*int64(info.bits) + 7) / 8
	if int64(stride) < need {
		return Tile{}, fmt.Errorf("stride %d too small for %d pixels of %s", stride, box.Dx(), raw)
	}
	if dir != TopDown && dir != BottomUp {
		return Tile{}, fmt.Errorf("invalid direction: %d", dir)
	}
	return Tile{box: box, offset: offset, raw: raw, stride: stride, direction: dir}, nil
}

func (t Tile) Box() image.Rectangle { return t.box }
func (t Tile) Offset() int64        { return t.offset }
func (t Tile) RawMode() RawMode     { return t.raw }
func (t Tile) Stride() int          { return t.stride }
func (t Tile) Direction() Direction { return t.direction }

// DataSize は領域全体の生データのバイト数
func (t Tile) DataSize() int64 {
	return int64(t.stride) * int64(t.box.Dy())
}

func (t Tile) String() string {
	return fmt.Sprintf("raw %v offset=%d mode=%s stride=%d %s", t.box, t.offset, t.raw, t.stride, t.direction)
}

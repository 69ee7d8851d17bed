package rawcodec

import (
	"errors"
	"fmt"
	"io"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

// Decode は r の t.Offset() から t の記述どおりに行を読み、dst に展開する。
// dst のモードとサイズは t と一致していなければならない。
func Decode(r io.ReadSeeker, t Tile, dst *pixel.Image) error {
	info, err := lookup(t.raw)
	if err != nil {
		return err
	}
	if err := checkTarget(t, info, dst); err != nil {
		return err
	}
	if _, err := r.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to pixel data at %d: %w", t.offset, err)
	}

	width, height := t.box.Dx(), t.box.Dy()
	row := make([]byte, t.stride)
	for i := 0; i < height; i++ {
		if _, err := io.ReadFull(r, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: row %d of %d", ErrShortData, i, height)
			}
			return fmt.Errorf("failed to read row %d: %w", i, err)
		}
		y := i
		if t.direction == BottomUp {
			y = height - 1 - i
		}
		out := dst.Row(t.box.Min.Y + y - dst.Rect.Min.Y)
		x0 := (t.box.Min.X - dst.Rect.Min.X) * dst.Mode.BytesPerPixel()
		info.unpack(out[x0:], row, width)
	}
	return nil
}

// Encode は src を t の記述どおりに詰めて w に書き出す。
// 各行はストライドまでゼロでパディングされる。t.Offset() は使わない。
func Encode(w io.Writer, t Tile, src *pixel.Image) error {
	info, err := lookup(t.raw)
	if err != nil {
		return err
	}
	if info.pack == nil {
		return fmt.Errorf("%w: %s cannot be packed", ErrUnknownRawMode, t.raw)
	}
	if err := checkTarget(t, info, src); err != nil {
		return err
	}

	width, height := t.box.Dx(), t.box.Dy()
	row := make([]byte, t.stride)
	for i := 0; i < height; i++ {
		y := i
		if t.direction == BottomUp {
			y = height - 1 - i
		}
		clear(row)
		in := src.Row(t.box.Min.Y + y - src.Rect.Min.Y)
		x0 := (t.box.Min.X - src.Rect.Min.X) * src.Mode.BytesPerPixel()
		info.pack(row, in[x0:], width)
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}

func checkTarget(t Tile, info rawInfo, img *pixel.Image) error {
	if img.Mode != info.mode {
		return fmt.Errorf("raw mode %s needs a %s image, got %s", t.raw, info.mode, img.Mode)
	}
	if !t.box.In(img.Rect) {
		return fmt.Errorf("tile %v is outside the image %v", t.box, img.Rect)
	}
	return nil
}

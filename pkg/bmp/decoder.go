package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/zurustar/bmpkit/pkg/pixel"
	"github.com/zurustar/bmpkit/pkg/rawcodec"
)

// File は開いたビットマップのヘッダー情報と画素データの位置
type File struct {
	Format string // "BMP" または "DIB"
	Header *Header
	Layout Layout
	Tile   rawcodec.Tile
}

// Accept は先頭バイト列がBMPファイルのシグネチャかどうかを返す
func Accept(prefix []byte) bool {
	return len(prefix) >= 2 && prefix[0] == 'B' && prefix[1] == 'M'
}

// Open は14バイトのファイルヘッダーから始まるBMPファイルを開く。
// r は先頭（シグネチャの位置）にある必要がある。画素データはまだ読まない。
func Open(r io.ReadSeeker) (*File, error) {
	var buf [fileHeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if n < 2 || !Accept(buf[:n]) {
		return nil, ErrNotThisFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read file header: %v", ErrMalformedHeader, err)
	}

	var fh bmpFileHeader
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("failed to read BMP file header: %w", err)
	}

	f, err := parseBitmap(r, int64(fh.DataOffset))
	if err != nil {
		return nil, err
	}
	f.Format = "BMP"
	return f, nil
}

// OpenDIB はファイルヘッダーを持たないビットマップ（リソースやクリップボード内のDIB）を開く。
// r は情報ヘッダーの先頭にある必要がある。画素データはパレットの直後から始まるものとする。
func OpenDIB(r io.ReadSeeker) (*File, error) {
	f, err := parseBitmap(r, 0)
	if err != nil {
		return nil, err
	}
	f.Format = "DIB"
	return f, nil
}

// parseBitmap は情報ヘッダーとパレットを読み、画素データのタイルを組み立てる。
// dataOffset が0の場合、パレットを読み終えた位置を画素データの先頭とする。
func parseBitmap(r io.ReadSeeker, dataOffset int64) (*File, error) {
	h, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	layout, err := resolveLayout(h, r)
	if err != nil {
		return nil, err
	}

	if dataOffset == 0 {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("failed to get pixel data position: %w", err)
		}
		dataOffset = pos
	}

	dir := rawcodec.BottomUp
	if h.TopDown {
		dir = rawcodec.TopDown
	}
	tile, err := rawcodec.NewTile(image.Rect(0, 0, h.Width, h.Height), dataOffset, layout.Raw, layout.Stride, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	slog.Debug("BMP header parsed",
		"headerSize", h.Size,
		"width", h.Width,
		"height", h.Height,
		"bits", h.BitCount,
		"compression", h.Compression.String(),
		"mode", string(layout.Mode),
		"raw", string(layout.Raw),
		"stride", layout.Stride,
		"direction", dir.String(),
		"offset", dataOffset)

	return &File{Header: h, Layout: layout, Tile: tile}, nil
}

// Config は画像の大きさとカラーモデルを返す
func (f *File) Config() image.Config {
	img := &pixel.Image{Mode: f.Layout.Mode}
	if f.Layout.Palette != nil {
		// ColorModel のためだけにパレットを組み立てる
		img.Palette, _ = pixel.NewPalette(f.Layout.Palette.Order, f.Layout.Palette.Data)
	}
	return image.Config{
		ColorModel: img.ColorModel(),
		Width:      f.Header.Width,
		Height:     f.Header.Height,
	}
}

// Info はデコード結果に付ける付随情報を返す
func (f *File) Info() pixel.Info {
	info := pixel.Info{Compression: f.Header.Compression.String(), Format: f.Format}
	if f.Header.HasResolution {
		info.DPI = f.Header.DPI
	}
	return info
}

// ApplyPalette はパレットを保持している場合に sink へ渡す
func (f *File) ApplyPalette(sink PaletteSink) error {
	if f.Layout.Palette == nil {
		return nil
	}
	return sink.SetPalette(f.Layout.Palette.Order, f.Layout.Palette.Data)
}

// Load は画素データを読み込んで画像を返す
func (f *File) Load(r io.ReadSeeker) (*pixel.Image, error) {
	// 画素バッファを確保する前に、データが足りているか確認する
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream size: %w", err)
	}
	if need := f.Tile.Offset() + f.Tile.DataSize(); need > end {
		return nil, fmt.Errorf("failed to decode pixel data: %w: need %d bytes, have %d", rawcodec.ErrShortData, need, end)
	}

	img, err := pixel.New(f.Layout.Mode, f.Header.Width, f.Header.Height)
	if err != nil {
		return nil, err
	}
	if err := f.ApplyPalette(img); err != nil {
		return nil, fmt.Errorf("failed to set palette: %w", err)
	}
	if err := rawcodec.Decode(r, f.Tile, img); err != nil {
		return nil, fmt.Errorf("failed to decode pixel data: %w", err)
	}
	img.Info = f.Info()
	return img, nil
}

// asReadSeeker は r が io.ReadSeeker でなければ全体をメモリに読み込む
func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Decode はBMPファイルをデコードする
func Decode(r io.Reader) (*pixel.Image, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}
	f, err := Open(rs)
	if err != nil {
		return nil, err
	}
	return f.Load(rs)
}

// DecodeDIB はファイルヘッダーのないビットマップをデコードする
func DecodeDIB(r io.Reader) (*pixel.Image, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}
	f, err := OpenDIB(rs)
	if err != nil {
		return nil, err
	}
	return f.Load(rs)
}

// DecodeConfig は画素データを読まずに大きさとカラーモデルを返す
func DecodeConfig(r io.Reader) (image.Config, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return image.Config{}, err
	}
	f, err := Open(rs)
	if err != nil {
		return image.Config{}, err
	}
	return f.Config(), nil
}

// IsNotThisFormat はエラーがシグネチャ不一致によるものかどうかを返す
func IsNotThisFormat(err error) bool {
	return errors.Is(err, ErrNotThisFormat)
}

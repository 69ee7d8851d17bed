package format

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zurustar/bmpkit/pkg/bmp"
	"github.com/zurustar/bmpkit/pkg/pixel"
)

// Open は先頭バイト列から判定したフォーマットで画像を読み込む
func (r *Registry) Open(rs io.ReadSeeker) (*pixel.Image, *Format, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get stream position: %w", err)
	}
	prefix := make([]byte, PrefixSize)
	n, err := io.ReadFull(rs, prefix)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to read signature: %w", err)
	}
	prefix = prefix[:n]

	for _, f := range r.Sniff(prefix) {
		if f.Decode == nil {
			continue
		}
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, nil, fmt.Errorf("failed to rewind stream: %w", err)
		}
		img, err := f.Decode(rs)
		if errors.Is(err, bmp.ErrNotThisFormat) {
			continue
		}
		if err != nil {
			return nil, f, fmt.Errorf("failed to decode %s: %w", f.Name, err)
		}
		if img.Info.Format == "" {
			img.Info.Format = f.Name
		}
		return img, f, nil
	}
	return nil, nil, ErrFormatNotFound
}

// OpenAs は名前で指定したフォーマットで画像を読み込む
func (r *Registry) OpenAs(rs io.ReadSeeker, name string) (*pixel.Image, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	if f.Decode == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDecoder, f.Name)
	}
	img, err := f.Decode(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	if img.Info.Format == "" {
		img.Info.Format = f.Name
	}
	return img, nil
}

// OpenFile はファイルを開いて画像を読み込む。
// シグネチャで判定できない場合は拡張子で選んだフォーマットを試す。
func (r *Registry) OpenFile(path string) (*pixel.Image, *Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	img, f, err := r.Open(file)
	if !errors.Is(err, ErrFormatNotFound) {
		return img, f, err
	}

	f, extErr := r.ByExtension(path)
	if extErr != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFormatNotFound, path)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	img, err = r.OpenAs(file, f.Name)
	return img, f, err
}

// Save は name のフォーマットで img を書き出す
func (r *Registry) Save(w io.Writer, img *pixel.Image, name string, opts *Options) error {
	f, err := r.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	if f.Encode == nil {
		return fmt.Errorf("%w: %s", ErrNoEncoder, f.Name)
	}
	return f.Encode(w, img, opts)
}

// SaveFile は img をファイルに書き出す。name が空の場合は拡張子からフォーマットを選ぶ。
func (r *Registry) SaveFile(path string, img *pixel.Image, name string, opts *Options) error {
	if name == "" {
		f, err := r.ByExtension(path)
		if err != nil {
			return fmt.Errorf("%w: %s", err, path)
		}
		name = f.Name
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.Save(file, img, name, opts); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// Open は既定レジストリで画像を読み込む
func Open(rs io.ReadSeeker) (*pixel.Image, *Format, error) {
	return Default().Open(rs)
}

// OpenFile は既定レジストリでファイルから画像を読み込む
func OpenFile(path string) (*pixel.Image, *Format, error) {
	return Default().OpenFile(path)
}

// SaveFile は既定レジストリで画像をファイルに書き出す
func SaveFile(path string, img *pixel.Image, name string, opts *Options) error {
	return Default().SaveFile(path, img, name, opts)
}

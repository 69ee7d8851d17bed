package app

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/zurustar/bmpkit/pkg/bmp"
	"github.com/zurustar/bmpkit/pkg/fileutil"
	"github.com/zurustar/bmpkit/pkg/format"
	"github.com/zurustar/bmpkit/pkg/pixel"
	"github.com/zurustar/bmpkit/pkg/viewer"
)

// stdoutPath は出力先として標準出力を表す
const stdoutPath = "-"

// resolveInput は入力パスを解決する。見つからない場合は大文字小文字を無視して探し、
// --sjis 指定時は Shift-JIS の名前とも照合する。
func (app *Application) resolveInput(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	dir := filepath.Dir(path)
	name, err := fileutil.FindFile(os.DirFS(dir), ".", filepath.Base(path), app.config.SJIS)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// openBitmap はBMPまたはDIBのヘッダーを読む。どちらでもない場合は bmp.ErrNotThisFormat を返す。
func openBitmap(path string) (*bmp.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := bmp.Open(file)
	if bmp.IsNotThisFormat(err) && strings.EqualFold(filepath.Ext(path), ".dib") {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, 0, err
		}
		f, err = bmp.OpenDIB(file)
		return f, st.Size(), err
	}
	return f, st.Size(), err
}

// loadImage は入力ファイルを読み込む。
// fallback が true の場合、BMPデコーダが拒否したファイルを x/image/bmp で読み直す。
func (app *Application) loadImage(path string) (*pixel.Image, error) {
	img, f, err := app.registry.OpenFile(path)
	if err == nil {
		app.log.Debug("Image loaded", "path", path, "format", f.Name, "mode", string(img.Mode),
			"width", img.Width(), "height", img.Height())
		return img, nil
	}
	if !app.config.Fallback || f == nil || f.Name != format.NameBMP {
		return nil, err
	}

	app.log.Warn("BMP decoder rejected the file, retrying with fallback decoder", "path", path, "error", err)
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer file.Close()
	img, fbErr := app.registry.OpenAs(file, format.NameFallback)
	if fbErr != nil {
		return nil, fmt.Errorf("%w (fallback: %v)", err, fbErr)
	}
	return img, nil
}

// runInfo ヘッダー・画素配置・パレットの情報を表示
func (app *Application) runInfo() error {
	failed := 0
	for _, input := range app.config.Inputs {
		if err := app.printInfo(input); err != nil {
			app.log.Error("Failed to read image", "path", input, "error", err)
			fmt.Fprintf(app.stdout, "%s: error: %v\n", input, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(app.config.Inputs))
	}
	return nil
}

func (app *Application) printInfo(input string) error {
	path, err := app.resolveInput(input)
	if err != nil {
		return err
	}

	f, size, err := openBitmap(path)
	if bmp.IsNotThisFormat(err) {
		// BMP以外は共通の情報のみ表示
		img, fm, err := app.registry.OpenFile(path)
		if err != nil {
			return err
		}
		p := app.printer
		p.Fprintf(app.stdout, "%s: %s\n", path, fm.Name)
		p.Fprintf(app.stdout, "  size:        %d x %d\n", img.Width(), img.Height())
		p.Fprintf(app.stdout, "  mode:        %s\n", img.Mode)
		return nil
	}
	if err != nil {
		return err
	}
	app.writeBitmapInfo(app.stdout, path, f, size)
	return nil
}

// writeBitmapInfo はBMPヘッダーの内容を整形して出力する
func (app *Application) writeBitmapInfo(w io.Writer, path string, f *bmp.File, size int64) {
	p := app.printer
	h := f.Header
	l := f.Layout

	p.Fprintf(w, "%s: %s\n", path, f.Format)
	p.Fprintf(w, "  size:        %d x %d\n", h.Width, h.Height)
	p.Fprintf(w, "  header:      %d bytes (%s)\n", h.Size, h.Kind())
	p.Fprintf(w, "  bits:        %d\n", h.BitCount)
	p.Fprintf(w, "  compression: %s\n", h.Compression)
	if l.Masks != nil {
		p.Fprintf(w, "  masks:       %s\n", l.Masks)
	}
	p.Fprintf(w, "  layout:      mode %s, raw %s, %s\n", l.Mode, l.Raw, f.Tile.Direction())
	p.Fprintf(w, "  stride:      %d bytes\n", l.Stride)
	switch {
	case l.Palette != nil:
		p.Fprintf(w, "  palette:     %d entries\n", l.Palette.Len())
	case h.BitCount <= 8:
		p.Fprintf(w, "  palette:     %d entries (greyscale)\n", h.Colors())
	}
	if h.HasResolution {
		p.Fprintf(w, "  resolution:  %d x %d dpi\n", h.DPI[0], h.DPI[1])
	}
	p.Fprintf(w, "  data:        offset %d, %d bytes\n", f.Tile.Offset(), f.Tile.DataSize())
	p.Fprintf(w, "  file:        %d bytes\n", size)
}

// runConvert 画像を変換
func (app *Application) runConvert() error {
	path, err := app.resolveInput(app.config.Inputs[0])
	if err != nil {
		return err
	}
	img, err := app.loadImage(path)
	if err != nil {
		return err
	}

	if app.config.Scale != 1 {
		img, err = scaleImage(img, app.config.Scale)
		if err != nil {
			return err
		}
		app.log.Debug("Image scaled", "scale", app.config.Scale, "width", img.Width(), "height", img.Height())
	}

	opts := &format.Options{DPI: app.config.DPI}
	if opts.DPI == 0 && img.Info.DPI[0] > 0 {
		// 元の解像度を引き継ぐ
		opts.DPI = img.Info.DPI[0]
	}

	name := app.config.Format
	output := app.config.Output
	if output == stdoutPath {
		if name == "" {
			name = format.NameBMP
		}
		return app.registry.Save(app.stdout, img, name, opts)
	}
	if err := app.registry.SaveFile(output, img, name, opts); err != nil {
		return err
	}
	app.log.Info("Image converted", "input", path, "output", output, "mode", string(img.Mode))
	return nil
}

// scaleImage は画像を factor 倍に拡大縮小する。結果は RGB または RGBA になる。
func scaleImage(img *pixel.Image, factor float64) (*pixel.Image, error) {
	w := int(float64(img.Width())*factor + 0.5)
	h := int(float64(img.Height())*factor + 0.5)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("scaled image is empty (%dx%d)", w, h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out, err := pixel.FromImage(dst)
	if err != nil {
		return nil, err
	}
	if img.Mode != pixel.RGBA {
		// 元画像が不透明なら RGB にする
		rgb, _ := pixel.New(pixel.RGB, w, h)
		for y := 0; y < h; y++ {
			src, row := out.Row(y), rgb.Row(y)
			for x := 0; x < w; x++ {
				copy(row[x*3:x*3+3], src[x*4:x*4+3])
			}
		}
		out = rgb
	}
	out.Info = img.Info
	return out, nil
}

// runWrap ファイルヘッダーのないDIBにBMPファイルヘッダーを付ける
func (app *Application) runWrap() error {
	path, err := app.resolveInput(app.config.Inputs[0])
	if err != nil {
		return err
	}
	dib, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	out, err := bmp.WrapDIB(dib, app.config.DPI)
	if err != nil {
		return fmt.Errorf("failed to wrap %s: %w", path, err)
	}

	if app.config.Output == stdoutPath {
		_, err = app.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(app.config.Output, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", app.config.Output, err)
	}
	app.log.Info("DIB wrapped", "input", path, "output", app.config.Output, "size", len(out))
	return nil
}

// runCheck 読み込み → BMP書き出し → 読み込みで画素が一致するか確認
func (app *Application) runCheck() error {
	failed := 0
	for _, input := range app.config.Inputs {
		if err := app.checkRoundTrip(input); err != nil {
			app.log.Error("Round trip failed", "path", input, "error", err)
			fmt.Fprintf(app.stdout, "%s: FAIL: %v\n", input, err)
			failed++
			continue
		}
		fmt.Fprintf(app.stdout, "%s: OK\n", input)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(app.config.Inputs))
	}
	return nil
}

// errMismatch は書き戻した画像が一致しない場合のエラー
var errMismatch = errors.New("pixels differ after round trip")

func (app *Application) checkRoundTrip(input string) error {
	path, err := app.resolveInput(input)
	if err != nil {
		return err
	}
	img, err := app.loadImage(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img, &bmp.EncodeOptions{DPI: img.Info.DPI[0]}); err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	again, err := bmp.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to decode re-encoded image: %w", err)
	}
	if !sameColors(img, again) {
		return errMismatch
	}
	return nil
}

// sameColors は2つの画像の全画素の色が一致するかを返す。
// パレットの並びが変わってもインデックスの指す色が同じなら一致とみなす。
func sameColors(a, b *pixel.Image) bool {
	if a.Mode == b.Mode && pixel.Equal(a, b) {
		return true
	}
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

// runView 画像をウィンドウに表示
func (app *Application) runView() error {
	entries := make([]viewer.Entry, 0, len(app.config.Inputs))
	for _, input := range app.config.Inputs {
		path, err := app.resolveInput(input)
		if err != nil {
			return err
		}
		img, err := app.loadImage(path)
		if err != nil {
			return err
		}
		entries = append(entries, viewer.Entry{Name: filepath.Base(path), Image: img})
	}

	// ヘッドレスモードの場合は情報のみ表示
	if app.config.Headless {
		app.log.Info("Headless mode: skipping window")
		return viewer.RunHeadless(entries, app.stdout)
	}
	return viewer.Run(entries, app.config.Timeout)
}

// runList ディレクトリ内の画像を一覧表示
func (app *Application) runList() error {
	dir := app.config.Inputs[0]
	images, err := fileutil.ListImages(os.DirFS(dir), ".", nil, app.config.SJIS)
	if err != nil {
		return err
	}

	p := app.printer
	for _, e := range images {
		path := filepath.Join(dir, e.RawName)
		desc, err := app.describe(path)
		if err != nil {
			app.log.Warn("Cannot read image", "path", path, "error", err)
			desc = "unreadable: " + err.Error()
		}
		p.Fprintf(app.stdout, "%-24s %10d  %s\n", e.Name, e.Size, desc)
	}
	app.log.Debug("Directory listed", "dir", dir, "count", len(images))
	return nil
}

// describe は一覧表示用の短い説明を返す。BMPは画素データを読まない。
func (app *Application) describe(path string) (string, error) {
	f, _, err := openBitmap(path)
	if err == nil {
		c := f.Config()
		return fmt.Sprintf("%s %dx%d %d-bit %s", f.Format, c.Width, c.Height, f.Header.BitCount, f.Layout.Mode), nil
	}
	if !bmp.IsNotThisFormat(err) {
		return "", err
	}
	img, fm, err := app.registry.OpenFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %dx%d %s", fm.Name, img.Width(), img.Height(), img.Mode), nil
}

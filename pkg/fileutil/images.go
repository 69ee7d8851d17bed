package fileutil

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ImageExtensions は ListImages が既定で対象とする拡張子
var ImageExtensions = []string{".bmp", ".dib", ".png"}

// ImageEntry はディレクトリ内の画像ファイル1件
type ImageEntry struct {
	Name       string // 表示用の名前（必要に応じて Shift-JIS から変換済み）
	RawName    string // ファイルシステム上の名前
	Size       int64
	Transcoded bool // 名前を Shift-JIS から変換した
}

// ListImages は fsys の dir 直下にある画像ファイルを名前順に返す。
// exts が空の場合は ImageExtensions を使う。拡張子の大文字小文字は区別しない。
// sjis が true の場合、UTF-8 として不正な名前を Shift-JIS として解釈する。
func ListImages(fsys fs.FS, dir string, exts []string, sjis bool) ([]ImageEntry, error) {
	if len(exts) == 0 {
		exts = ImageExtensions
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var images []ImageEntry
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path.Join(dir, entry.Name()), err)
		}

		img := ImageEntry{Name: displayName(entry.Name(), sjis), RawName: entry.Name(), Size: info.Size()}
		img.Transcoded = img.Name != img.RawName
		images = append(images, img)
	}

	sort.Slice(images, func(i, j int) bool {
		return strings.ToLower(images[i].Name) < strings.ToLower(images[j].Name)
	})
	return images, nil
}

// DecodeShiftJISName はShift-JISのファイル名をUTF-8に変換する。
// 既にUTF-8として正しい名前、または変換できない名前はそのまま返す。
func DecodeShiftJISName(name string) (string, bool) {
	if utf8.ValidString(name) {
		return name, false
	}
	decoded, _, err := transform.String(japanese.ShiftJIS.NewDecoder(), name)
	if err != nil {
		// 変換に失敗した場合はそのまま返す
		return name, false
	}
	return decoded, true
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

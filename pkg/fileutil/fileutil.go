// Package fileutil は古い画像フォルダのファイルを探したり一覧したりする関数を提供する。
//
// Windows 3.x 時代のフォルダはファイル名の大文字小文字が揃っておらず、
// 名前が Shift-JIS のまま残っていることが多い。
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotFound はファイルが見つからない場合のエラー
var ErrNotFound = errors.New("file not found")

// FindFile は fsys の dir 直下から name に一致するファイルを探し、ファイルシステム上の名前を返す。
// 比較は大文字小文字を区別しない。sjis が true の場合、Shift-JIS の名前は
// UTF-8 に変換してから比較する。
//
//	raw, err := FindFile(os.DirFS("/data/GRP"), ".", "テスト.bmp", true)
//	// "\x83\x65\x83\x58\x83\x67.BMP" が見つかる
func FindFile(fsys fs.FS, dir, name string, sjis bool) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(displayName(entry.Name(), sjis), name) {
			return entry.Name(), nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, name, dir)
}

// displayName は表示や比較に使う名前を返す
func displayName(raw string, sjis bool) string {
	if !sjis {
		return raw
	}
	name, _ := DecodeShiftJISName(raw)
	return name
}

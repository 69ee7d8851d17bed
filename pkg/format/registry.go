// Package format は画像フォーマットの登録と、シグネチャによる振り分けを行う。
//
// フォーマットは登録順に試される。デコーダが bmp.ErrNotThisFormat を返した場合は
// 次の候補へ進み、それ以外のエラーはそのまま呼び出し元へ返す。
package format

import (
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

// PrefixSize は Sniff に渡す先頭バイト数
const PrefixSize = 16

// Options は書き出し時の設定
type Options struct {
	DPI int // 0の場合はフォーマットの既定値
}

// DecodeFunc はストリームから画像を読み込む
type DecodeFunc func(r io.ReadSeeker) (*pixel.Image, error)

// EncodeFunc は画像をストリームへ書き出す
type EncodeFunc func(w io.Writer, img *pixel.Image, opts *Options) error

// Format は1つの画像フォーマットの記述
type Format struct {
	Name       string
	Extensions []string          // 小文字、ドット付き（".bmp"）
	Accept     func([]byte) bool // nil の場合はシグネチャで判定しない
	Decode     DecodeFunc
	Encode     EncodeFunc
}

// Registry は利用可能なフォーマットを管理する
type Registry struct {
	mu     sync.RWMutex
	order  []*Format
	byName map[string]*Format
	byExt  map[string]*Format
}

// NewRegistry は空のレジストリを作成する
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Format),
		byExt:  make(map[string]*Format),
	}
}

var (
	defaultRegistry = NewRegistry()
	builtinOnce     sync.Once
)

// Default は組み込みフォーマットを登録済みの既定レジストリを返す
func Default() *Registry {
	builtinOnce.Do(func() {
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Register は既定レジストリにフォーマットを登録する
func Register(f *Format) {
	Default().Register(f)
}

// Get は既定レジストリから名前でフォーマットを取得する
func Get(name string) (*Format, error) {
	return Default().Get(name)
}

// List は既定レジストリの全フォーマットを登録順に返す
func List() []*Format {
	return Default().List()
}

// Register はフォーマットを登録する。同じ名前が既にあれば置き換える。
// 拡張子は先に登録したフォーマットが優先される。
func (r *Registry) Register(f *Format) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToUpper(f.Name)
	if old, ok := r.byName[key]; ok {
		for i, o := range r.order {
			if o == old {
				r.order[i] = f
			}
		}
		for ext, o := range r.byExt {
			if o == old {
				delete(r.byExt, ext)
			}
		}
	} else {
		r.order = append(r.order, f)
	}
	r.byName[key] = f
	for _, ext := range f.Extensions {
		ext = strings.ToLower(ext)
		if _, ok := r.byExt[ext]; !ok {
			r.byExt[ext] = f
		}
	}
}

// Get は名前（大文字小文字を区別しない）でフォーマットを取得する
func (r *Registry) Get(name string) (*Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byName[strings.ToUpper(name)]
	if !ok {
		return nil, ErrFormatNotFound
	}
	return f, nil
}

// ByExtension はファイル名または拡張子からフォーマットを取得する
func (r *Registry) ByExtension(path string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		// "bmp" のようにドットなしの拡張子だけが渡された場合
		ext = "." + strings.ToLower(path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byExt[ext]
	if !ok {
		return nil, ErrFormatNotFound
	}
	return f, nil
}

// Sniff は先頭バイト列を受け付けるフォーマットを登録順に返す
func (r *Registry) Sniff(prefix []byte) []*Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Format
	for _, f := range r.order {
		if f.Accept != nil && f.Accept(prefix) {
			out = append(out, f)
		}
	}
	return out
}

// List は全フォーマットを登録順に返す
func (r *Registry) List() []*Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Format, len(r.order))
	copy(out, r.order)
	return out
}

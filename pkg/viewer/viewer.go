// Package viewer はデコードした画像を Ebitengine のウィンドウに表示する。
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/bmpkit/pkg/pixel"
)

// 画面サイズ
const (
	ScreenWidth  = 1024
	ScreenHeight = 768
	statusHeight = 24
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// ステータス行の背景色
	statusColor = color.RGBA{0x00, 0x00, 0x00, 0xC0}
	// テキスト色（白）
	textColor = color.White
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// Entry は表示する画像1枚
type Entry struct {
	Name  string
	Image *pixel.Image
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	entries   []Entry
	index     int           // 表示中の画像のインデックス
	showInfo  bool          // ステータス行を表示するか
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻

	// 画面に合わせて縮小した画像（インデックスごと）
	fitted    map[int]*ebiten.Image
	statusBar *ebiten.Image
	mu        sync.RWMutex
}

// NewGame Gameを作成
func NewGame(entries []Entry, timeout time.Duration) *Game {
	return &Game{
		entries:   entries,
		showInfo:  true,
		timeout:   timeout,
		startTime: time.Now(),
		fitted:    make(map[int]*ebiten.Image),
	}
}

// Index 表示中の画像のインデックスを返す
func (g *Game) Index() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.index
}

// Next 次の画像へ進む（最後の画像では何もしない）
func (g *Game) Next() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index < len(g.entries)-1 {
		g.index++
	}
}

// Prev 前の画像へ戻る（最初の画像では何もしない）
func (g *Game) Prev() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index > 0 {
		g.index--
	}
}

// ToggleInfo ステータス行の表示を切り替える
func (g *Game) ToggleInfo() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.showInfo = !g.showInfo
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.Next()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.Prev()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		g.ToggleInfo()
	}
	return nil
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.mu.Lock()
	index, showInfo := g.index, g.showInfo
	if len(g.entries) == 0 {
		g.mu.Unlock()
		return
	}
	img, ok := g.fitted[index]
	if !ok {
		img = ebiten.NewImageFromImage(FitImage(g.entries[index].Image, ScreenWidth, ScreenHeight-statusHeight))
		g.fitted[index] = img
	}
	g.mu.Unlock()

	// 中央に配置
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64((ScreenWidth-b.Dx())/2), float64((ScreenHeight-statusHeight-b.Dy())/2))
	screen.DrawImage(img, op)

	if !showInfo {
		return
	}
	if g.statusBar == nil {
		g.statusBar = ebiten.NewImage(ScreenWidth, statusHeight)
		g.statusBar.Fill(statusColor)
	}
	barOp := &ebiten.DrawImageOptions{}
	barOp.GeoM.Translate(0, ScreenHeight-statusHeight)
	screen.DrawImage(g.statusBar, barOp)

	textOp := &text.DrawOptions{}
	textOp.GeoM.Translate(8, ScreenHeight-statusHeight+6)
	textOp.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, StatusLine(g.entries[index], index, len(g.entries)), defaultFace, textOp)
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// FitSize は縦横比を保ったまま maxW×maxH に収まる大きさを返す（拡大はしない）
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	fw, fh := int(float64(w)*scale), int(float64(h)*scale)
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

// FitImage は画像を maxW×maxH に収まるよう縮小した RGBA 画像を返す
func FitImage(src image.Image, maxW, maxH int) *image.RGBA {
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// StatusLine はステータス行の文字列を返す
func StatusLine(e Entry, index, total int) string {
	img := e.Image
	s := fmt.Sprintf("[%d/%d] %s  %dx%d %s", index+1, total, e.Name, img.Width(), img.Height(), img.Mode)
	if img.Info.DPI[0] > 0 {
		s += fmt.Sprintf("  %dx%d dpi", img.Info.DPI[0], img.Info.DPI[1])
	}
	if img.Info.Compression != "" {
		s += "  " + img.Info.Compression
	}
	return s
}

// RunHeadless ヘッドレスモードではウィンドウを開かず、各画像のステータス行を出力する
func RunHeadless(entries []Entry, writer io.Writer) error {
	if len(entries) == 0 {
		return fmt.Errorf("no images to show")
	}
	for i, e := range entries {
		fmt.Fprintln(writer, StatusLine(e, i, len(entries)))
	}
	return nil
}

// Run GUIモードでウィンドウを実行
func Run(entries []Entry, timeout time.Duration) error {
	if len(entries) == 0 {
		return fmt.Errorf("no images to show")
	}
	game := NewGame(entries, timeout)

	// ウィンドウ設定
	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("bmptool - " + entries[0].Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// ゲームを実行
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

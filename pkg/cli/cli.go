package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/bmpkit/pkg/bmp"
)

// サブコマンド
const (
	CommandInfo    = "info"
	CommandConvert = "convert"
	CommandWrap    = "wrap"
	CommandCheck   = "check"
	CommandView    = "view"
	CommandList    = "list"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command  string        // サブコマンド
	Inputs   []string      // 入力ファイル（list の場合はディレクトリ）
	Output   string        // 出力ファイル（"-" は標準出力）
	Format   string        // 出力フォーマット名（空の場合は出力ファイルの拡張子から決める）
	DPI      int           // 書き出し時の解像度（0はフォーマットの既定値）
	Scale    float64       // convert 時の拡大率（1は等倍）
	Fallback bool          // BMPデコーダが拒否したファイルを x/image/bmp で読み直す
	SJIS     bool          // list でファイル名を Shift-JIS として解釈する
	Timeout  time.Duration // view のタイムアウト時間（0は無制限）
	LogLevel string        // ログレベル（debug, info, warn, error）
	Headless bool          // ヘッドレスモード（view でウィンドウを開かない）
	ShowHelp bool          // ヘルプ表示フラグ
}

// 値を取らないフラグ
var boolFlags = map[string]bool{
	"h": true, "help": true, "headless": true, "fallback": true, "sjis": true,
}

// 入力の個数の範囲（max が0の場合は上限なし）
var commandArgs = map[string]struct{ min, max int }{
	CommandInfo:    {1, 0},
	CommandConvert: {1, 1},
	CommandWrap:    {1, 1},
	CommandCheck:   {1, 0},
	CommandView:    {1, 0},
	CommandList:    {1, 1},
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("bmptool", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.Output, "output", "", "出力ファイル")
	fs.StringVar(&config.Output, "o", "", "出力ファイル（短縮形）")
	fs.StringVar(&config.Format, "format", "", "出力フォーマット（bmp, dib, png）")
	fs.StringVar(&config.Format, "f", "", "出力フォーマット（短縮形）")
	fs.IntVar(&config.DPI, "dpi", 0, "書き出し時の解像度")
	fs.Float64Var(&config.Scale, "scale", 1, "拡大率")
	fs.BoolVar(&config.Fallback, "fallback", false, "x/image/bmp で読み直す")
	fs.BoolVar(&config.SJIS, "sjis", false, "ファイル名を Shift-JIS として扱う")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.DPI == 0 {
		if dpiEnv := os.Getenv("BMPKIT_DPI"); dpiEnv != "" {
			dpi, err := strconv.Atoi(dpiEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid BMPKIT_DPI: %q", dpiEnv)
			}
			config.DPI = dpi
		}
	}

	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// 値の検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.DPI < 0 || config.DPI > bmp.MaxDPI {
		return nil, fmt.Errorf("dpi must be between 0 and %d, got %d", bmp.MaxDPI, config.DPI)
	}
	if config.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", config.Scale)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数: サブコマンドと入力
	if fs.NArg() > 0 {
		config.Command = strings.ToLower(fs.Arg(0))
		config.Inputs = fs.Args()[1:]
	}

	if config.ShowHelp {
		return config, nil
	}
	if err := validateCommand(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateCommand はサブコマンドと引数の組み合わせを検証する
func validateCommand(config *Config) error {
	if config.Command == "" {
		return fmt.Errorf("no command given (info, convert, wrap, check, view, list)")
	}
	n, ok := commandArgs[config.Command]
	if !ok {
		return fmt.Errorf("unknown command: %s", config.Command)
	}
	if len(config.Inputs) < n.min {
		return fmt.Errorf("%s: missing input file", config.Command)
	}
	if n.max > 0 && len(config.Inputs) > n.max {
		return fmt.Errorf("%s: too many arguments: %s", config.Command, strings.Join(config.Inputs[n.max:], " "))
	}
	if (config.Command == CommandConvert || config.Command == CommandWrap) && config.Output == "" {
		return fmt.Errorf("%s: output file is required (-o)", config.Command)
	}
	return nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "-" 単独は標準出力を表す位置引数・値として扱う
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}
			// 次の引数が値である可能性をチェック（-o out.bmp, -o - のような場合）
			if i+1 < len(args) && len(args[i+1]) > 0 && (args[i+1][0] != '-' || args[i+1] == "-") {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `bmptool - BMP/DIB 画像ツール

Usage:
  bmptool <command> [options] <file>...

Commands:
  info FILE...                ヘッダー・画素配置・パレットの情報を表示
  convert IN -o OUT           画像を変換（出力フォーマットは拡張子か --format で指定）
  wrap DIB -o OUT.bmp         ファイルヘッダーのないDIBにBMPファイルヘッダーを付ける
  check FILE...               読み込み → 書き出し → 読み込みで画素が一致するか確認
  view FILE...                画像をウィンドウに表示（←→で切り替え）
  list DIR                    ディレクトリ内の画像を一覧表示

Options:
  -o, --output <file>         出力ファイル（"-" で標準出力）
  -f, --format <name>         出力フォーマット: bmp, dib, png
  --dpi <n>                   書き出し時の解像度（デフォルト: 96）
  --scale <factor>            convert 時の拡大率（デフォルト: 1）
  --fallback                  BMPデコーダが拒否したファイルを x/image/bmp で読み直す
  --sjis                      list でファイル名を Shift-JIS として解釈
  -t, --timeout <seconds>     view を指定秒数後に終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（view で情報のみ表示）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           view のタイムアウト時間（秒）
  BMPKIT_DPI=<n>              書き出し時の解像度
  LOG_LEVEL=<level>           ログレベル

Examples:
  bmptool info picture.bmp
  bmptool convert picture.bmp -o picture.png
  bmptool convert scan.png -o scan.bmp --dpi 300
  bmptool wrap clip.dib -o clip.bmp
  bmptool view picture.bmp --timeout 5
  bmptool list ./GRP --sjis
`)
}

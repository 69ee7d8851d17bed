package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zurustar/bmpkit/pkg/cli"
	"github.com/zurustar/bmpkit/pkg/format"
	"github.com/zurustar/bmpkit/pkg/logger"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	registry *format.Registry
	printer  *message.Printer
	stdout   io.Writer
	stderr   io.Writer
}

// New Applicationを作成
func New() *Application {
	return NewWithOutput(os.Stdout, os.Stderr)
}

// NewWithOutput 出力先を指定してApplicationを作成
func NewWithOutput(stdout, stderr io.Writer) *Application {
	return &Application{
		registry: format.Default(),
		printer:  message.NewPrinter(language.English),
		stdout:   stdout,
		stderr:   stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化（画像を標準出力に書くことがあるのでログは標準エラーへ）
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Application started", "command", app.config.Command, "inputs", app.config.Inputs)

	// 3. サブコマンドの実行
	var err error
	switch app.config.Command {
	case cli.CommandInfo:
		err = app.runInfo()
	case cli.CommandConvert:
		err = app.runConvert()
	case cli.CommandWrap:
		err = app.runWrap()
	case cli.CommandCheck:
		err = app.runCheck()
	case cli.CommandView:
		err = app.runView()
	case cli.CommandList:
		err = app.runList()
	default:
		err = fmt.Errorf("unknown command: %s", app.config.Command)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", app.config.Command, err)
	}

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.config.LogLevel, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

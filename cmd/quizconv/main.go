// Command quizconv converts the quiz-bank files in a directory into the
// normalized question tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/quizbank"
	"github.com/brunobiangulo/quizbank/report"
)

type options struct {
	configPath  string
	dir         string
	outDir      string
	dbPath      string
	format      string
	concurrency int
	allSheets   bool
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "quizconv",
		Short: "Convert quiz-bank documents into normalized question tables",
		Long: `quizconv reads the files named 原始题库* in a directory (xlsx, xls, docx,
pptx, pdf and txt), extracts the questions and writes them as one merged table plus
one table per question type.

Run without arguments to convert the current directory.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to config file (YAML or JSON)")
	f.StringVar(&opts.dir, "dir", "", "Directory to search for source files (default: current)")
	f.StringVar(&opts.outDir, "out", "", "Output directory (default: source directory)")
	f.StringVar(&opts.dbPath, "db", "", "Record the run in this SQLite ledger")
	f.StringVar(&opts.format, "format", "", "Output format: csv or xlsx")
	f.IntVar(&opts.concurrency, "concurrency", 0, "Files converted in parallel")
	f.BoolVar(&opts.allSheets, "all-sheets", false, "Read every worksheet, not only the active one")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command, opts options) (quizbank.Config, error) {
	cfg := quizbank.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = quizbank.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if err := quizbank.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = opts.dir
	}
	if flags.Changed("out") {
		cfg.OutDir = opts.outDir
	}
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("format") {
		cfg.OutputFormat = opts.format
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("all-sheets") {
		cfg.AllSheets = opts.allSheets
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run converts the configured directory. Finding no files or no questions is
// reported but is not a failure.
func run(cmd *cobra.Command, opts options) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
	slog.SetDefault(logger)
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	conv, err := quizbank.New(cfg, quizbank.WithLogger(logger))
	if err != nil {
		return err
	}
	defer conv.Close()

	res, err := conv.Run(cmd.Context())
	switch {
	case errors.Is(err, quizbank.ErrNoInputFiles):
		fmt.Fprintf(out, "未找到原始题库文件: %s\n", cfg.Dir)
		return nil
	case errors.Is(err, quizbank.ErrNoQuestions):
		fmt.Fprintln(out, "没有成功转换任何题目")
		printFailures(out, res)
		return nil
	case err != nil:
		return err
	}

	printFailures(out, res)
	for _, p := range res.Outputs {
		fmt.Fprintf(out, "已生成: %s\n", p)
	}
	fmt.Fprintln(out, report.Render(report.Compute(res.Records), report.DefaultStyles()))
	return nil
}

func printFailures(w io.Writer, res *quizbank.Result) {
	if res == nil {
		return
	}
	for _, f := range res.Failed() {
		fmt.Fprintf(w, "处理失败: %s: %v\n", f.File.Name(), f.Err)
	}
}

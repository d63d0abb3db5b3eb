// Command actions-tool validates action-log files against a Merkle
// storage engine replay: every Commit action recorded in the log must
// reproduce the hash the log claims it produced.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mambisi/actions-tool/pkg/actionlog"
	"github.com/mambisi/actions-tool/pkg/kv"
	"github.com/mambisi/actions-tool/pkg/merkle"
	"github.com/mambisi/actions-tool/pkg/validator"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "validate" {
		usage()
		os.Exit(2)
	}

	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	logPath := flags.String("log", "", "path to the action-log file to validate")
	cycle := flags.Uint32("cycle", validator.DefaultCycle, "blocks between garbage-collection runs")
	verbose := flags.Bool("verbose", false, "enable debug logging")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "actions-tool validate: --log is required")
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	if err := runValidate(*logPath, *cycle, logger); err != nil {
		logger.Error("validation failed", zap.Error(err))
		os.Exit(1)
	}
}

func runValidate(logPath string, cycle uint32, logger *zap.Logger) error {
	reader, err := actionlog.NewReader(logPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	engine := merkle.New(kv.NewBTreeStore(32), logger)
	if err := validator.Run(reader, engine, cycle, logger); err != nil {
		return err
	}

	logger.Info("validation succeeded",
		zap.Uint32("block_height", reader.Header().BlockHeight),
		zap.Uint32("block_count", reader.Header().BlockCount),
		zap.Uint32("actions_count", reader.Header().ActionsCount))
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: actions-tool validate --log <path> [--cycle 4092] [--verbose]")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/workspace-analytics/internal/config"
	"github.com/example/workspace-analytics/internal/logging"
)

const usage = `usage: workspace-analytics <command> [flags]

commands:
  generate  simulate bookings and write the CSV artifact
  load      migrate the store and load a CSV artifact into it
  serve     serve the read-only occupancy API
  status    print the schema version and the latest load run

Run "workspace-analytics <command> -h" for command flags.
`

// errUsage marks command line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	command, rest := args[0], args[1:]
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logger := logging.New(stderr, cfg.LogLevel, cfg.LogFormat).With("command", command)

	switch command {
	case "generate":
		err = runGenerate(ctx, cfg, rest, stderr, logger)
	case "load":
		err = runLoad(ctx, cfg, rest, stderr, logger)
	case "serve":
		err = runServe(ctx, cfg, rest, stderr, logger)
	case "status":
		err = runStatus(ctx, cfg, rest, stdout, stderr, logger)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		logger.Error("command failed", "error", err)
		return 1
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", errUsage, fs.Name(), fs.Args())
	}
	return nil
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func closeStorage(closer io.Closer, logger *slog.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

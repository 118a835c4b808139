// Command boekhouden is the command-line front end: statement import,
// categorization, reconciliation, the asset register and the yearly P&L.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"boekhouden/internal/config"
	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/logger"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitConfigError = 2
)

func main() {
	if os.Getenv("BOEKHOUDEN_DEBUG") != "" {
		logger.Init("development")
	} else {
		logger.Init("cli")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	logger.Sync()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode separates configuration problems, which must be fixed in the
// YAML files, from everything else.
func exitCode(err error) int {
	if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, apperrors.ErrInvalidConfig) {
		return exitConfigError
	}
	return exitError
}

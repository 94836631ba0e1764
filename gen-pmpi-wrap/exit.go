package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

var errNoTemplates = errors.New("no wrapper templates given")

// usageError marks a malformed command line, as opposed to a failed run.
type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

func (e usageError) Unwrap() error {
	return e.err
}

// exitCode reports err and returns the process exit status for it.
func exitCode(cmd *cobra.Command, err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\n", uerr.err)
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}

	slog.Error("generation failed", "error", err)
	return exitFailure
}

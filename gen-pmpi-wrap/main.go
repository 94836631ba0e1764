// gen-pmpi-wrap generates PMPI wrappers from wrapper templates.
//
// The MPI functions are read from mpi.h, preprocessed by the MPI compiler
// (mpicc -E by default). Each template is then expanded in order and the
// generated C code is written to standard output or to the -o file.
//
//	gen-pmpi-wrap [-fg] [-c mpicc_name] [-o file] wrapper.w [...]
//
// See package github.com/fardream/pmpiwrap for the template macros.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fardream/pmpiwrap"
	"github.com/fardream/pmpiwrap/logutil"
)

// createOutput opens the -o file.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

type options struct {
	cfg        pmpiwrap.Config
	outputFile string
	verbose    bool
}

func (o *options) run(cmd *cobra.Command, args []string) (err error) {
	logger := logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(o.verbose))
	slog.SetDefault(logger)
	o.cfg.Logger = logger

	out := cmd.OutOrStdout()
	if o.outputFile != "" {
		f, cerr := createOutput(o.outputFile)
		if cerr != nil {
			return fmt.Errorf("couldn't open file %s for writing: %w", o.outputFile, cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	w := bufio.NewWriter(out)
	// whatever was generated before a failure is still written out
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	g, err := pmpiwrap.Load(o.cfg)
	if err != nil {
		return err
	}

	if err := g.WritePreamble(w); err != nil {
		return err
	}

	for _, name := range args {
		if err := processTemplate(g, w, name); err != nil {
			return err
		}
	}

	return nil
}

func newCommand() *cobra.Command {
	o := &options{
		cfg: pmpiwrap.Config{Compiler: pmpiwrap.CompilerFromEnv()},
	}

	cmd := &cobra.Command{
		Short: "generate PMPI wrappers from wrapper templates",
		Use:   "gen-pmpi-wrap [-fg] [-c mpicc_name] [-o file] wrapper.w [...]",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return usageError{errNoTemplates}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          o.run,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.Flags().BoolVarP(&o.cfg.Fortran, "fortran", "f", false, "generate fortran wrappers in addition to C wrappers")
	cmd.Flags().BoolVarP(&o.cfg.Guards, "guards", "g", false, "generate reentry guards around wrapper functions")

	cmd.Flags().StringVarP(&o.cfg.Compiler, "compiler", "c", o.cfg.Compiler, "MPI compiler used to preprocess mpi.h (default $MPICC or mpicc)")
	cmd.Flags().BoolVar(&o.cfg.BuiltinPreprocessor, "builtin-cpp", false, "preprocess mpi.h in process instead of running the MPI compiler")
	cmd.Flags().StringSliceVarP(&o.cfg.IncludePaths, "include", "I", nil, "directory containing mpi.h, for --builtin-cpp")
	cmd.MarkFlagDirname("include")

	cmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "send output to a file instead of stdout")
	cmd.MarkFlagFilename("output", "c", "C", "cpp")

	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "log debug information to stderr")

	return cmd
}

func main() {
	cmd := newCommand()
	os.Exit(exitCode(cmd, cmd.Execute(), os.Stderr))
}

package pmpiwrap

import (
	"log/slog"
	"os"

	"github.com/fardream/pmpiwrap/mpi"
)

// DefaultCompiler is used when neither the command line nor $MPICC name one.
const DefaultCompiler = "mpicc"

// Config holds everything a generation run needs. It is built once from the
// command line and not changed afterwards.
type Config struct {
	// Fortran enables the Fortran wrappers and bindings.
	Fortran bool
	// Guards enables the reentry guard in every C wrapper.
	Guards bool

	// Compiler preprocesses mpi.h. It may carry extra arguments.
	Compiler string
	// BuiltinPreprocessor preprocesses mpi.h in process instead of running
	// Compiler. IncludePaths must then lead to mpi.h.
	BuiltinPreprocessor bool
	IncludePaths        []string

	Logger *slog.Logger
}

// CompilerFromEnv returns $MPICC, or DefaultCompiler if it is not set.
func CompilerFromEnv() string {
	if cc := os.Getenv("MPICC"); cc != "" {
		return cc
	}
	return DefaultCompiler
}

// Preprocessor returns the preprocessor the configuration asks for.
func (c Config) Preprocessor() mpi.Preprocessor {
	if c.BuiltinPreprocessor {
		return mpi.Builtin{IncludePaths: c.IncludePaths}
	}

	compiler := c.Compiler
	if compiler == "" {
		compiler = DefaultCompiler
	}
	return mpi.Compiler{Command: compiler}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

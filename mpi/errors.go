package mpi

import "fmt"

// EnvError reports that the preprocessor could not be run or failed.
type EnvError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *EnvError) Error() string {
	msg := fmt.Sprintf("couldn't run '%s' for parsing mpi.h: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// GrammarError reports text in a declaration that does not fit the MPI
// declaration grammar.
type GrammarError struct {
	Function string
	Text     string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("match failed for '%s' in %s", e.Text, e.Function)
}

package mpi

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"modernc.org/cc/v4"
)

// stubSource is the translation unit handed to the preprocessor.
const stubSource = "#include <mpi.h>\n"

// Preprocessor expands mpi.h and returns the expanded text. Closing the
// returned reader reports any failure of the preprocessor itself.
type Preprocessor interface {
	Preprocess() (io.ReadCloser, error)
}

// Compiler preprocesses with an external C compiler, normally an MPI
// compiler wrapper that knows where mpi.h lives.
type Compiler struct {
	// Command is the compiler, optionally followed by extra arguments.
	Command string
}

func (c Compiler) Preprocess() (io.ReadCloser, error) {
	words := strings.Fields(c.Command)
	if len(words) == 0 {
		return nil, &EnvError{Command: c.Command, Err: errors.New("no compiler given")}
	}

	stub, err := os.CreateTemp("", "pmpiwrap-*.c")
	if err != nil {
		return nil, &EnvError{Command: c.Command, Err: err}
	}
	if _, err := stub.WriteString(stubSource); err != nil {
		stub.Close()
		os.Remove(stub.Name())
		return nil, &EnvError{Command: c.Command, Err: err}
	}
	if err := stub.Close(); err != nil {
		os.Remove(stub.Name())
		return nil, &EnvError{Command: c.Command, Err: err}
	}

	cmd := exec.Command(words[0], append(words[1:], "-E", stub.Name())...)
	out := &compilerOutput{
		cmd:     cmd,
		command: c.Command + " -E",
		stub:    stub.Name(),
	}
	cmd.Stderr = &out.stderr

	out.stdout, err = cmd.StdoutPipe()
	if err != nil {
		os.Remove(stub.Name())
		return nil, &EnvError{Command: out.command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		os.Remove(stub.Name())
		return nil, &EnvError{Command: out.command, Err: err}
	}

	return out, nil
}

type compilerOutput struct {
	cmd     *exec.Cmd
	command string
	stub    string
	stdout  io.ReadCloser
	stderr  bytes.Buffer
}

func (o *compilerOutput) Read(p []byte) (int, error) {
	return o.stdout.Read(p)
}

// Close drains the remaining output, waits for the compiler and removes the
// stub file.
func (o *compilerOutput) Close() error {
	defer os.Remove(o.stub)

	io.Copy(io.Discard, o.stdout)
	if err := o.cmd.Wait(); err != nil {
		return &EnvError{
			Command: o.command,
			Stderr:  strings.TrimSpace(o.stderr.String()),
			Err:     err,
		}
	}

	return nil
}

// Builtin preprocesses in process with modernc.org/cc. It still asks the host
// C compiler for predefined macros and system include paths, but needs no MPI
// compiler wrapper; IncludePaths must lead to mpi.h.
type Builtin struct {
	IncludePaths []string
}

// Preprocess returns the preprocessed stub, buffered in memory.
func (b Builtin) Preprocess() (io.ReadCloser, error) {
	const command = "builtin preprocessor"

	cfg, err := cc.NewConfig("", "")
	if err != nil {
		return nil, &EnvError{Command: command, Err: err}
	}
	// mpi.h is an angle bracket include, searched only in the system paths
	cfg.IncludePaths = append(cfg.IncludePaths, b.IncludePaths...)
	cfg.SysIncludePaths = slices.Concat(b.IncludePaths, cfg.SysIncludePaths)

	var buf bytes.Buffer
	err = cc.Preprocess(cfg, []cc.Source{
		{Name: "<predefined>", Value: cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: "pmpiwrap.c", Value: stubSource},
	}, &buf)
	if err != nil {
		return nil, &EnvError{Command: command, Err: err}
	}

	return io.NopCloser(&buf), nil
}

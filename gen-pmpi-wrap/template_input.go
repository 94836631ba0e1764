package main

import (
	"io"
	"os"

	"github.com/fardream/pmpiwrap"
)

// openTemplate opens a wrapper template. "-" reads standard input.
func openTemplate(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func processTemplate(g *pmpiwrap.Generator, w io.Writer, name string) error {
	r, err := openTemplate(name)
	if err != nil {
		return err
	}
	defer r.Close()

	return g.Process(w, name, r)
}

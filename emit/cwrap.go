// Package emit writes the C and Fortran PMPI wrapper functions for an MPI
// declaration.
//
// Write errors from w are not reported by the emitters; callers write to a
// buffered writer and check its Flush.
package emit

import (
	"fmt"
	"io"

	"github.com/fardream/pmpiwrap/mpi"
)

// GuardVar is the process wide flag set while a wrapper runs.
const GuardVar = "in_wrapper"

// InitFromFortranVar records that MPI_Init arrived through a Fortran binding.
const InitFromFortranVar = "init_was_fortran"

// ProfiledName is the name of the real implementation behind a wrapper.
func ProfiledName(name string) string {
	return "P" + name
}

// CallStatement assigns the result of the real implementation to returnVal.
func CallStatement(d *mpi.Declaration, returnVal string) string {
	return fmt.Sprintf("%s = %s%s;", returnVal, ProfiledName(d.Name), d.ArgList())
}

// InitCall writes the body of callfn for MPI_Init. The choice between the C
// and the Fortran entry point is made at run time.
func InitCall(w io.Writer, d *mpi.Declaration, returnVal string) {
	fmt.Fprintf(w, "    if (%s) {\n", InitFromFortranVar)
	fmt.Fprintf(w, "        pmpi_init_(&%s);\n", returnVal)
	fmt.Fprintf(w, "    } else {\n")
	fmt.Fprintf(w, "        %s\n", CallStatement(d, returnVal))
	fmt.Fprintf(w, "    }\n")
}

// CWrapper writes a C function with the same name and signature as d. body
// writes the statements between the result declaration and the return; it
// is expected to contain the delegating call.
func CWrapper(w io.Writer, d *mpi.Declaration, returnVal string, guards bool, body func(io.Writer) error) error {
	fmt.Fprintf(w, "%s {\n", d.Prototype())
	if guards {
		fmt.Fprintf(w, "    if (%s) return %s%s;\n", GuardVar, ProfiledName(d.Name), d.ArgList())
		fmt.Fprintf(w, "    %s = 1;\n", GuardVar)
	}
	fmt.Fprintf(w, "    %s %s = 0;\n", d.ReturnType, returnVal)

	if err := body(w); err != nil {
		return fmt.Errorf("writing body of %s: %w", d.Name, err)
	}

	if guards {
		fmt.Fprintf(w, "    %s = 0;\n", GuardVar)
	}
	fmt.Fprintf(w, "    return %s;\n", returnVal)
	fmt.Fprintf(w, "}\n\n")

	return nil
}

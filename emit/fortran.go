package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/fardream/pmpiwrap/mpi"
)

// FortranWrapperSuffix names the primary Fortran wrapper of a function.
const FortranWrapperSuffix = "_fortran_wrapper"

// FortranBindingNames are the symbol names Fortran compilers may use for an
// MPI function.
func FortranBindingNames(name string) []string {
	lower := strings.ToLower(name)
	return []string{
		strings.ToUpper(name),
		lower,
		lower + "_",
		lower + "__",
	}
}

// fortranCall assembles the delegating call of a Fortran wrapper. MPICH
// handles are plain integers and are passed straight through; other MPI
// implementations need temporaries and f2c/c2f conversions.
type fortranCall struct {
	fn        string
	returnVal string
	rtype     string

	temps      []string
	copies     []string
	writebacks []string

	actuals      []string
	mpichActuals []string
}

func (c *fortranCall) addTemp(typ, name string) {
	c.temps = append(c.temps, fmt.Sprintf("%s %s;", typ, name))
}

func (c *fortranCall) addActual(a string) {
	c.actuals = append(c.actuals, a)
	c.mpichActuals = append(c.mpichActuals, a)
}

func (c *fortranCall) addActualMPICH(a string) {
	c.mpichActuals = append(c.mpichActuals, a)
}

func (c *fortranCall) addActualMPI2(a string) {
	c.actuals = append(c.actuals, a)
}

func (c *fortranCall) addCopy(stmt string) {
	c.copies = append(c.copies, stmt)
}

func (c *fortranCall) addWriteback(stmt string) {
	c.writebacks = append(c.writebacks, stmt)
}

func (c *fortranCall) write(w io.Writer) {
	call := fmt.Sprintf("    %s %s = %s", c.rtype, c.returnVal, c.fn)

	fmt.Fprintf(w, "#if (defined(MPICH_NAME) && (MPICH_NAME == 1)) /* MPICH test */\n")
	fmt.Fprintf(w, "%s(%s);\n", call, strings.Join(c.mpichActuals, ", "))
	fmt.Fprintf(w, "#else /* MPI-2 safe call */\n")
	for _, stmts := range [][]string{c.temps, c.copies} {
		for _, s := range stmts {
			fmt.Fprintf(w, "    %s\n", s)
		}
	}
	fmt.Fprintf(w, "%s(%s);\n", call, strings.Join(c.actuals, ", "))
	for _, s := range c.writebacks {
		fmt.Fprintf(w, "    %s\n", s)
	}
	fmt.Fprintf(w, "#endif /* MPICH test */\n")
}

// addParam converts one Fortran argument for the C call.
func (c *fortranCall) addParam(p *mpi.Param) {
	if p.IsPassByValue() {
		if !p.IsHandle() {
			c.addActual(fmt.Sprintf("*(%s)", p.Name))
			return
		}
		// statuses are never passed by value
		c.addActualMPI2(fmt.Sprintf("%s_f2c(*(%s))", mpi.ConversionPrefix(p.BaseType()), p.Name))
		c.addActualMPICH(fmt.Sprintf("(%s)(*(%s))", p.BaseType(), p.Name))
		return
	}

	if !p.IsHandle() {
		c.addActual(p.Name)
		return
	}

	typ := p.BaseType()
	conv := mpi.ConversionPrefix(typ)
	temp := "temp_" + p.Name
	c.addActualMPICH(fmt.Sprintf("(%s*)%s", typ, p.Name))

	if !p.IsHandleArray() {
		c.addTemp(typ, temp)
		c.addActualMPI2("&" + temp)

		if p.IsStatus() {
			c.addCopy(fmt.Sprintf("%s_f2c(%s, &%s);", conv, p.Name, temp))
			c.addWriteback(fmt.Sprintf("%s_c2f(&%s, %s);", conv, temp, p.Name))
		} else {
			c.addCopy(fmt.Sprintf("%s = %s_f2c(*(%s));", temp, conv, p.Name))
			c.addWriteback(fmt.Sprintf("*(%s) = %s_c2f(%s);", p.Name, conv, temp))
		}
		return
	}

	var copyStmt, writeback string
	if p.IsStatus() {
		// a Fortran status is MPI_STATUS_SIZE integers
		copyStmt = fmt.Sprintf("%s_f2c(&%s[i * MPI_STATUS_SIZE], &%s[i])", conv, p.Name, temp)
		writeback = fmt.Sprintf("%s_c2f(&%s[i], &%s[i * MPI_STATUS_SIZE])", conv, temp, p.Name)
	} else {
		copyStmt = fmt.Sprintf("%s[i] = %s_f2c(%s[i])", temp, conv, p.Name)
		writeback = fmt.Sprintf("%s[i] = %s_c2f(%s[i])", p.Name, conv, temp)
	}

	count := "*(" + p.CountParam().Name + ")"
	c.addTemp(typ+"*", temp)
	c.addCopy(fmt.Sprintf("%s = (%s*)malloc(sizeof(%s) * %s);", temp, typ, typ, count))
	c.addCopy(fmt.Sprintf("for (int i=0; i < %s; i++) %s;", count, copyStmt))
	c.addActualMPI2(temp)
	c.addWriteback(fmt.Sprintf("for (int i=0; i < %s; i++) %s;", count, writeback))
	c.addWriteback(fmt.Sprintf("free(%s);", temp))
}

// FortranWrappers writes the primary Fortran wrapper of d, which converts
// arguments and calls the C entry point, followed by one shim per Fortran
// symbol name that forwards to it.
func FortranWrappers(w io.Writer, d *mpi.Declaration, returnVal string) error {
	for _, p := range d.Params {
		if p.IsHandleArray() && p.CountParam() == nil {
			return fmt.Errorf("%s: no count parameter for handle array %s", d.Name, p.Name)
		}
	}

	delegate := d.Name + FortranWrapperSuffix
	fmt.Fprintf(w, "%s {\n", d.FortranPrototype(delegate))

	call := &fortranCall{fn: d.Name, returnVal: returnVal, rtype: d.ReturnType}

	if d.Name == mpi.InitFunction {
		fmt.Fprintf(w, "    int argc = 0;\n")
		fmt.Fprintf(w, "    char ** argv = NULL;\n")
		fmt.Fprintf(w, "    %s = 1;\n", InitFromFortranVar)
		call.addActual("&argc")
		call.addActual("&argv")
	} else {
		for _, p := range d.ParamsNoEllipsis() {
			call.addParam(p)
		}
	}

	call.write(w)
	fmt.Fprintf(w, "    *ierr = %s;\n", returnVal)
	fmt.Fprintf(w, "}\n\n")

	for _, binding := range FortranBindingNames(d.Name) {
		fmt.Fprintf(w, "%s {\n", d.FortranPrototype(binding))
		fmt.Fprintf(w, "    %s%s;\n", delegate, d.FortranArgList())
		fmt.Fprintf(w, "}\n\n")
	}

	return nil
}

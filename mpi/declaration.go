package mpi

import (
	"fmt"
	"sort"
	"strings"
)

// InitFunction is the process initialization call. Several generators special
// case it because its Fortran binding takes no argc/argv.
const InitFunction = "MPI_Init"

// Ellipsis is the name recorded for a variadic parameter.
const Ellipsis = "..."

// Param is a formal parameter of an MPI function. It holds the pieces of the
// declaration as text, not a full C type.
type Param struct {
	// Type is the type name, possibly qualified ("const int"). Empty for "...".
	Type string
	// Pointers is the pointer part of the declarator, e.g. "*" or "* const *".
	Pointers string
	// Name is the formal name from the header, or arg_<pos> if there was none.
	Name string
	// Array is the array suffix after the name, e.g. "[]" or "[][3]".
	Array string
	// Pos is the 0-based position in the owning declaration.
	Pos int

	decl *Declaration
}

// Declaration returns the declaration the parameter belongs to.
func (p *Param) Declaration() *Declaration {
	return p.decl
}

// IsEllipsis reports whether p stands for a variadic "..." parameter.
func (p *Param) IsEllipsis() bool {
	return p.Type == "" && p.Name == Ellipsis
}

// CFormal formats the parameter for a C prototype.
func (p *Param) CFormal() string {
	if p.Type == "" {
		return p.Name
	}
	return fmt.Sprintf("%s %s%s%s", p.Type, p.Pointers, p.Name, p.Array)
}

// FortranFormal formats the parameter for a Fortran-callable prototype.
// Everything arrives by reference, so scalars become pointers and most types
// become MPI_Fint.
func (p *Param) FortranFormal() string {
	ftype := "MPI_Fint"
	if base := p.BaseType(); base == "MPI_Aint" || strings.HasSuffix(base, "_function") {
		ftype = base
	}

	pointers := "*"
	switch {
	case p.Pointers != "":
		pointers = p.Pointers
	case p.Array != "":
		pointers = ""
	}

	return fmt.Sprintf("%s %s%s%s", ftype, pointers, p.Name, p.Array)
}

func (p *Param) String() string {
	return p.CFormal()
}

// Declaration is an MPI function declaration recovered from mpi.h.
type Declaration struct {
	ReturnType string
	Name       string
	Params     []*Param
}

// NewDeclaration returns a declaration with no parameters yet.
func NewDeclaration(returnType, name string) *Declaration {
	return &Declaration{ReturnType: returnType, Name: name}
}

// AddParam appends p and points it back at d.
func (d *Declaration) AddParam(p *Param) {
	p.decl = d
	d.Params = append(d.Params, p)
}

// ParamsNoEllipsis returns the parameters that can be named at a call site.
func (d *Declaration) ParamsNoEllipsis() []*Param {
	r := make([]*Param, 0, len(d.Params))
	for _, p := range d.Params {
		if !p.IsEllipsis() {
			r = append(r, p)
		}
	}
	return r
}

// ArgTypeList is the parenthesized typed parameter list, for prototypes.
func (d *Declaration) ArgTypeList() string {
	formals := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		formals = append(formals, p.CFormal())
	}
	return "(" + strings.Join(formals, ", ") + ")"
}

// ArgList is the parenthesized list of parameter names, for call sites.
func (d *Declaration) ArgList() string {
	return "(" + strings.Join(d.names(), ", ") + ")"
}

func (d *Declaration) names() []string {
	r := []string{}
	for _, p := range d.ParamsNoEllipsis() {
		r = append(r, p.Name)
	}
	return r
}

// FortranArgTypeList is the typed parameter list of the Fortran bindings,
// ending with the error code pointer.
func (d *Declaration) FortranArgTypeList() string {
	formals := []string{}
	if d.Name != InitFunction {
		for _, p := range d.ParamsNoEllipsis() {
			formals = append(formals, p.FortranFormal())
		}
	}
	formals = append(formals, "MPI_Fint *ierr")
	return "(" + strings.Join(formals, ", ") + ")"
}

// FortranArgList is the call list the Fortran shims forward to the primary
// Fortran wrapper.
func (d *Declaration) FortranArgList() string {
	names := []string{}
	if d.Name != InitFunction {
		names = d.names()
	}
	names = append(names, "ierr")
	return "(" + strings.Join(names, ", ") + ")"
}

// Prototype returns the C prototype, without a trailing semicolon.
func (d *Declaration) Prototype() string {
	return fmt.Sprintf("%s %s%s", d.ReturnType, d.Name, d.ArgTypeList())
}

// FortranPrototype is the prototype of a Fortran binding named name. An empty
// name uses the function's own name.
func (d *Declaration) FortranPrototype(name string) string {
	if name == "" {
		name = d.Name
	}
	return fmt.Sprintf("void %s%s", name, d.FortranArgTypeList())
}

func (d *Declaration) String() string {
	return d.Prototype()
}

// Table maps function names to their declarations. It is filled once from the
// extractor and only read afterwards.
type Table map[string]*Declaration

// Add inserts d, replacing an earlier declaration of the same name.
func (t Table) Add(d *Declaration) {
	t[d.Name] = d
}

// Lookup returns the declaration of name, if any.
func (t Table) Lookup(name string) (*Declaration, bool) {
	d, ok := t[name]
	return d, ok
}

// Names returns every function name in the table, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Except returns the names of all functions not listed in names. The order is
// not part of the contract.
func (t Table) Except(names ...string) []string {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}

	r := []string{}
	for _, name := range t.Names() {
		if _, ok := skip[name]; !ok {
			r = append(r, name)
		}
	}
	return r
}

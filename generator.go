// Package pmpiwrap generates PMPI wrappers: C functions that replace MPI
// calls, run user supplied code around them, and call the real PMPI
// implementation, with optional Fortran bindings.
//
// Wrappers are described by templates. Text is copied to the output, and
// directives in {{ }} are expanded. The built-in body macros are
//
//	{{foreachfn f MPI_Send MPI_Recv}} ... {{endforeachfn}}  run the body once per listed function
//	{{forallfn f MPI_Init}} ... {{endforallfn}}             the same, for every function not listed
//	{{fn f MPI_Send MPI_Recv}} ... {{endfn}}                write a wrapper per listed function, the body is its code
//	{{fnall f MPI_Init}} ... {{endfnall}}                   the same, for every function not listed
//
// Inside a body, {{f}} is the function name, {{retType}}, {{argTypeList}} and
// {{argList}} describe its signature and {{fn_num}} counts iterations. The
// wrapper macros also bind {{return_val}} and {{callfn}}, the call to the
// PMPI function. {{fileno}} is the index of the template being processed.
package pmpiwrap

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/template"

	"github.com/fardream/pmpiwrap/emit"
	"github.com/fardream/pmpiwrap/mpi"
	"github.com/fardream/pmpiwrap/tmpl"
)

//go:embed preamble.tmpl
var preambleText string

var preambleTmpl = template.Must(template.New("preamble").Parse(preambleText))

// ReturnVal is the name of the result variable in generated wrappers.
const ReturnVal = "return_val"

// Generator expands wrapper templates against a table of MPI functions.
type Generator struct {
	cfg       Config
	log       *slog.Logger
	functions mpi.Table
	macros    map[string]tmpl.Value
	fileno    int
}

// New returns a generator for the given function table.
func New(cfg Config, functions mpi.Table) *Generator {
	g := &Generator{
		cfg:       cfg,
		log:       cfg.logger(),
		functions: functions,
	}

	g.macros = map[string]tmpl.Value{
		"foreachfn": tmpl.Generator(g.foreachfn),
		"forallfn":  tmpl.Generator(g.forallfn),
		"fn":        tmpl.Generator(g.fn),
		"fnall":     tmpl.Generator(g.fnall),
	}

	return g
}

// Load reads the MPI declarations with the configured preprocessor and
// returns a generator for them.
func Load(cfg Config) (*Generator, error) {
	functions, err := mpi.ReadTable(cfg.Preprocessor())
	if err != nil {
		return nil, err
	}

	cfg.logger().Debug("read MPI declarations", "count", len(functions))
	return New(cfg, functions), nil
}

// Functions returns the MPI functions the generator knows about.
func (g *Generator) Functions() mpi.Table {
	return g.functions
}

// WritePreamble writes the includes and global declarations every generated
// file starts with.
func (g *Generator) WritePreamble(w io.Writer) error {
	var b bytes.Buffer
	err := preambleTmpl.Execute(&b, map[string]any{
		"Guards":             g.cfg.Guards,
		"GuardVar":           emit.GuardVar,
		"InitFromFortranVar": emit.InitFromFortranVar,
		"InitAliases":        []string{"pmpi_init", "PMPI_INIT", "pmpi_init__"},
		"InitBindings":       []string{"pmpi_init", "PMPI_INIT", "pmpi_init_", "pmpi_init__"},
	})
	if err != nil {
		return err
	}

	_, err = w.Write(b.Bytes())
	return err
}

// Process parses the template read from r and writes its expansion to w.
// name is only used in messages. Templates are numbered in the order they
// are processed.
func (g *Generator) Process(w io.Writer, name string, r io.Reader) error {
	fileno := g.fileno
	g.fileno++
	g.log.Debug("processing template", "name", name, "fileno", fileno)

	tokens, err := tmpl.NewLexer(tmpl.OpenMarker, tmpl.CloseMarker).Lex(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	nodes, err := tmpl.Parse(tokens, g.hasBody)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	scope := tmpl.NewScope(nil)
	scope.Include(g.macros)
	scope.SetString("fileno", strconv.Itoa(fileno))

	if err := tmpl.Execute(w, nodes, scope); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

func (g *Generator) hasBody(name string) bool {
	_, ok := g.macros[name]
	return ok
}

func notMPIFunction(name string) error {
	return &tmpl.SemanticError{Msg: name + " is not an MPI function"}
}

// bind returns a new scope for one iteration over d.
func (g *Generator) bind(scope *tmpl.Scope, fnVar string, d *mpi.Declaration, i int) *tmpl.Scope {
	s := tmpl.NewScope(scope)
	s.SetString(fnVar, d.Name)
	s.SetString("fn_num", strconv.Itoa(i))
	s.SetString("retType", d.ReturnType)
	s.SetString("argTypeList", d.ArgTypeList())
	s.SetString("argList", d.ArgList())
	return s
}

// lookup resolves every name in names before anything is written.
func (g *Generator) lookup(macro string, args []string) (string, []*mpi.Declaration, error) {
	if len(args) == 0 {
		return "", nil, &tmpl.SyntaxError{Msg: macro + " needs a variable name"}
	}

	decls := make([]*mpi.Declaration, 0, len(args)-1)
	for _, name := range args[1:] {
		d, ok := g.functions.Lookup(name)
		if !ok {
			return "", nil, notMPIFunction(name)
		}
		decls = append(decls, d)
	}

	return args[0], decls, nil
}

// allBut replaces the function list in args with every other function.
func (g *Generator) allBut(macro string, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, &tmpl.SyntaxError{Msg: macro + " needs a variable name"}
	}

	for _, name := range args[1:] {
		if _, ok := g.functions.Lookup(name); !ok {
			g.log.Warn("excluded function is not in mpi.h", "macro", macro, "function", name)
		}
	}

	return append([]string{args[0]}, g.functions.Except(args[1:]...)...), nil
}

// foreachfn runs its body once per listed function.
func (g *Generator) foreachfn(w io.Writer, scope *tmpl.Scope, args []string, children []*tmpl.Node) error {
	fnVar, decls, err := g.lookup("foreachfn", args)
	if err != nil {
		return err
	}

	for i, d := range decls {
		if err := tmpl.Execute(w, children, g.bind(scope, fnVar, d, i)); err != nil {
			return err
		}
	}

	return nil
}

// forallfn runs its body once per function not listed.
func (g *Generator) forallfn(w io.Writer, scope *tmpl.Scope, args []string, children []*tmpl.Node) error {
	args, err := g.allBut("forallfn", args)
	if err != nil {
		return err
	}
	return g.foreachfn(w, scope, args, children)
}

// fn writes a complete wrapper for each listed function, with the body as
// the wrapper's code.
func (g *Generator) fn(w io.Writer, scope *tmpl.Scope, args []string, children []*tmpl.Node) error {
	fnVar, decls, err := g.lookup("fn", args)
	if err != nil {
		return err
	}

	for i, d := range decls {
		s := g.bind(scope, fnVar, d, i)
		s.SetString("return_val", ReturnVal)
		s.SetString("callfn", emit.CallStatement(d, ReturnVal))

		if d.Name == mpi.InitFunction {
			d := d
			s.Set("callfn", tmpl.Generator(func(w io.Writer, _ *tmpl.Scope, _ []string, _ []*tmpl.Node) error {
				emit.InitCall(w, d, ReturnVal)
				return nil
			}))
		}

		body := func(w io.Writer) error {
			return tmpl.Execute(w, children, s)
		}
		if err := emit.CWrapper(w, d, ReturnVal, g.cfg.Guards, body); err != nil {
			return err
		}

		if g.cfg.Fortran {
			if err := emit.FortranWrappers(w, d, ReturnVal); err != nil {
				return err
			}
		}
	}

	return nil
}

// fnall writes a wrapper for every function not listed.
func (g *Generator) fnall(w io.Writer, scope *tmpl.Scope, args []string, children []*tmpl.Node) error {
	args, err := g.allBut("fnall", args)
	if err != nil {
		return err
	}
	return g.fn(w, scope, args, children)
}

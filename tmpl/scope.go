package tmpl

import "io"

// Value is what a name is bound to in a Scope: a Literal or a Generator.
type Value interface {
	isValue()
}

// Literal is written to the output as is.
type Literal string

// Generator is a macro implemented in Go. It gets a fresh child scope of the
// directive's scope and decides itself whether and how often to run children.
type Generator func(w io.Writer, scope *Scope, args []string, children []*Node) error

func (Literal) isValue()   {}
func (Generator) isValue() {}

// Scope binds names to values. Lookups fall through to the parent scope;
// writes always go to the local layer.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewScope returns an empty scope enclosed by parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]Value)}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Lookup(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) Set(name string, v Value) {
	s.vars[name] = v
}

func (s *Scope) SetString(name, v string) {
	s.vars[name] = Literal(v)
}

// Include copies every binding of vars into the local layer.
func (s *Scope) Include(vars map[string]Value) {
	for k, v := range vars {
		s.vars[k] = v
	}
}

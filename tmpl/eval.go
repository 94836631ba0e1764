package tmpl

import (
	"fmt"
	"io"
)

// Execute writes nodes to w in document order. Text nodes are written as is.
// A macro node is looked up in scope: a Literal is written out, a Generator is
// called with a new child scope.
func Execute(w io.Writer, nodes []*Node, scope *Scope) error {
	for _, n := range nodes {
		if err := execute(w, n, scope); err != nil {
			return err
		}
	}
	return nil
}

func execute(w io.Writer, n *Node, scope *Scope) error {
	if !n.IsMacro() {
		_, err := io.WriteString(w, n.Text)
		return err
	}

	v, ok := scope.Lookup(n.Macro)
	if !ok {
		return &SyntaxError{Msg: "invalid macro: " + n.Macro}
	}

	switch v := v.(type) {
	case Literal:
		_, err := io.WriteString(w, string(v))
		return err
	case Generator:
		return v(w, NewScope(scope), n.Args, n.Children)
	default:
		return fmt.Errorf("macro %s is bound to unsupported value %T", n.Macro, v)
	}
}

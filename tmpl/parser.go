package tmpl

import (
	"fmt"
	"strings"
)

// Node is a piece of a parsed template: literal text, or a macro invocation
// with its arguments and, for body macros, the nodes up to its end directive.
type Node struct {
	Text     string
	Macro    string
	Args     []string
	Children []*Node
}

func (n *Node) IsMacro() bool {
	return n.Macro != ""
}

type parser struct {
	tokens  []Token
	pos     int
	hasBody func(string) bool
}

// Parse turns tokens into a node list. hasBody reports which macro names take
// a body; a nil hasBody means none do.
func Parse(tokens []Token, hasBody func(string) bool) ([]*Node, error) {
	if hasBody == nil {
		hasBody = func(string) bool { return false }
	}

	p := &parser{tokens: tokens, hasBody: hasBody}
	return p.parse("")
}

func (p *parser) next() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, true
}

// parse collects nodes until the directive named end, which it consumes
// without producing a node. An empty end parses to the end of input.
func (p *parser) parse(end string) ([]*Node, error) {
	nodes := []*Node{}

	for {
		tok, ok := p.next()
		if !ok {
			break
		}

		switch tok.Kind {
		case TokenText:
			nodes = append(nodes, &Node{Text: tok.Value})
		case TokenOpen:
			text, ok1 := p.next()
			closing, ok2 := p.next()
			if !ok1 || !ok2 || text.Kind != TokenText || closing.Kind != TokenClose {
				return nil, &SyntaxError{Msg: "expected macro body after open brace"}
			}

			args := strings.Fields(text.Value)
			if len(args) == 0 {
				return nil, &SyntaxError{Msg: "empty directive"}
			}

			name := args[0]
			if end != "" && name == end {
				return nodes, nil
			}

			node := &Node{Macro: name, Args: args[1:]}
			if p.hasBody(name) {
				children, err := p.parse("end" + name)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}
			nodes = append(nodes, node)
		default:
			return nil, &SyntaxError{Msg: fmt.Sprintf("expected text block or macro, got %s", tok.Kind)}
		}
	}

	if end != "" {
		return nil, &SyntaxError{Msg: fmt.Sprintf("missing {{%s}}", end)}
	}

	return nodes, nil
}

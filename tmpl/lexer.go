// Package tmpl implements the wrapper template language: text interleaved
// with {{name args...}} directives, where some directives take a body that
// runs up to a matching {{endname}}.
package tmpl

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default directive markers.
const (
	OpenMarker  = "{{"
	CloseMarker = "}}"
)

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenOpen
	TokenClose
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenOpen:
		return "open"
	case TokenClose:
		return "close"
	default:
		return "invalid"
	}
}

type Token struct {
	Kind  TokenKind
	Value string
}

// Lexer splits template text into text and marker tokens. A text token is
// produced at every marker, even an empty one, so text and markers strictly
// alternate. Markers cannot be escaped.
type Lexer struct {
	open, close string

	inTag bool
	text  strings.Builder
}

func NewLexer(open, close string) *Lexer {
	return &Lexer{open: open, close: close}
}

// LexLine lexes the next piece of input. State carries over between calls, so
// a directive may span lines.
func (l *Lexer) LexLine(line string) []Token {
	var tokens []Token

	for len(line) > 0 {
		kind, marker := TokenOpen, l.open
		if l.inTag {
			kind, marker = TokenClose, l.close
		}

		end := strings.Index(line, marker)
		if end < 0 {
			l.text.WriteString(line)
			break
		}

		l.text.WriteString(line[:end])
		tokens = append(tokens,
			Token{Kind: TokenText, Value: l.text.String()},
			Token{Kind: kind, Value: marker},
		)
		l.text.Reset()
		line = line[end+len(marker):]
		l.inTag = !l.inTag
	}

	return tokens
}

// Flush returns the trailing text token, if any text is pending.
func (l *Lexer) Flush() []Token {
	if l.text.Len() == 0 {
		return nil
	}
	t := Token{Kind: TokenText, Value: l.text.String()}
	l.text.Reset()
	return []Token{t}
}

// Lex reads r to the end and returns all of its tokens. A leading UTF-8 byte
// order mark is dropped; all other bytes are kept as read.
func (l *Lexer) Lex(r io.Reader) ([]Token, error) {
	tr := unicode.BOMOverride(transform.Nop)
	br := bufio.NewReader(transform.NewReader(r, tr))

	var tokens []Token
	for {
		line, err := br.ReadString('\n')
		tokens = append(tokens, l.LexLine(line)...)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
	}

	return append(tokens, l.Flush()...), nil
}

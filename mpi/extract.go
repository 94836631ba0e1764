package mpi

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	// return types worth wrapping. double picks up MPI_Wtime and MPI_Wtick.
	beginDeclRe = regexp.MustCompile(`(int|double)\s+(MPI_\w+)\(`)
	// handle conversion functions return handles, not error codes.
	excludeRe = regexp.MustCompile(`c2f|f2c`)
	endDeclRe = regexp.MustCompile(`\).*;`)
	// type, pointers, optional name, optional array suffix
	formalRe = regexp.MustCompile(`^\s*((?:const)?\s*\w+)\s*((?:\s*\*(?:\s*const)?)*)\s*(?:(\w+)\s*)?(\[.*\])?\s*$`)
)

const maxLineSize = 1 << 20

// DeclScanner reads MPI function declarations out of preprocessed C text.
// Use it like a bufio.Scanner: call Scan until it returns false, then Err.
type DeclScanner struct {
	lines *bufio.Scanner
	decl  *Declaration
	err   error
}

func NewDeclScanner(r io.Reader) *DeclScanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &DeclScanner{lines: lines}
}

// Scan advances to the next declaration.
func (s *DeclScanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for s.lines.Scan() {
		line := strings.TrimSpace(s.lines.Text())
		m := beginDeclRe.FindStringSubmatchIndex(line)
		if m == nil || excludeRe.MatchString(line) {
			continue
		}

		returnType, name := line[m[2]:m[3]], line[m[4]:m[5]]

		// declarations may be wrapped over several lines
		for !endDeclRe.MatchString(line) {
			if !s.lines.Scan() {
				s.err = s.lines.Err()
				if s.err == nil {
					s.err = &GrammarError{Function: name, Text: line}
				}
				return false
			}
			line += " " + strings.TrimSpace(s.lines.Text())
		}

		args, ok := argumentText(line[m[1]:])
		if !ok {
			s.err = &GrammarError{Function: name, Text: line}
			return false
		}

		s.decl, s.err = ParseDeclaration(returnType, name, args)
		return s.err == nil
	}

	s.err = s.lines.Err()
	return false
}

// Decl returns the declaration found by the last successful Scan.
func (s *DeclScanner) Decl() *Declaration {
	return s.decl
}

func (s *DeclScanner) Err() error {
	return s.err
}

// argumentText returns s up to the parenthesis closing an argument list whose
// opening parenthesis has already been consumed.
func argumentText(s string) (string, bool) {
	depth := 1
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], true
			}
		}
	}
	return "", false
}

// ParseDeclaration builds a declaration from the text between the parentheses
// of its argument list.
func ParseDeclaration(returnType, name, args string) (*Declaration, error) {
	decl := NewDeclaration(returnType, name)

	argList := strings.Split(args, ",")
	for i := range argList {
		argList[i] = strings.TrimSpace(argList[i])
	}

	if len(argList) == 1 && (argList[0] == "void" || argList[0] == "") {
		return decl, nil
	}

	for pos, arg := range argList {
		if arg == Ellipsis {
			decl.AddParam(&Param{Name: Ellipsis, Pos: pos})
			continue
		}

		p, err := parseParam(arg, pos)
		if err != nil {
			return nil, &GrammarError{Function: name, Text: arg}
		}
		decl.AddParam(p)
	}

	return decl, nil
}

func parseParam(arg string, pos int) (*Param, error) {
	m := formalRe.FindStringSubmatch(arg)
	if m == nil {
		return nil, fmt.Errorf("%q is not a formal parameter", arg)
	}

	name := m[3]
	if name == "" {
		name = "arg_" + strconv.Itoa(pos)
	}

	return &Param{
		Type:     strings.TrimSpace(m[1]),
		Pointers: m[2],
		Name:     name,
		Array:    m[4],
		Pos:      pos,
	}, nil
}

// Enumerate runs pp and calls fn for each declaration in its output, in
// header order. Every call runs the preprocessor again.
func Enumerate(pp Preprocessor, fn func(*Declaration) error) (err error) {
	rc, err := pp.Preprocess()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
	}()

	s := NewDeclScanner(rc)
	for s.Scan() {
		if err := fn(s.Decl()); err != nil {
			return err
		}
	}

	return s.Err()
}

// ReadTable collects every declaration pp yields into a Table.
func ReadTable(pp Preprocessor) (Table, error) {
	t := make(Table)
	err := Enumerate(pp, func(d *Declaration) error {
		t.Add(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

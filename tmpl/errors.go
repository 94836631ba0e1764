package tmpl

// SyntaxError reports a malformed template or a directive naming no macro.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}

// SemanticError reports a directive whose arguments don't make sense, such as
// a function name missing from the function table.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string {
	return e.Msg
}

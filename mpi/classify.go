package mpi

import "strings"

// handleTypes are the opaque MPI handles whose C and Fortran representations
// differ.
var handleTypes = map[string]struct{}{
	"MPI_Comm":       {},
	"MPI_Errhandler": {},
	"MPI_File":       {},
	"MPI_Group":      {},
	"MPI_Info":       {},
	"MPI_Op":         {},
	"MPI_Request":    {},
	"MPI_Status":     {},
	"MPI_Datatype":   {},
	"MPI_Win":        {},
}

// arrayCalls maps functions taking arrays of handles to a map from the array
// parameter position to the position of the parameter holding its length.
var arrayCalls = map[string]map[int]int{
	"MPI_Startall":           {1: 0},
	"MPI_Testall":            {1: 0, 3: 0},
	"MPI_Testany":            {1: 0},
	"MPI_Testsome":           {1: 0, 4: 0},
	"MPI_Type_create_struct": {3: 0},
	"MPI_Type_get_contents":  {6: 1},
	"MPI_Type_struct":        {3: 0},
	"MPI_Waitall":            {1: 0, 2: 0},
	"MPI_Waitany":            {1: 0},
	"MPI_Waitsome":           {1: 0, 4: 0},
}

// IsHandleType reports whether t names one of the MPI handle types.
func IsHandleType(t string) bool {
	_, ok := handleTypes[t]
	return ok
}

// ConversionPrefix returns the prefix of the _f2c/_c2f functions for a handle
// type. MPI_Datatype is the only irregular one.
func ConversionPrefix(handleType string) string {
	if handleType == "MPI_Datatype" {
		return "MPI_Type"
	}
	return handleType
}

// BaseType is the type name with any const qualifier removed.
func (p *Param) BaseType() string {
	fields := strings.Fields(p.Type)
	r := fields[:0:0]
	for _, f := range fields {
		if f != "const" {
			r = append(r, f)
		}
	}
	return strings.Join(r, " ")
}

// IsHandle reports whether the parameter's type is an MPI handle.
func (p *Param) IsHandle() bool {
	return IsHandleType(p.BaseType())
}

// IsStatus reports whether the parameter is an MPI_Status, which converts
// with structure copies rather than scalar handle calls.
func (p *Param) IsStatus() bool {
	return p.BaseType() == "MPI_Status"
}

// IsHandleArray reports whether the parameter is an array of handles whose
// length is given by another parameter.
func (p *Param) IsHandleArray() bool {
	if p.decl == nil {
		return false
	}
	positions, ok := arrayCalls[p.decl.Name]
	if !ok {
		return false
	}
	_, ok = positions[p.Pos]
	return ok
}

// CountParam returns the parameter holding the element count of a handle
// array, or nil if p is not a handle array.
func (p *Param) CountParam() *Param {
	if !p.IsHandleArray() {
		return nil
	}
	pos := arrayCalls[p.decl.Name][p.Pos]
	if pos < 0 || pos >= len(p.decl.Params) {
		return nil
	}
	return p.decl.Params[pos]
}

// IsPassByValue reports whether the C function takes the parameter by value.
func (p *Param) IsPassByValue() bool {
	return p.Pointers == "" && p.Array == ""
}

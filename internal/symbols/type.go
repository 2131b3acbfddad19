package symbols

import (
	"fmt"

	"peregrine/internal/diag"
)

// TypeKind classifies a top-level type lookup result.
type TypeKind uint8

const (
	// TypeNone means the name is neither declared nor forwarded.
	TypeNone TypeKind = iota
	// TypeNamed is a type declared in Assembly under its canonical Name.
	TypeNamed
	// TypeError is a malformed-forwarding result; see Err.
	TypeError
)

func (k TypeKind) String() string {
	switch k {
	case TypeNamed:
		return "named"
	case TypeError:
		return "error"
	default:
		return "none"
	}
}

// Type is the closed result set of top-level type resolution: a named
// declaration, an error symbol, or nothing.
type Type struct {
	Kind     TypeKind
	Name     string
	Assembly *AssemblySymbol
	Err      *ForwardError
}

// Found reports whether the lookup produced a declaration or an error symbol.
func (t Type) Found() bool { return t.Kind != TypeNone }

// IsError reports whether the result is an error-type symbol.
func (t Type) IsError() bool { return t.Kind == TypeError }

// ForwardErrorKind distinguishes the malformed-forwarding shapes.
type ForwardErrorKind uint8

const (
	// ForwardAmbiguous: one module forwards the same type to two targets.
	ForwardAmbiguous ForwardErrorKind = iota + 1
	// ForwardCycle: the forwarder chain revisits an assembly.
	ForwardCycle
)

// ForwardError carries everything the diagnostics layer needs to describe a
// broken forward: the offending name, the assembly (and, for ambiguity, the
// module) it is attributed to, and the candidate targets.
type ForwardError struct {
	Kind     ForwardErrorKind
	TypeName string
	Assembly *AssemblySymbol
	Module   string
	First    *AssemblySymbol
	Second   *AssemblySymbol
}

func errorType(err *ForwardError) Type {
	return Type{Kind: TypeError, Name: err.TypeName, Assembly: err.Assembly, Err: err}
}

// Diagnostic converts the error symbol into a reportable diagnostic.
func (e *ForwardError) Diagnostic() diag.Diagnostic {
	origin := diag.Origin{}
	if e.Assembly != nil {
		origin.Assembly = e.Assembly.Identity().Name
	}
	switch e.Kind {
	case ForwardAmbiguous:
		origin.Module = e.Module
		d := diag.NewError(diag.MetaAmbiguousForward, origin,
			fmt.Sprintf("type %q is forwarded to multiple assemblies", e.TypeName))
		if e.First != nil {
			d = d.WithNote(diag.Origin{Assembly: e.First.Identity().Name}, "first forwarding target")
		}
		if e.Second != nil {
			d = d.WithNote(diag.Origin{Assembly: e.Second.Identity().Name}, "second forwarding target")
		}
		return d
	case ForwardCycle:
		return diag.NewError(diag.MetaForwardCycle, origin,
			fmt.Sprintf("cycle in the type forwarder chain for %q", e.TypeName))
	}
	return diag.NewError(diag.UnknownCode, origin, "malformed type forward")
}

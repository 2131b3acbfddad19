package symbols

// visitChain is an immutable cons list of assemblies already on the
// forwarding path. Extension prepends a node and shares the tail, so
// concurrent resolutions never touch shared mutable state.
type visitChain struct {
	assembly *AssemblySymbol
	tail     *visitChain
}

func (c *visitChain) push(a *AssemblySymbol) *visitChain {
	return &visitChain{assembly: a, tail: c}
}

func (c *visitChain) contains(a *AssemblySymbol) bool {
	for node := c; node != nil; node = node.tail {
		if node.assembly == a {
			return true
		}
	}
	return false
}

// LookupTopLevelType resolves a top-level type name against this assembly:
// local declarations first, then the forwarding chain. The result is a named
// type, an error-type symbol (ambiguous forward or forwarding cycle), or
// nothing.
func (a *AssemblySymbol) LookupTopLevelType(name string, ignoreCase bool) Type {
	return a.lookupTopLevelType(name, nil, ignoreCase)
}

func (a *AssemblySymbol) lookupTopLevelType(name string, visited *visitChain, ignoreCase bool) Type {
	for _, mod := range a.modules {
		if declared, ok := mod.DeclaresTopLevelType(name, ignoreCase); ok {
			return Type{Kind: TypeNamed, Name: declared, Assembly: a}
		}
	}
	return a.resolveForwardedType(name, visited, ignoreCase)
}

// resolveForwardedType walks the forwarding chain starting at this
// assembly's primary module. visited holds the assemblies already on the
// chain, not including this one; it is extended immutably before recursion.
func (a *AssemblySymbol) resolveForwardedType(name string, visited *visitChain, ignoreCase bool) Type {
	first, second, matchedName := a.LookupAssembliesForForwardedType(name, ignoreCase)
	if first == nil {
		return Type{}
	}
	if second != nil {
		// The assembly's own metadata is self-contradictory. Report both
		// targets against the declaring module and do not descend.
		return errorType(&ForwardError{
			Kind:     ForwardAmbiguous,
			TypeName: matchedName,
			Assembly: a,
			Module:   a.PrimaryModule().Name(),
			First:    first,
			Second:   second,
		})
	}
	chain := visited.push(a)
	if chain.contains(first) {
		return errorType(&ForwardError{
			Kind:     ForwardCycle,
			TypeName: matchedName,
			Assembly: a,
			First:    first,
		})
	}
	// Continue under the declared casing so downstream lookups are
	// canonical even when the query matched case-insensitively.
	return first.lookupTopLevelType(matchedName, chain, ignoreCase)
}

package symbols

import (
	"sort"
	"sync/atomic"

	"golang.org/x/text/cases"

	"peregrine/internal/meta"
)

// foldKey canonicalizes a type name for case-insensitive table lookups.
// A fresh Caser per call: Casers are stateful and not safe to share.
func foldKey(s string) string {
	return cases.Fold().String(s)
}

// forwardEntry is one declared forward target for a type name. Targets keep
// declaration order; a second distinct target marks the name as ambiguously
// forwarded by this module.
type forwardEntry struct {
	declared string
	targets  []string
}

// ModuleSymbol represents one physical module of an assembly. It owns the
// module's forward table and local top-level type index and answers the
// narrow queries the assembly symbol needs. All fields except refs are built
// at construction and never mutated, so concurrent readers need no locking.
type ModuleSymbol struct {
	assembly *AssemblySymbol
	reader   meta.ModuleReader
	ordinal  int

	forwards  map[string]*forwardEntry // exact declared name
	forwardCI map[string]string        // fold key -> first declared name
	locals    map[string]string        // exact declared name -> canonical
	localCI   map[string]string        // fold key -> canonical

	// refs maps referenced assembly names to symbols. Bound exactly once by
	// the reference manager after all assemblies in the set are known.
	refs atomic.Pointer[map[string]*AssemblySymbol]
}

func newModuleSymbol(assembly *AssemblySymbol, reader meta.ModuleReader, ordinal int) *ModuleSymbol {
	m := &ModuleSymbol{
		assembly:  assembly,
		reader:    reader,
		ordinal:   ordinal,
		forwards:  make(map[string]*forwardEntry),
		forwardCI: make(map[string]string),
		locals:    make(map[string]string),
		localCI:   make(map[string]string),
	}
	for _, fwd := range reader.ForwardedTypes() {
		entry, ok := m.forwards[fwd.TypeName]
		if !ok {
			entry = &forwardEntry{declared: fwd.TypeName}
			m.forwards[fwd.TypeName] = entry
			key := foldKey(fwd.TypeName)
			if _, dup := m.forwardCI[key]; !dup {
				m.forwardCI[key] = fwd.TypeName
			}
		}
		if !containsString(entry.targets, fwd.Target) {
			entry.targets = append(entry.targets, fwd.Target)
		}
	}
	for _, name := range reader.TopLevelTypes() {
		if _, dup := m.locals[name]; dup {
			continue
		}
		m.locals[name] = name
		key := foldKey(name)
		if _, dup := m.localCI[key]; !dup {
			m.localCI[key] = name
		}
	}
	return m
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Name returns the module file name.
func (m *ModuleSymbol) Name() string { return m.reader.Name() }

// Ordinal returns the module's position in the assembly; 0 is primary.
func (m *ModuleSymbol) Ordinal() int { return m.ordinal }

// Assembly returns the owning assembly symbol.
func (m *ModuleSymbol) Assembly() *AssemblySymbol { return m.assembly }

// SetReferences binds referenced-assembly names to symbols. Called exactly
// once by the reference manager; a second call is a programming error.
func (m *ModuleSymbol) SetReferences(refs map[string]*AssemblySymbol) {
	copied := make(map[string]*AssemblySymbol, len(refs))
	for name, sym := range refs {
		copied[name] = sym
	}
	if !m.refs.CompareAndSwap(nil, &copied) {
		panic("symbols: references already bound for module " + m.Name())
	}
}

func (m *ModuleSymbol) resolveRef(name string) *AssemblySymbol {
	p := m.refs.Load()
	if p == nil {
		return nil
	}
	return (*p)[name]
}

// AssembliesForForwardedType consults the module's forward table. It returns
// up to two candidate target assemblies: the second is non-nil only when the
// module itself forwards the name to two different targets. matchedName is
// the declared casing of the matched entry, which may differ from name when
// ignoreCase is set.
func (m *ModuleSymbol) AssembliesForForwardedType(name string, ignoreCase bool) (first, second *AssemblySymbol, matchedName string) {
	entry, ok := m.forwards[name]
	if !ok && ignoreCase {
		if declared, okCI := m.forwardCI[foldKey(name)]; okCI {
			entry, ok = m.forwards[declared]
		}
	}
	if !ok {
		return nil, nil, ""
	}
	matchedName = entry.declared
	for _, target := range entry.targets {
		sym := m.resolveRef(target)
		if sym == nil {
			continue
		}
		switch {
		case first == nil:
			first = sym
		case sym != first && second == nil:
			second = sym
		}
	}
	if first == nil {
		// Targets declared but none resolvable in the reference set.
		return nil, nil, ""
	}
	return first, second, matchedName
}

// ForwardedTypes enumerates declared forward names, sorted, without
// resolving them.
func (m *ModuleSymbol) ForwardedTypes() []string {
	out := make([]string, 0, len(m.forwards))
	for name := range m.forwards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DeclaresTopLevelType reports whether the module defines the named
// top-level type, returning the canonical declared casing on a match.
func (m *ModuleSymbol) DeclaresTopLevelType(name string, ignoreCase bool) (string, bool) {
	if declared, ok := m.locals[name]; ok {
		return declared, true
	}
	if ignoreCase {
		if declared, ok := m.localCI[foldKey(name)]; ok {
			return declared, true
		}
	}
	return "", false
}

// HasExtensionAttribute delegates to the metadata reader.
func (m *ModuleSymbol) HasExtensionAttribute(ignoreCase bool) bool {
	return m.reader.HasExtensionAttribute(ignoreCase)
}

// CustomAttributes loads the module's custom-attribute table.
func (m *ModuleSymbol) CustomAttributes() []meta.CustomAttribute {
	return m.reader.CustomAttributes()
}

// GuidAttribute returns the module GUID if declared; absent metadata
// degrades to ("", false).
func (m *ModuleSymbol) GuidAttribute() (string, bool) {
	return m.reader.GuidAttribute()
}

// RequiredFeatures lists the module's CompilerFeatureRequired markers.
func (m *ModuleSymbol) RequiredFeatures() []string {
	return m.reader.RequiredFeatures()
}

// InternalsVisibleTo lists declared IVT grants.
func (m *ModuleSymbol) InternalsVisibleTo() []string {
	return m.reader.InternalsVisibleTo()
}

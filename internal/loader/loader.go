// Package loader is the reference manager: it builds assembly symbols for a
// whole dependency set, binds module references once every assembly is
// known, and finalizes each symbol's write-once reference sets.
package loader

import (
	"fmt"
	"sort"

	"peregrine/internal/diag"
	"peregrine/internal/meta"
	"peregrine/internal/symbols"
)

// Graph is the finalized set of assembly symbols for one compilation.
type Graph struct {
	assemblies []*symbols.AssemblySymbol
	byName     map[string]*symbols.AssemblySymbol
}

// Assemblies returns the symbols sorted by assembly name.
func (g *Graph) Assemblies() []*symbols.AssemblySymbol { return g.assemblies }

// Lookup finds an assembly by simple name.
func (g *Graph) Lookup(name string) (*symbols.AssemblySymbol, bool) {
	sym, ok := g.byName[name]
	return sym, ok
}

// Len returns the number of assemblies in the graph.
func (g *Graph) Len() int { return len(g.assemblies) }

// Build constructs symbols for all manifests, binds references and
// finalizes the reference sets. Malformed input surfaces through the
// reporter; the returned graph contains every assembly that survived.
func Build(manifests []*meta.Manifest, reporter diag.Reporter) *Graph {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	g := &Graph{byName: make(map[string]*symbols.AssemblySymbol, len(manifests))}
	judge := StrongNameJudge{}
	kept := make([]*meta.Manifest, 0, len(manifests))

	for _, m := range manifests {
		name := m.Assembly.Name
		if _, dup := g.byName[name]; dup {
			diag.ReportError(reporter, diag.ManDuplicateAssembly,
				diag.Origin{Assembly: name},
				fmt.Sprintf("assembly %q appears more than once in the set", name)).Emit()
			continue
		}
		sym, err := symbols.NewAssemblySymbol(m.Reader(), symbols.Options{
			IsLinked: m.Assembly.Linked,
			Judge:    judge,
		})
		if err != nil {
			diag.ReportError(reporter, diag.MetaNoModules,
				diag.Origin{Assembly: name}, err.Error()).Emit()
			continue
		}
		g.byName[name] = sym
		g.assemblies = append(g.assemblies, sym)
		kept = append(kept, m)
	}
	sort.Slice(g.assemblies, func(i, j int) bool {
		return g.assemblies[i].Identity().Name < g.assemblies[j].Identity().Name
	})

	for _, m := range kept {
		g.bind(m, reporter)
	}
	for _, m := range kept {
		g.finalize(m)
	}
	return g
}

// referencedNames collects the assembly names a manifest points at: the
// explicit references list plus every forward target.
func referencedNames(m *meta.Manifest) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || name == m.Assembly.Name || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, ref := range m.Assembly.References {
		add(ref)
	}
	for _, mod := range m.Modules {
		for _, fwd := range mod.Forwards {
			add(fwd.To)
		}
	}
	sort.Strings(names)
	return names
}

// bind installs each module's name-to-symbol reference map. Explicit
// references that do not resolve get a warning; forward targets that do not
// resolve stay unbound and surface later as "not found" during resolution.
func (g *Graph) bind(m *meta.Manifest, reporter diag.Reporter) {
	sym := g.byName[m.Assembly.Name]
	refs := make(map[string]*symbols.AssemblySymbol)
	explicit := make(map[string]bool, len(m.Assembly.References))
	for _, name := range m.Assembly.References {
		explicit[name] = true
	}
	for _, name := range referencedNames(m) {
		target, ok := g.byName[name]
		if !ok {
			if explicit[name] {
				diag.ReportWarning(reporter, diag.ManUnresolvedReference,
					diag.Origin{Assembly: m.Assembly.Name},
					fmt.Sprintf("referenced assembly %q is not in the set", name)).Emit()
			}
			continue
		}
		refs[name] = target
	}
	for i := range m.Modules {
		sym.Modules()[i].SetReferences(refs)
	}
}

// finalize publishes the write-once reference sets: the linked subset of the
// referenced assemblies, and the NoPia resolution set (the assembly itself
// plus every referenced assembly that is not itself embedded by value).
func (g *Graph) finalize(m *meta.Manifest) {
	sym := g.byName[m.Assembly.Name]
	var linked, noPia []*symbols.AssemblySymbol
	noPia = append(noPia, sym)
	for _, name := range referencedNames(m) {
		target, ok := g.byName[name]
		if !ok {
			continue
		}
		if target.IsLinked() {
			linked = append(linked, target)
		} else {
			noPia = append(noPia, target)
		}
	}
	sym.SetLinkedReferencedAssemblies(linked)
	sym.SetNoPiaResolutionAssemblies(noPia)
}

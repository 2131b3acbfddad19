package testkit

import (
	"fmt"

	"peregrine/internal/loader"
)

// CheckGraphInvariants runs a minimal set of structural invariants over a
// finalized assembly graph:
// 1) every assembly has a non-empty name and at least one module
// 2) module 0 is the primary module and ordinals are consecutive
// 3) the reference manager has published both write-once sets
// 4) published sets contain no nil entries, and the NoPia set contains self
func CheckGraphInvariants(g *loader.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	for _, asm := range g.Assemblies() {
		name := asm.Identity().Name
		if name == "" {
			return fmt.Errorf("assembly with empty name in graph")
		}
		mods := asm.Modules()
		if len(mods) == 0 {
			return fmt.Errorf("%s: no modules", name)
		}
		if asm.PrimaryModule() != mods[0] {
			return fmt.Errorf("%s: primary module is not module 0", name)
		}
		for i, mod := range mods {
			if mod.Ordinal() != i {
				return fmt.Errorf("%s: module %q ordinal %d at index %d", name, mod.Name(), mod.Ordinal(), i)
			}
			if mod.Assembly() != asm {
				return fmt.Errorf("%s: module %q points at a different assembly", name, mod.Name())
			}
		}

		noPia := asm.NoPiaResolutionAssemblies()
		if noPia == nil {
			return fmt.Errorf("%s: NoPia resolution set not published", name)
		}
		foundSelf := false
		for _, ref := range noPia {
			if ref == nil {
				return fmt.Errorf("%s: nil entry in NoPia resolution set", name)
			}
			if ref == asm {
				foundSelf = true
			}
		}
		if !foundSelf {
			return fmt.Errorf("%s: NoPia resolution set does not contain self", name)
		}

		for _, ref := range asm.LinkedReferencedAssemblies() {
			if ref == nil {
				return fmt.Errorf("%s: nil entry in linked referenced set", name)
			}
			if !ref.IsLinked() {
				return fmt.Errorf("%s: non-linked assembly %s in linked referenced set", name, ref.Identity().Name)
			}
		}
	}
	return nil
}

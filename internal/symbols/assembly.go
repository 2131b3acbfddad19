package symbols

import (
	"fmt"
	"slices"
	"sync/atomic"

	"peregrine/internal/diag"
	"peregrine/internal/meta"
)

// ThreeState is a lazily-computed boolean with a distinct "not yet computed"
// state, so memoization never confuses "unknown" with "false".
type ThreeState uint32

const (
	ThreeStateUnknown ThreeState = iota
	ThreeStateFalse
	ThreeStateTrue
)

func threeStateFrom(v bool) ThreeState {
	if v {
		return ThreeStateTrue
	}
	return ThreeStateFalse
}

// featureDiagBox wraps the cached compiler-feature diagnostic. The box makes
// presence explicit: a nil pointer in the cache means "not yet computed",
// a box holding nil means "computed, no diagnostic". Object identity of a
// shared sentinel is never relied on.
type featureDiagBox struct {
	d *diag.Diagnostic
}

// AssemblySymbol is the in-memory symbol for one compiled binary dependency.
// It aggregates the assembly's modules, owns its identity and lazily-derived
// facts, and is the entry point for forwarded-type resolution.
//
// The symbol is immutable to all consumers after construction, with three
// exceptions, each race-safe on its own: the memoized lazy facts (attrs,
// extension-method flag, feature diagnostic) and the two reference sets the
// reference manager publishes exactly once.
type AssemblySymbol struct {
	identity meta.Identity
	modules  []*ModuleSymbol
	isLinked bool
	judge    InternalsJudge

	// Write-once reference sets. A nil pointer means "not yet published";
	// publication is one CAS of a fully-built slice.
	noPia      atomic.Pointer[[]*AssemblySymbol]
	linkedRefs atomic.Pointer[[]*AssemblySymbol]

	// Lazy facts. Redundant recomputation under races is fine; each resolves
	// to a single observable value via first-successful-publish-wins.
	extMethods  atomic.Uint32
	attrs       atomic.Pointer[[]meta.CustomAttribute]
	featureDiag atomic.Pointer[featureDiagBox]
}

// Options configures assembly symbol construction.
type Options struct {
	// IsLinked marks the assembly as embedded by value (NoPia /linked
	// reference) rather than referenced by identity.
	IsLinked bool
	// Judge supplies the external internals-visibility policy. Nil means
	// internals are never visible.
	Judge InternalsJudge
}

// NewAssemblySymbol builds a symbol over an already-decoded metadata reader.
// The module list must be non-empty; module 0 becomes the primary module.
func NewAssemblySymbol(reader meta.Reader, opts Options) (*AssemblySymbol, error) {
	readers := reader.Modules()
	if len(readers) == 0 {
		return nil, fmt.Errorf("assembly %s has no modules", reader.Identity().Name)
	}
	a := &AssemblySymbol{
		identity: reader.Identity(),
		isLinked: opts.IsLinked,
		judge:    opts.Judge,
	}
	a.modules = make([]*ModuleSymbol, len(readers))
	for i, mr := range readers {
		a.modules[i] = newModuleSymbol(a, mr, i)
	}
	return a, nil
}

// Identity returns the immutable name/version/public-key tuple.
func (a *AssemblySymbol) Identity() meta.Identity { return a.identity }

// PublicKey returns the assembly's full public key, or nil.
func (a *AssemblySymbol) PublicKey() []byte { return a.identity.PublicKey }

// Modules returns the fixed, ordered module list.
func (a *AssemblySymbol) Modules() []*ModuleSymbol { return a.modules }

// PrimaryModule returns module 0, the only module whose forward table is
// authoritative.
func (a *AssemblySymbol) PrimaryModule() *ModuleSymbol { return a.modules[0] }

// IsLinked reports whether the referencing compilation embeds this
// assembly's types by value.
func (a *AssemblySymbol) IsLinked() bool { return a.isLinked }

// Attributes returns the assembly's custom attributes, reading them from the
// primary module on first call. Concurrent first calls may both decode; the
// first published result wins and later calls return it unchanged.
func (a *AssemblySymbol) Attributes() []meta.CustomAttribute {
	if p := a.attrs.Load(); p != nil {
		return *p
	}
	loaded := a.PrimaryModule().CustomAttributes()
	a.attrs.CompareAndSwap(nil, &loaded)
	return *a.attrs.Load()
}

// MightContainExtensionMethods reports whether the assembly could define
// extension methods, from the primary module's extension-attribute check
// (case-insensitive). Computed at most once observably; the tri-state cache
// never moves after its first definitive value.
func (a *AssemblySymbol) MightContainExtensionMethods() bool {
	state := ThreeState(a.extMethods.Load())
	if state == ThreeStateUnknown {
		computed := threeStateFrom(a.PrimaryModule().HasExtensionAttribute(true))
		a.extMethods.CompareAndSwap(uint32(ThreeStateUnknown), uint32(computed))
		state = ThreeState(a.extMethods.Load())
	}
	return state == ThreeStateTrue
}

// CompilerFeatureRequiredDiagnostic returns the cached diagnostic for an
// unsupported CompilerFeatureRequired marker, or nil when every required
// feature is understood. The nil result is itself cached: an explicit
// presence box distinguishes "computed, none" from "not yet computed".
func (a *AssemblySymbol) CompilerFeatureRequiredDiagnostic() *diag.Diagnostic {
	if box := a.featureDiag.Load(); box != nil {
		return box.d
	}
	computed := a.computeFeatureDiagnostic()
	a.featureDiag.CompareAndSwap(nil, &featureDiagBox{d: computed})
	return a.featureDiag.Load().d
}

// HasUnsupportedMetadata reports whether the assembly requires a compiler
// feature this implementation does not understand.
func (a *AssemblySymbol) HasUnsupportedMetadata() bool {
	return a.CompilerFeatureRequiredDiagnostic() != nil
}

// supportedFeatures are the CompilerFeatureRequired markers this
// implementation understands.
var supportedFeatures = map[string]bool{
	"RefStructs":      true,
	"RequiredMembers": true,
}

func (a *AssemblySymbol) computeFeatureDiagnostic() *diag.Diagnostic {
	for _, mod := range a.modules {
		for _, feature := range mod.RequiredFeatures() {
			if supportedFeatures[feature] {
				continue
			}
			d := diag.NewError(diag.MetaUnsupportedFeature,
				diag.Origin{Assembly: a.identity.Name, Module: mod.Name()},
				fmt.Sprintf("assembly requires unsupported compiler feature %q", feature))
			return &d
		}
	}
	return nil
}

// SetNoPiaResolutionAssemblies publishes the set of assemblies used to
// canonicalize embedded-interop local types. Reference-manager only; called
// exactly once. The slice is copied and published atomically so readers see
// either nothing or the complete set.
func (a *AssemblySymbol) SetNoPiaResolutionAssemblies(set []*AssemblySymbol) {
	copied := slices.Clone(set)
	if !a.noPia.CompareAndSwap(nil, &copied) {
		panic("symbols: NoPia resolution assemblies already set for " + a.identity.Name)
	}
}

// NoPiaResolutionAssemblies returns the published set, or nil before the
// reference manager has run.
func (a *AssemblySymbol) NoPiaResolutionAssemblies() []*AssemblySymbol {
	if p := a.noPia.Load(); p != nil {
		return *p
	}
	return nil
}

// SetLinkedReferencedAssemblies publishes the referenced assemblies that are
// also embedded by value. Reference-manager only; called exactly once.
func (a *AssemblySymbol) SetLinkedReferencedAssemblies(set []*AssemblySymbol) {
	copied := slices.Clone(set)
	if !a.linkedRefs.CompareAndSwap(nil, &copied) {
		panic("symbols: linked referenced assemblies already set for " + a.identity.Name)
	}
}

// LinkedReferencedAssemblies returns the published set, or nil before the
// reference manager has run.
func (a *AssemblySymbol) LinkedReferencedAssemblies() []*AssemblySymbol {
	if p := a.linkedRefs.Load(); p != nil {
		return *p
	}
	return nil
}

// LookupAssembliesForForwardedType consults the primary module's forward
// table only; forwards declared by secondary modules are ignored, mirroring
// binary loader behavior.
func (a *AssemblySymbol) LookupAssembliesForForwardedType(name string, ignoreCase bool) (first, second *AssemblySymbol, matchedName string) {
	return a.PrimaryModule().AssembliesForForwardedType(name, ignoreCase)
}

// TopLevelForwardedTypes enumerates the names the primary module declares as
// forwarded, without resolving them.
func (a *AssemblySymbol) TopLevelForwardedTypes() []string {
	return a.PrimaryModule().ForwardedTypes()
}

// GuidAttribute returns the primary module's GUID, if any.
func (a *AssemblySymbol) GuidAttribute() (string, bool) {
	return a.PrimaryModule().GuidAttribute()
}

// AreInternalsVisibleTo reports whether this assembly grants internals
// access to other. The matching policy lives behind InternalsJudge; without
// a judge the answer is always false.
func (a *AssemblySymbol) AreInternalsVisibleTo(other *AssemblySymbol) bool {
	if a.judge == nil || other == nil {
		return false
	}
	var grants []string
	for _, mod := range a.modules {
		grants = append(grants, mod.InternalsVisibleTo()...)
	}
	return a.judge.InternalsVisibleTo(a.identity, grants, other.identity)
}

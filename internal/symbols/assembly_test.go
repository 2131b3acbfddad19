package symbols

import (
	"sync"
	"sync/atomic"
	"testing"

	"peregrine/internal/diag"
	"peregrine/internal/meta"
)

// countingModule wraps a ModuleReader and counts metadata reads, so tests
// can observe memoization.
type countingModule struct {
	meta.ModuleReader
	attrLoads    atomic.Int32
	extChecks    atomic.Int32
	featureReads atomic.Int32
}

func (m *countingModule) CustomAttributes() []meta.CustomAttribute {
	m.attrLoads.Add(1)
	return m.ModuleReader.CustomAttributes()
}

func (m *countingModule) HasExtensionAttribute(ignoreCase bool) bool {
	m.extChecks.Add(1)
	return m.ModuleReader.HasExtensionAttribute(ignoreCase)
}

func (m *countingModule) RequiredFeatures() []string {
	m.featureReads.Add(1)
	return m.ModuleReader.RequiredFeatures()
}

type countingReader struct {
	identity meta.Identity
	modules  []meta.ModuleReader
}

func (r *countingReader) Identity() meta.Identity      { return r.identity }
func (r *countingReader) Modules() []meta.ModuleReader { return r.modules }

func newCountingAssembly(t *testing.T, m *meta.Manifest) (*AssemblySymbol, *countingModule) {
	t.Helper()
	inner := m.Reader()
	counted := &countingModule{ModuleReader: inner.Modules()[0]}
	sym, err := NewAssemblySymbol(&countingReader{
		identity: inner.Identity(),
		modules:  []meta.ModuleReader{counted},
	}, Options{})
	if err != nil {
		t.Fatalf("build assembly: %v", err)
	}
	return sym, counted
}

func extensionManifest(attrName string) *meta.Manifest {
	return &meta.Manifest{
		Schema:   meta.ManifestSchema,
		Assembly: meta.AssemblyManifest{Name: "Ext", Version: "1.0.0.0"},
		Modules: []meta.ModuleManifest{{
			Name: "Ext.dll",
			Attributes: []meta.AttributeManifest{{
				Namespace: "System.Runtime.CompilerServices",
				Name:      attrName,
			}},
		}},
	}
}

func TestMightContainExtensionMethodsMemoized(t *testing.T) {
	sym, counted := newCountingAssembly(t, extensionManifest("ExtensionAttribute"))

	if !sym.MightContainExtensionMethods() {
		t.Fatalf("expected extension methods flag to be true")
	}
	for i := 0; i < 10; i++ {
		if !sym.MightContainExtensionMethods() {
			t.Fatalf("memoized answer changed")
		}
	}
	if got := counted.extChecks.Load(); got != 1 {
		t.Fatalf("expected one attribute check after memoization, got %d", got)
	}
}

func TestMightContainExtensionMethodsCaseInsensitive(t *testing.T) {
	sym, _ := newCountingAssembly(t, extensionManifest("extensionattribute"))
	if !sym.MightContainExtensionMethods() {
		t.Fatalf("attribute name match must be case-insensitive")
	}

	plain, _ := newCountingAssembly(t, extensionManifest("SomethingElse"))
	if plain.MightContainExtensionMethods() {
		t.Fatalf("expected false without the marker attribute")
	}
}

func TestMightContainExtensionMethodsConcurrent(t *testing.T) {
	sym, _ := newCountingAssembly(t, extensionManifest("ExtensionAttribute"))

	const workers = 32
	answers := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			answers[i] = sym.MightContainExtensionMethods()
		}()
	}
	wg.Wait()
	for i, ans := range answers {
		if !ans {
			t.Fatalf("worker %d observed a different answer", i)
		}
	}
}

func TestAttributesCachedAfterFirstLoad(t *testing.T) {
	sym, counted := newCountingAssembly(t, extensionManifest("ExtensionAttribute"))

	first := sym.Attributes()
	second := sym.Attributes()
	if len(first) != 1 || first[0].FullName() != "System.Runtime.CompilerServices.ExtensionAttribute" {
		t.Fatalf("unexpected attributes: %+v", first)
	}
	if &first[0] != &second[0] {
		t.Fatalf("expected cached slice to be returned on later calls")
	}
	if got := counted.attrLoads.Load(); got != 1 {
		t.Fatalf("expected one metadata load, got %d", got)
	}
}

func featureManifest(features ...string) *meta.Manifest {
	return &meta.Manifest{
		Schema:   meta.ManifestSchema,
		Assembly: meta.AssemblyManifest{Name: "Feat", Version: "1.0.0.0"},
		Modules: []meta.ModuleManifest{{
			Name:     "Feat.dll",
			Requires: features,
		}},
	}
}

func TestCompilerFeatureDiagnosticForUnknownFeature(t *testing.T) {
	sym, _ := newCountingAssembly(t, featureManifest("RefStructs", "Quantum"))

	d := sym.CompilerFeatureRequiredDiagnostic()
	if d == nil {
		t.Fatalf("expected a diagnostic for unknown feature")
	}
	if d.Code != diag.MetaUnsupportedFeature {
		t.Fatalf("unexpected code: %v", d.Code)
	}
	if d.Origin.Assembly != "Feat" || d.Origin.Module != "Feat.dll" {
		t.Fatalf("unexpected origin: %+v", d.Origin)
	}
	if !sym.HasUnsupportedMetadata() {
		t.Fatalf("HasUnsupportedMetadata must agree with the diagnostic")
	}
	if again := sym.CompilerFeatureRequiredDiagnostic(); again != d {
		t.Fatalf("expected the cached diagnostic pointer")
	}
}

func TestCompilerFeatureDiagnosticNilIsCached(t *testing.T) {
	sym, counted := newCountingAssembly(t, featureManifest("RefStructs"))

	if d := sym.CompilerFeatureRequiredDiagnostic(); d != nil {
		t.Fatalf("supported features must not produce a diagnostic, got %+v", d)
	}
	// A legitimate "no diagnostic" answer must be cached too: the second
	// call must not re-scan metadata.
	if d := sym.CompilerFeatureRequiredDiagnostic(); d != nil {
		t.Fatalf("cached nil answer changed: %+v", d)
	}
	if got := counted.featureReads.Load(); got != 1 {
		t.Fatalf("expected one feature scan, got %d", got)
	}
	if sym.HasUnsupportedMetadata() {
		t.Fatalf("no unsupported metadata expected")
	}
}

func TestWriteOnceReferenceSets(t *testing.T) {
	set := buildAssemblies(t,
		manifest("A", nil),
		manifest("B", nil),
	)
	a, b := set["A"], set["B"]

	if got := a.NoPiaResolutionAssemblies(); got != nil {
		t.Fatalf("getter before setter must return nil, got %v", got)
	}
	if got := a.LinkedReferencedAssemblies(); got != nil {
		t.Fatalf("getter before setter must return nil, got %v", got)
	}

	a.SetNoPiaResolutionAssemblies([]*AssemblySymbol{a, b})
	got := a.NoPiaResolutionAssemblies()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("round-trip mismatch: %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("second SetNoPiaResolutionAssemblies must panic")
		}
	}()
	a.SetNoPiaResolutionAssemblies(nil)
}

func TestWriteOnceEmptySetRoundTrip(t *testing.T) {
	set := buildAssemblies(t, manifest("A", nil))
	a := set["A"]

	a.SetLinkedReferencedAssemblies([]*AssemblySymbol{})
	if got := a.LinkedReferencedAssemblies(); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("second SetLinkedReferencedAssemblies must panic")
		}
	}()
	a.SetLinkedReferencedAssemblies(nil)
}

func TestNewAssemblySymbolRequiresModules(t *testing.T) {
	_, err := NewAssemblySymbol(&countingReader{
		identity: meta.Identity{Name: "Empty"},
	}, Options{})
	if err == nil {
		t.Fatalf("expected error for assembly without modules")
	}
}

func TestSetReferencesTwicePanics(t *testing.T) {
	set := buildAssemblies(t, manifest("A", nil))
	defer func() {
		if recover() == nil {
			t.Fatalf("second SetReferences must panic")
		}
	}()
	set["A"].PrimaryModule().SetReferences(nil)
}

package diag

import (
	"testing"
)

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	origin := Origin{Assembly: "Lib"}
	if !b.Add(NewError(MetaForwardCycle, origin, "one")) {
		t.Fatalf("first add should succeed")
	}
	if !b.Add(NewError(MetaForwardCycle, origin, "two")) {
		t.Fatalf("second add should succeed")
	}
	if b.Add(NewError(MetaForwardCycle, origin, "three")) {
		t.Fatalf("cap must reject the third diagnostic")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSeverityPredicates(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevInfo, ManInfo, Origin{Assembly: "A"}, "info"))
	if b.HasWarnings() || b.HasErrors() {
		t.Fatalf("info only: no warnings or errors expected")
	}
	b.Add(NewWarning(ManUnresolvedReference, Origin{Assembly: "A"}, "warn"))
	if !b.HasWarnings() || b.HasErrors() {
		t.Fatalf("expected warnings without errors")
	}
	b.Add(NewError(MetaAmbiguousForward, Origin{Assembly: "A"}, "err"))
	if !b.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestBagMergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(MetaForwardCycle, Origin{Assembly: "A"}, "one"))
	b := NewBag(2)
	b.Add(NewError(MetaForwardCycle, Origin{Assembly: "B"}, "two"))
	b.Add(NewError(MetaForwardCycle, Origin{Assembly: "B"}, "three"))

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("expected merged length 3, got %d", a.Len())
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevWarning, ManUnresolvedReference, Origin{Assembly: "B"}, "w"))
	b.Add(New(SevError, MetaForwardCycle, Origin{Assembly: "A", Module: "A.dll"}, "e2"))
	b.Add(New(SevError, MetaAmbiguousForward, Origin{Assembly: "A", Module: "A.dll"}, "e1"))
	b.Sort()

	items := b.Items()
	if items[0].Origin.Assembly != "A" || items[0].Code != MetaAmbiguousForward {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[2].Origin.Assembly != "B" {
		t.Fatalf("unexpected last item: %+v", items[2])
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(8)
	d := NewError(MetaForwardCycle, Origin{Assembly: "A"}, "same")
	b.Add(d)
	b.Add(d)
	b.Add(NewError(MetaForwardCycle, Origin{Assembly: "A"}, "different"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestCodeID(t *testing.T) {
	if got := MetaAmbiguousForward.ID(); got != "META1001" {
		t.Fatalf("unexpected id: %q", got)
	}
	if got := ManBadManifest.ID(); got != "MAN2001" {
		t.Fatalf("unexpected id: %q", got)
	}
	if got := IOReadFailed.ID(); got != "IO3001" {
		t.Fatalf("unexpected id: %q", got)
	}
	if got := UnknownCode.ID(); got != "E0000" {
		t.Fatalf("unexpected id: %q", got)
	}
}

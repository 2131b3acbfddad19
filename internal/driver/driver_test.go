package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"peregrine/internal/diag"
	"peregrine/internal/symbols"
	"peregrine/internal/testkit"
)

func writeManifest(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeManifest(t, dir, "lib.toml", `
[assembly]
name = "Lib"
version = "1.0.0.0"

[[modules]]
name = "Lib.dll"

[[modules.forwards]]
type = "Widget"
to = "Lib2"
`)
	writeManifest(t, dir, "lib2.toml", `
[assembly]
name = "Lib2"
version = "1.0.0.0"

[[modules]]
name = "Lib2.dll"
types = ["Widget"]
`)
	return dir
}

func TestLoadDirBuildsGraph(t *testing.T) {
	dir := fixtureDir(t)
	graph, results, err := LoadDir(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Bag.HasErrors() {
			t.Fatalf("unexpected diagnostics for %s: %v", res.Path, res.Bag.Items())
		}
	}
	if graph.Len() != 2 {
		t.Fatalf("expected 2 assemblies, got %d", graph.Len())
	}
	if err := testkit.CheckGraphInvariants(graph); err != nil {
		t.Fatalf("graph invariants: %v", err)
	}
}

func TestLoadDirUsesCache(t *testing.T) {
	dir := fixtureDir(t)
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	_, results, err := LoadDir(context.Background(), dir, Options{Cache: cache})
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	for _, res := range results {
		if res.FromCache {
			t.Fatalf("first load must parse, not hit cache: %s", res.Path)
		}
	}

	_, results, err = LoadDir(context.Background(), dir, Options{Cache: cache})
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	for _, res := range results {
		if !res.FromCache {
			t.Fatalf("second load should hit the cache: %s", res.Path)
		}
	}
}

func TestLoadDirReportsBadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "broken.toml", "not toml at all = = =")

	graph, results, err := LoadDir(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if graph.Len() != 0 {
		t.Fatalf("broken manifest must not yield assemblies")
	}
	if len(results) != 1 || !results[0].Bag.HasErrors() {
		t.Fatalf("expected a parse diagnostic")
	}
}

func TestLoadDirClassifiesManifestErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want diag.Code
	}{
		{
			name: "missing name",
			body: "[[modules]]\nname = \"Lib.dll\"\n",
			want: diag.ManMissingName,
		},
		{
			name: "bad public key",
			body: "[assembly]\nname = \"Lib\"\npublic_key = \"zz\"\n\n[[modules]]\nname = \"Lib.dll\"\n",
			want: diag.ManBadPublicKey,
		},
		{
			name: "duplicate forward",
			body: "[assembly]\nname = \"Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n\n" +
				"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib2\"\n\n" +
				"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib2\"\n",
			want: diag.ManDuplicateForward,
		},
		{
			name: "unparsable",
			body: "not toml at all = = =",
			want: diag.ManBadManifest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, "bad.toml", tc.body)

			_, results, err := LoadDir(context.Background(), dir, Options{})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected one result, got %d", len(results))
			}
			items := results[0].Bag.Items()
			if len(items) != 1 || items[0].Code != tc.want {
				t.Fatalf("expected code %v, got %+v", tc.want, items)
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	dir := fixtureDir(t)
	graph, _, err := LoadDir(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	queries := []Query{
		{Assembly: "Lib", TypeName: "Widget"},
		{Assembly: "Lib", TypeName: "Gadget"},
		{Assembly: "Nope", TypeName: "Widget"},
	}

	var mu sync.Mutex
	var events []Event
	results, err := ResolveAll(context.Background(), graph, queries, Options{
		Jobs: 2,
		Events: func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if results[0].Result.Kind != symbols.TypeNamed {
		t.Fatalf("Widget should resolve, got %+v", results[0].Result)
	}
	if results[0].Result.Assembly.Identity().Name != "Lib2" {
		t.Fatalf("Widget should land in Lib2")
	}
	if results[1].Result.Found() {
		t.Fatalf("Gadget should be not found")
	}
	if !results[2].Bag.HasErrors() {
		t.Fatalf("missing start assembly must produce a diagnostic")
	}

	// Two events (start + finish) per query.
	if len(events) != 2*len(queries) {
		t.Fatalf("expected %d events, got %d", 2*len(queries), len(events))
	}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery("Lib::Widget", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Assembly != "Lib" || q.TypeName != "Widget" || !q.IgnoreCase {
		t.Fatalf("unexpected query: %+v", q)
	}
	for _, bad := range []string{"Lib", "::Widget", "Lib::", ""} {
		if _, err := ParseQuery(bad, false); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

package meta

import (
	"errors"
	"strings"
	"testing"
)

const sampleManifest = `
schema = 1

[assembly]
name = "Lib"
version = "2.1.0.0"
public_key = "0024000004800000"
linked = false
references = ["Lib2"]
internals_visible_to = ["Friend"]

[[modules]]
name = "Lib.dll"
types = ["Gadget"]
guid = "9e6cb233-5e04-4b6c-a7b5-65b3966ed624"
requires = ["RefStructs"]

[[modules.attributes]]
namespace = "System.Runtime.CompilerServices"
name = "ExtensionAttribute"

[[modules.forwards]]
type = "Widget"
to = "Lib2"
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Assembly.Name != "Lib" || m.Assembly.Version != "2.1.0.0" {
		t.Fatalf("unexpected identity: %+v", m.Assembly)
	}
	if len(m.Modules) != 1 {
		t.Fatalf("expected one module, got %d", len(m.Modules))
	}
	mod := m.Modules[0]
	if len(mod.Forwards) != 1 || mod.Forwards[0].Type != "Widget" || mod.Forwards[0].To != "Lib2" {
		t.Fatalf("unexpected forwards: %+v", mod.Forwards)
	}

	reader := m.Reader()
	id := reader.Identity()
	if id.Name != "Lib" || len(id.PublicKey) != 8 {
		t.Fatalf("unexpected reader identity: %+v", id)
	}
	rm := reader.Modules()[0]
	if !rm.HasExtensionAttribute(false) {
		t.Fatalf("extension attribute not seen")
	}
	if guid, ok := rm.GuidAttribute(); !ok || guid == "" {
		t.Fatalf("guid not seen")
	}
	if got := rm.RequiredFeatures(); len(got) != 1 || got[0] != "RefStructs" {
		t.Fatalf("unexpected features: %v", got)
	}
	if got := rm.InternalsVisibleTo(); len(got) != 1 || got[0] != "Friend" {
		t.Fatalf("unexpected ivt: %v", got)
	}
}

func TestParseManifestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing modules",
			body: "[assembly]\nname = \"Lib\"\n",
			want: "at least one module",
		},
		{
			name: "bad public key",
			body: "[assembly]\nname = \"Lib\"\npublic_key = \"zz\"\n\n[[modules]]\nname = \"Lib.dll\"\n",
			want: "not hex",
		},
		{
			name: "bad name",
			body: "[assembly]\nname = \"1Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n",
			want: "invalid assembly name",
		},
		{
			name: "forward without target",
			body: "[assembly]\nname = \"Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n\n[[modules.forwards]]\ntype = \"Widget\"\n",
			want: "forward needs both",
		},
		{
			name: "future schema",
			body: "schema = 9\n[assembly]\nname = \"Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n",
			want: "unsupported manifest schema",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseManifestErrorClasses(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{
			name: "missing name",
			body: "[[modules]]\nname = \"Lib.dll\"\n",
			want: ErrMissingName,
		},
		{
			name: "bad public key",
			body: "[assembly]\nname = \"Lib\"\npublic_key = \"zz\"\n\n[[modules]]\nname = \"Lib.dll\"\n",
			want: ErrBadPublicKey,
		},
		{
			name: "duplicate forward",
			body: "[assembly]\nname = \"Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n\n" +
				"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib2\"\n\n" +
				"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib2\"\n",
			want: ErrDuplicateForward,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseManifestAllowsAmbiguousForwards(t *testing.T) {
	// Two distinct targets for the same type is real-world metadata; the
	// resolver reports it as ambiguous, the parser must not reject it.
	body := "[assembly]\nname = \"Lib\"\n\n[[modules]]\nname = \"Lib.dll\"\n\n" +
		"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib2\"\n\n" +
		"[[modules.forwards]]\ntype = \"Widget\"\nto = \"Lib3\"\n"
	m, err := ParseManifest([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Modules[0].Forwards) != 2 {
		t.Fatalf("expected both forwards kept, got %+v", m.Modules[0].Forwards)
	}
}

func TestParseManifestDefaultsModuleName(t *testing.T) {
	m, err := ParseManifest([]byte("[assembly]\nname = \"Lib\"\n\n[[modules]]\ntypes = [\"T\"]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Modules[0].Name != "Lib.dll" {
		t.Fatalf("expected defaulted module name, got %q", m.Modules[0].Name)
	}
}

func TestIsValidAssemblyName(t *testing.T) {
	valid := []string{"Lib", "System.Runtime", "my-lib", "_x", "A1"}
	invalid := []string{"", "1Lib", ".Lib", "Лib", "a b"}
	for _, name := range valid {
		if !IsValidAssemblyName(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if IsValidAssemblyName(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

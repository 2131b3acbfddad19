package meta

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Validation failure classes, matchable with errors.Is so callers can map
// them to specific diagnostic codes.
var (
	ErrMissingName      = errors.New("assembly name is missing")
	ErrBadPublicKey     = errors.New("public_key is not hex")
	ErrDuplicateForward = errors.New("duplicate forward declaration")
)

// Manifest schema version understood by this build.
const ManifestSchema = 1

// Manifest is the on-disk description of one assembly: identity, modules,
// declared top-level types and forwards. It is the host-side stand-in for a
// physical PE file; the symbol layer only ever sees it through Reader.
type Manifest struct {
	Schema   int              `toml:"schema"`
	Assembly AssemblyManifest `toml:"assembly"`
	Modules  []ModuleManifest `toml:"modules"`
}

type AssemblyManifest struct {
	Name               string   `toml:"name"`
	Version            string   `toml:"version"`
	PublicKey          string   `toml:"public_key"`
	Linked             bool     `toml:"linked"`
	References         []string `toml:"references"`
	InternalsVisibleTo []string `toml:"internals_visible_to"`
}

type ModuleManifest struct {
	Name       string              `toml:"name"`
	Types      []string            `toml:"types"`
	Guid       string              `toml:"guid"`
	Requires   []string            `toml:"requires"`
	Attributes []AttributeManifest `toml:"attributes"`
	Forwards   []ForwardManifest   `toml:"forwards"`
}

type AttributeManifest struct {
	Namespace string   `toml:"namespace"`
	Name      string   `toml:"name"`
	Args      []string `toml:"args"`
}

type ForwardManifest struct {
	Type string `toml:"type"`
	To   string `toml:"to"`
}

// IsValidAssemblyName checks the simple-name grammar: ASCII letters, digits,
// '_', '.' and '-', not starting with a digit or separator.
func IsValidAssemblyName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && r != '.' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseManifest decodes and validates a TOML assembly manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Schema == 0 {
		m.Schema = ManifestSchema
	}
	if m.Schema != ManifestSchema {
		return nil, fmt.Errorf("unsupported manifest schema %d (want %d)", m.Schema, ManifestSchema)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Assembly.Name == "" {
		return ErrMissingName
	}
	if !IsValidAssemblyName(m.Assembly.Name) {
		return fmt.Errorf("invalid assembly name %q", m.Assembly.Name)
	}
	if m.Assembly.PublicKey != "" {
		if _, err := hex.DecodeString(m.Assembly.PublicKey); err != nil {
			return fmt.Errorf("assembly %s: %w: %v", m.Assembly.Name, ErrBadPublicKey, err)
		}
	}
	if len(m.Modules) == 0 {
		return fmt.Errorf("assembly %s: at least one module is required", m.Assembly.Name)
	}
	for i := range m.Modules {
		mod := &m.Modules[i]
		if mod.Name == "" {
			mod.Name = m.Assembly.Name + ".dll"
		}
		// The same type forwarded to two different targets is legitimate
		// metadata (an ambiguity surfaced at resolution time); only an exact
		// repeat of one declaration is rejected.
		seen := make(map[ForwardManifest]bool, len(mod.Forwards))
		for _, fwd := range mod.Forwards {
			if strings.TrimSpace(fwd.Type) == "" || strings.TrimSpace(fwd.To) == "" {
				return fmt.Errorf("assembly %s, module %s: forward needs both type and to", m.Assembly.Name, mod.Name)
			}
			if seen[fwd] {
				return fmt.Errorf("assembly %s, module %s: %w: %s to %s",
					m.Assembly.Name, mod.Name, ErrDuplicateForward, fwd.Type, fwd.To)
			}
			seen[fwd] = true
		}
	}
	return nil
}

// Reader adapts the manifest to the metadata Reader contract.
func (m *Manifest) Reader() Reader {
	key, _ := hex.DecodeString(m.Assembly.PublicKey)
	r := &manifestReader{
		identity: Identity{
			Name:      m.Assembly.Name,
			Version:   m.Assembly.Version,
			PublicKey: key,
		},
	}
	r.modules = make([]ModuleReader, len(m.Modules))
	for i := range m.Modules {
		r.modules[i] = &manifestModule{
			manifest: &m.Modules[i],
			ivt:      m.Assembly.InternalsVisibleTo,
		}
	}
	return r
}

type manifestReader struct {
	identity Identity
	modules  []ModuleReader
}

func (r *manifestReader) Identity() Identity      { return r.identity }
func (r *manifestReader) Modules() []ModuleReader { return r.modules }

type manifestModule struct {
	manifest *ModuleManifest
	ivt      []string
}

func (m *manifestModule) Name() string { return m.manifest.Name }

func (m *manifestModule) TopLevelTypes() []string {
	return m.manifest.Types
}

func (m *manifestModule) ForwardedTypes() []ForwardedType {
	out := make([]ForwardedType, 0, len(m.manifest.Forwards))
	for _, fwd := range m.manifest.Forwards {
		out = append(out, ForwardedType{TypeName: fwd.Type, Target: fwd.To})
	}
	return out
}

func (m *manifestModule) HasExtensionAttribute(ignoreCase bool) bool {
	for _, attr := range m.manifest.Attributes {
		if attr.Name == extensionAttributeName {
			return true
		}
		if ignoreCase && strings.EqualFold(attr.Name, extensionAttributeName) {
			return true
		}
	}
	return false
}

func (m *manifestModule) CustomAttributes() []CustomAttribute {
	out := make([]CustomAttribute, 0, len(m.manifest.Attributes))
	for _, attr := range m.manifest.Attributes {
		out = append(out, CustomAttribute{
			Namespace: attr.Namespace,
			Name:      attr.Name,
			Args:      attr.Args,
		})
	}
	return out
}

func (m *manifestModule) GuidAttribute() (string, bool) {
	if m.manifest.Guid == "" {
		return "", false
	}
	return m.manifest.Guid, true
}

func (m *manifestModule) RequiredFeatures() []string {
	return m.manifest.Requires
}

func (m *manifestModule) InternalsVisibleTo() []string {
	return m.ivt
}

// extensionAttributeName is the marker checked by HasExtensionAttribute.
const extensionAttributeName = "ExtensionAttribute"

package meta

// CustomAttribute is one decoded custom-attribute record.
type CustomAttribute struct {
	Namespace string
	Name      string
	Args      []string
}

// FullName returns "Namespace.Name", or just the name when the namespace is
// empty.
func (a CustomAttribute) FullName() string {
	if a.Namespace == "" {
		return a.Name
	}
	return a.Namespace + "." + a.Name
}

// ForwardedType is one declared type forward: TypeName is claimed by this
// module but implemented in the assembly named Target. A module may declare
// the same TypeName with two different targets; callers must surface that as
// an ambiguity rather than pick one.
type ForwardedType struct {
	TypeName string
	Target   string
}

// Reader is the narrow, read-only view of one loaded binary dependency.
// Physical metadata decoding stays behind this interface; everything above it
// works on in-memory, already-decoded facts.
type Reader interface {
	// Identity returns the assembly's name/version/public-key tuple.
	Identity() Identity
	// Modules returns the ordered module list. Index 0 is the primary
	// module. The slice is never empty for a well-formed assembly.
	Modules() []ModuleReader
}

// ModuleReader exposes the per-module metadata tables the symbol layer
// consumes. Implementations must be safe for concurrent readers and must
// return deterministic results: the symbol layer may re-read under races.
type ModuleReader interface {
	// Name is the module file name, e.g. "Lib.dll".
	Name() string
	// TopLevelTypes enumerates the top-level types defined in this module.
	TopLevelTypes() []string
	// ForwardedTypes enumerates declared forwards in declaration order.
	ForwardedTypes() []ForwardedType
	// HasExtensionAttribute reports whether the module carries the
	// extension-method marker attribute, optionally matching the attribute
	// name case-insensitively.
	HasExtensionAttribute(ignoreCase bool) bool
	// CustomAttributes decodes the module's custom-attribute table. Absent
	// metadata yields an empty slice, never an error.
	CustomAttributes() []CustomAttribute
	// GuidAttribute returns the module GUID string if one is declared.
	GuidAttribute() (string, bool)
	// RequiredFeatures lists CompilerFeatureRequired markers on the module.
	RequiredFeatures() []string
	// InternalsVisibleTo lists declared IVT grants ("Name" or
	// "Name, PublicKey=hex").
	InternalsVisibleTo() []string
}

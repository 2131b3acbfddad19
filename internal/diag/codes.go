package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Metadata-level findings (malformed or suspicious assembly metadata).
	MetaInfo               Code = 1000
	MetaAmbiguousForward   Code = 1001
	MetaForwardCycle       Code = 1002
	MetaUnsupportedFeature Code = 1003
	MetaMissingAssembly    Code = 1004
	MetaNoModules          Code = 1005

	// Manifest parsing and validation.
	ManInfo                Code = 2000
	ManBadManifest         Code = 2001
	ManDuplicateAssembly   Code = 2002
	ManBadPublicKey        Code = 2003
	ManMissingName         Code = 2004
	ManDuplicateForward    Code = 2005
	ManUnresolvedReference Code = 2006

	// Driver / IO.
	IOInfo        Code = 3000
	IOReadFailed  Code = 3001
	IOCacheFailed Code = 3002
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	MetaInfo:               "metadata info",
	MetaAmbiguousForward:   "type forwarded to multiple assemblies",
	MetaForwardCycle:       "cycle in type forwarder chain",
	MetaUnsupportedFeature: "unsupported compiler feature required",
	MetaMissingAssembly:    "forwarded-to assembly is missing",
	MetaNoModules:          "assembly has no modules",

	ManInfo:                "manifest info",
	ManBadManifest:         "manifest cannot be parsed",
	ManDuplicateAssembly:   "duplicate assembly name",
	ManBadPublicKey:        "public key is not valid hex",
	ManMissingName:         "assembly name is missing",
	ManDuplicateForward:    "same forward declared twice",
	ManUnresolvedReference: "referenced assembly not in the set",

	IOInfo:        "driver info",
	IOReadFailed:  "manifest file cannot be read",
	IOCacheFailed: "disk cache operation failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("META%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

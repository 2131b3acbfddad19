package loader

import (
	"encoding/hex"
	"strings"

	"peregrine/internal/meta"
)

// StrongNameJudge implements the InternalsVisibleTo policy over declared
// grants of the form "Name" or "Name, PublicKey=hex". Names compare
// case-insensitively; when a grant pins a public key, the requester must
// carry exactly that key.
type StrongNameJudge struct{}

func (StrongNameJudge) InternalsVisibleTo(_ meta.Identity, grants []string, requester meta.Identity) bool {
	for _, grant := range grants {
		name, keyHex := splitGrant(grant)
		if !strings.EqualFold(name, requester.Name) {
			continue
		}
		if keyHex == "" {
			return true
		}
		want, err := hex.DecodeString(keyHex)
		if err != nil {
			continue
		}
		if hex.EncodeToString(want) == hex.EncodeToString(requester.PublicKey) {
			return true
		}
	}
	return false
}

func splitGrant(grant string) (name, keyHex string) {
	name = strings.TrimSpace(grant)
	comma := strings.Index(grant, ",")
	if comma < 0 {
		return name, ""
	}
	name = strings.TrimSpace(grant[:comma])
	rest := strings.TrimSpace(grant[comma+1:])
	const prefix = "PublicKey="
	if len(rest) > len(prefix) && strings.EqualFold(rest[:len(prefix)], prefix) {
		keyHex = strings.TrimSpace(rest[len(prefix):])
	}
	return name, keyHex
}

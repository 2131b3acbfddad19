package meta

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Identity is the immutable name/version/public-key tuple of an assembly.
// It is fixed at construction and compared by value.
type Identity struct {
	Name      string
	Version   string
	PublicKey []byte
}

// HasPublicKey reports whether the identity carries a public key.
func (id Identity) HasPublicKey() bool { return len(id.PublicKey) > 0 }

// PublicKeyToken derives the 8-byte token from the full public key (low 8
// bytes of the SHA-1, reversed), matching the usual display convention.
func (id Identity) PublicKeyToken() []byte {
	if !id.HasPublicKey() {
		return nil
	}
	sum := sha1.Sum(id.PublicKey)
	token := make([]byte, 8)
	for i := 0; i < 8; i++ {
		token[i] = sum[len(sum)-1-i]
	}
	return token
}

// Equal compares identities by value.
func (id Identity) Equal(other Identity) bool {
	return id.Name == other.Name &&
		id.Version == other.Version &&
		bytes.Equal(id.PublicKey, other.PublicKey)
}

func (id Identity) String() string {
	version := id.Version
	if version == "" {
		version = "0.0.0.0"
	}
	token := "null"
	if id.HasPublicKey() {
		token = hex.EncodeToString(id.PublicKeyToken())
	}
	return fmt.Sprintf("%s, Version=%s, PublicKeyToken=%s", id.Name, version, token)
}

package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"peregrine/internal/meta"
)

// Current schema version - increment when DiskPayload format changes.
const diskCacheSchemaVersion uint16 = 2

// DiskCache keeps decoded manifests on disk keyed by content digest, so
// unchanged manifest files skip TOML parsing on reload.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached, msgpack-encoded form of one parsed manifest.
type DiskPayload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	// Assembly identity and flags.
	Name               string
	Version            string
	PublicKey          string
	Linked             bool
	References         []string
	InternalsVisibleTo []string

	Modules []DiskModule

	// ContentHash validates the payload against the source file.
	ContentHash Digest
}

// DiskModule mirrors meta.ModuleManifest for caching.
type DiskModule struct {
	Name       string
	Types      []string
	Guid       string
	Requires   []string
	AttrNS     []string
	AttrNames  []string
	AttrArgs   [][]string
	FwdTypes   []string
	FwdTargets []string
}

// OpenDiskCache initializes and returns a disk cache at the standard
// location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt opens a cache rooted at an explicit directory. Used by
// tests and by --cache-dir overrides.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "manifests", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A missing entry
// or a schema mismatch is a cache miss, not an error.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := fmt.Sprintf("%s.old-%s", c.dir, time.Now().Format("20060102150405"))
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// manifestToPayload converts a parsed manifest for caching.
func manifestToPayload(m *meta.Manifest, contentHash Digest) *DiskPayload {
	if m == nil {
		return nil
	}
	payload := &DiskPayload{
		Schema:             diskCacheSchemaVersion,
		Name:               m.Assembly.Name,
		Version:            m.Assembly.Version,
		PublicKey:          m.Assembly.PublicKey,
		Linked:             m.Assembly.Linked,
		References:         m.Assembly.References,
		InternalsVisibleTo: m.Assembly.InternalsVisibleTo,
		ContentHash:        contentHash,
	}
	payload.Modules = make([]DiskModule, len(m.Modules))
	for i, mod := range m.Modules {
		dm := DiskModule{
			Name:     mod.Name,
			Types:    mod.Types,
			Guid:     mod.Guid,
			Requires: mod.Requires,
		}
		for _, attr := range mod.Attributes {
			dm.AttrNS = append(dm.AttrNS, attr.Namespace)
			dm.AttrNames = append(dm.AttrNames, attr.Name)
			dm.AttrArgs = append(dm.AttrArgs, attr.Args)
		}
		for _, fwd := range mod.Forwards {
			dm.FwdTypes = append(dm.FwdTypes, fwd.Type)
			dm.FwdTargets = append(dm.FwdTargets, fwd.To)
		}
		payload.Modules[i] = dm
	}
	return payload
}

// payloadToManifest reverses manifestToPayload.
func payloadToManifest(p *DiskPayload) *meta.Manifest {
	if p == nil {
		return nil
	}
	m := &meta.Manifest{
		Schema: meta.ManifestSchema,
		Assembly: meta.AssemblyManifest{
			Name:               p.Name,
			Version:            p.Version,
			PublicKey:          p.PublicKey,
			Linked:             p.Linked,
			References:         p.References,
			InternalsVisibleTo: p.InternalsVisibleTo,
		},
	}
	m.Modules = make([]meta.ModuleManifest, len(p.Modules))
	for i, dm := range p.Modules {
		mod := meta.ModuleManifest{
			Name:     dm.Name,
			Types:    dm.Types,
			Guid:     dm.Guid,
			Requires: dm.Requires,
		}
		for j := range dm.AttrNames {
			attr := meta.AttributeManifest{
				Namespace: dm.AttrNS[j],
				Name:      dm.AttrNames[j],
			}
			if j < len(dm.AttrArgs) {
				attr.Args = dm.AttrArgs[j]
			}
			mod.Attributes = append(mod.Attributes, attr)
		}
		for j := range dm.FwdTypes {
			mod.Forwards = append(mod.Forwards, meta.ForwardManifest{
				Type: dm.FwdTypes[j],
				To:   dm.FwdTargets[j],
			})
		}
		m.Modules[i] = mod
	}
	return m
}

package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"peregrine/internal/diag"
	"peregrine/internal/loader"
	"peregrine/internal/meta"
	"peregrine/internal/observ"
)

// Options configures driver runs.
type Options struct {
	// Jobs limits worker parallelism; <=0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps each result's diagnostics bag.
	MaxDiagnostics int
	// Cache, when non-nil, short-circuits manifest parsing by content hash.
	Cache *DiskCache
	// Events receives progress notifications.
	Events EventFunc
	// Timer, when non-nil, records phase timings.
	Timer *observ.Timer
}

func (o *Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	return 100
}

// LoadResult is the outcome of loading one manifest file.
type LoadResult struct {
	Path      string
	Manifest  *meta.Manifest
	Bag       *diag.Bag
	FromCache bool
}

// listManifestFiles returns the sorted list of *.toml files under dir.
func listManifestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".toml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deterministic order.
	sort.Strings(files)
	return files, nil
}

// LoadDir parses every assembly manifest under dir in parallel and builds
// the finalized symbol graph. Per-file problems land in the per-file bags;
// only directory walking and cancellation produce hard errors.
func LoadDir(ctx context.Context, dir string, opts Options) (*loader.Graph, []LoadResult, error) {
	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("load manifests")
	}

	files, err := listManifestFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	results := make([]LoadResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.jobs(), max(len(files), 1)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Events, Event{Kind: EventStart, Item: path})
			res := loadOne(path, opts)
			results[i] = res
			kind := EventDone
			if res.Bag.HasErrors() {
				kind = EventFail
			}
			emit(opts.Events, Event{Kind: kind, Item: path})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if opts.Timer != nil {
		opts.Timer.End(phase, fmt.Sprintf("%d files", len(files)))
	}

	var buildPhase int
	if opts.Timer != nil {
		buildPhase = opts.Timer.Begin("build graph")
	}
	graphBag := diag.NewBag(opts.maxDiagnostics())
	manifests := make([]*meta.Manifest, 0, len(results))
	for i := range results {
		if results[i].Manifest != nil {
			manifests = append(manifests, results[i].Manifest)
		}
	}
	graph := loader.Build(manifests, diag.BagReporter{Bag: graphBag})
	if graphBag.Len() > 0 && len(results) > 0 {
		// Graph-level findings ride on the first result's bag.
		results[0].Bag.Merge(graphBag)
	}
	if opts.Timer != nil {
		opts.Timer.End(buildPhase, fmt.Sprintf("%d assemblies", graph.Len()))
	}
	return graph, results, nil
}

// manifestErrorCode narrows a manifest parse error to its diagnostic code.
func manifestErrorCode(err error) diag.Code {
	switch {
	case errors.Is(err, meta.ErrMissingName):
		return diag.ManMissingName
	case errors.Is(err, meta.ErrBadPublicKey):
		return diag.ManBadPublicKey
	case errors.Is(err, meta.ErrDuplicateForward):
		return diag.ManDuplicateForward
	}
	return diag.ManBadManifest
}

// loadOne reads, hashes and parses a single manifest, consulting the disk
// cache first.
func loadOne(path string, opts Options) LoadResult {
	bag := diag.NewBag(opts.maxDiagnostics())
	res := LoadResult{Path: path, Bag: bag}

	data, err := os.ReadFile(path)
	if err != nil {
		bag.Add(diag.NewError(diag.IOReadFailed, diag.Origin{Assembly: path},
			fmt.Sprintf("read manifest: %v", err)))
		return res
	}
	key := HashBytes(data)

	if opts.Cache != nil {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err != nil {
			bag.Add(diag.NewWarning(diag.IOCacheFailed, diag.Origin{Assembly: path},
				fmt.Sprintf("cache read: %v", err)))
		} else if ok && payload.ContentHash == key {
			res.Manifest = payloadToManifest(&payload)
			res.FromCache = true
			return res
		}
	}

	m, err := meta.ParseManifest(data)
	if err != nil {
		bag.Add(diag.NewError(manifestErrorCode(err), diag.Origin{Assembly: path}, err.Error()))
		return res
	}
	res.Manifest = m

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, manifestToPayload(m, key)); err != nil {
			bag.Add(diag.NewWarning(diag.IOCacheFailed, diag.Origin{Assembly: path},
				fmt.Sprintf("cache write: %v", err)))
		}
	}
	return res
}

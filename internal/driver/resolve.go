package driver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"peregrine/internal/diag"
	"peregrine/internal/loader"
	"peregrine/internal/symbols"
)

// Query names one top-level type to resolve, starting from one assembly.
type Query struct {
	Assembly string
	TypeName string
	// IgnoreCase matches the type name case-insensitively and reports the
	// declared casing in the result.
	IgnoreCase bool
}

func (q Query) String() string {
	return q.Assembly + "::" + q.TypeName
}

// ParseQuery parses "Assembly::Type" query syntax.
func ParseQuery(s string, ignoreCase bool) (Query, error) {
	asm, typ, ok := strings.Cut(s, "::")
	if !ok || strings.TrimSpace(asm) == "" || strings.TrimSpace(typ) == "" {
		return Query{}, fmt.Errorf("query %q is not of the form Assembly::Type", s)
	}
	return Query{
		Assembly:   strings.TrimSpace(asm),
		TypeName:   strings.TrimSpace(typ),
		IgnoreCase: ignoreCase,
	}, nil
}

// ResolveResult is the outcome of one query.
type ResolveResult struct {
	Query  Query
	Result symbols.Type
	Bag    *diag.Bag
}

// Summary renders a one-line, plain-text outcome.
func (r ResolveResult) Summary() string {
	switch r.Result.Kind {
	case symbols.TypeNamed:
		return fmt.Sprintf("%s -> %s in %s", r.Query, r.Result.Name, r.Result.Assembly.Identity())
	case symbols.TypeError:
		return fmt.Sprintf("%s -> error: %s", r.Query, r.Result.Err.Diagnostic().Message)
	default:
		return fmt.Sprintf("%s -> not found", r.Query)
	}
}

// ResolveAll answers every query against the graph, in parallel. Each result
// carries its own diagnostics bag; a missing start assembly or an error-type
// outcome is a per-query diagnostic, never a hard error.
func ResolveAll(ctx context.Context, graph *loader.Graph, queries []Query, opts Options) ([]ResolveResult, error) {
	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("resolve")
	}
	results := make([]ResolveResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.jobs(), max(len(queries), 1)))

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Events, Event{Kind: EventStart, Item: q.String()})
			res := resolveOne(graph, q, opts)
			results[i] = res
			kind := EventDone
			note := ""
			if res.Bag.HasErrors() {
				kind = EventFail
			}
			if res.Result.Kind == symbols.TypeNamed {
				note = res.Result.Assembly.Identity().Name
			}
			emit(opts.Events, Event{Kind: kind, Item: q.String(), Note: note})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if opts.Timer != nil {
		opts.Timer.End(phase, fmt.Sprintf("%d queries", len(queries)))
	}
	return results, nil
}

func resolveOne(graph *loader.Graph, q Query, opts Options) ResolveResult {
	bag := diag.NewBag(opts.maxDiagnostics())
	res := ResolveResult{Query: q, Bag: bag}

	start, ok := graph.Lookup(q.Assembly)
	if !ok {
		bag.Add(diag.NewError(diag.MetaMissingAssembly,
			diag.Origin{Assembly: q.Assembly},
			fmt.Sprintf("assembly %q is not in the loaded set", q.Assembly)))
		return res
	}
	res.Result = start.LookupTopLevelType(q.TypeName, q.IgnoreCase)
	if res.Result.IsError() {
		bag.Add(res.Result.Err.Diagnostic())
	}
	if d := start.CompilerFeatureRequiredDiagnostic(); d != nil {
		bag.Add(*d)
	}
	return res
}

package corpus

import "fmt"

// DependencySet accumulates the documents a resolution pass consulted,
// including the witness document itself when it supplied the definition.
// The cache-key engine folds this set
// into a fingerprint so a definition's cache key changes whenever any
// document it actually depended on changes, and no others.
type DependencySet struct {
	docs map[*Document]struct{}
}

// NewDependencySet returns an empty set.
func NewDependencySet() *DependencySet { return &DependencySet{docs: make(map[*Document]struct{})} }

// Add records doc as a dependency, if non-nil. Adding to a nil set is a
// no-op.
func (s *DependencySet) Add(doc *Document) {
	if s == nil || doc == nil {
		return
	}
	s.docs[doc] = struct{}{}
}

// Documents returns the recorded dependencies; order is not significant to
// callers, which sort before hashing.
func (s *DependencySet) Documents() []*Document {
	out := make([]*Document, 0, len(s.docs))
	for d := range s.docs {
		out = append(out, d)
	}
	return out
}

// Resolver resolves a Reference against a witness document's import
// priorities, using the symbol table to enumerate candidate documents and
// falling back through the moniker chain when a reference is qualified.
// Grounded on mb0-daql's env.FindEnv/Get parent-chain walk (dom/env.go),
// generalized from a single lexical scope chain into a priority-ranked
// document set plus an explicit moniker map.
type Resolver struct {
	symtab  *SymbolTable
	resolve docResolver
}

// NewResolver returns a Resolver backed by symtab, using resolve to turn
// corpus paths from import statements into loaded documents.
func NewResolver(symtab *SymbolTable, resolve docResolver) *Resolver {
	return &Resolver{symtab: symtab, resolve: resolve}
}

// Resolve looks up ref from document "from" with respect to witness
// document "wrt". A "moniker/Symbol" name is split through from's moniker
// map first, then wrt's. A moniker-less name is ranked by wrt's priority
// list, so wrt's own declarations are searched first, then its
// non-monikered imports in priority order. For a top-level reference the
// two are the same document. deps, if non-nil, records every document
// this call consulted.
func (r *Resolver) Resolve(from, wrt *Document, ref Reference, deps *DependencySet) (Definition, error) {
	if ref.Explicit() != nil {
		return ref.Explicit(), nil
	}
	name := ref.NamedReference()
	if name == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnresolvedSymbol)
	}

	priorities := from.Priorities(r.resolve)

	// A monikered name ("moniker/Symbol") is resolved through from's own
	// moniker map first, falling back to wrt's if from declares no such
	// moniker -- the "from-doc/wrt-doc chained fallback" spec 4.6 calls for.
	if monDoc, rest, ok := priorities.resolveMoniker(name); ok {
		return r.resolveInDoc(monDoc, rest, ref.ExpectedType(), deps)
	}
	if wrt != from {
		wrtPriorities := wrt.Priorities(r.resolve)
		if monDoc, rest, ok := wrtPriorities.resolveMoniker(name); ok {
			return r.resolveInDoc(monDoc, rest, ref.ExpectedType(), deps)
		}
	}

	candidates := r.symtab.Lookup(name)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}

	best, bestPriority, found := r.pickBest(wrt.Priorities(r.resolve), candidates)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}
	deps.Add(best)
	_ = bestPriority

	def := best.Definitions.ByName(name)
	if def == nil {
		// best only reached the candidate list because the symbol table
		// indexed it under name, and the symbol table is populated
		// exclusively from names that ByName already resolves (see
		// declare in index.go), so this should be unreachable in
		// practice. Guard it as a plain unresolved error; no retry
		// through best's own imports is attempted.
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}

	return r.gate(def, ref.ExpectedType())
}

// resolveInDoc resolves name within doc, recursing through further moniker
// segments first: "a/b/Symbol" resolves moniker "a" to a document, leaving
// "b/Symbol" to resolve against it, then moniker "b" to a further document,
// leaving "Symbol" as the final bare name -- the chained-moniker case spec
// section 4.6 step 2 calls for. Only once name carries no further moniker
// known to doc is it looked up as a bare top-level definition.
func (r *Resolver) resolveInDoc(doc *Document, name string, expected ObjectType, deps *DependencySet) (Definition, error) {
	deps.Add(doc)
	priorities := doc.Priorities(r.resolve)
	if next, rest, ok := priorities.resolveMoniker(name); ok {
		return r.resolveInDoc(next, rest, expected, deps)
	}
	def := doc.Definitions.ByName(name)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrMonikerNotFound, name)
	}
	return r.gate(def, expected)
}

// pickBest returns the candidate with the lowest priority number (nearest
// in the import graph) that also appears in priorities' reachable set.
func (r *Resolver) pickBest(priorities *ImportPriorities, candidates []*Document) (*Document, int, bool) {
	var best *Document
	bestPriority := -1
	for _, c := range candidates {
		p, ok := priorities.priority(c)
		if !ok {
			continue
		}
		if best == nil || p < bestPriority {
			best, bestPriority = c, p
		}
	}
	return best, bestPriority, best != nil
}

// gate enforces that def's object type matches expected, unless expected
// is ObjError (the "accept anything" placeholder).
func (r *Resolver) gate(def Definition, expected ObjectType) (Definition, error) {
	if expected != ObjError && def.ObjectType() != expected {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrExpectedTypeMismatch, def.ObjectType(), expected)
	}
	return def, nil
}

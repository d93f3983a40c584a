package corpus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupResolver wires a symbol table and a fixed set of documents behind a
// resolver, without going through the loader.
func setupResolver(docs ...*Document) (*SymbolTable, *Resolver) {
	symtab := NewSymbolTable()
	byPath := make(map[CorpusPath]*Document)
	for _, d := range docs {
		byPath[d.Path] = d
		for _, def := range d.Definitions.All() {
			def.SetDoc(d)
			symtab.Register(def.DeclaredName(), d)
		}
	}
	resolve := func(p CorpusPath) (*Document, bool) { d, ok := byPath[p]; return d, ok }
	return symtab, NewResolver(symtab, resolve)
}

// TestResolve_MonikerResolution is spec scenario 1: doc A imports B under
// moniker m; B declares entity E. m/E resolves from A; bare E does not.
func TestResolve_MonikerResolution(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	b := newDoc("local:/b.cdm.json")
	e := newEntity("E")
	b.Definitions.Insert(e)
	a.Imports = []Import{{Path: b.Path, Moniker: "m"}}

	_, resolver := setupResolver(a, b)

	def, err := resolver.Resolve(a, a, &SimpleReference{Named: "m/E", Expected: ObjEntity}, NewDependencySet())
	require.NoError(t, err)
	assert.Same(t, e, def)

	_, err = resolver.Resolve(a, a, &SimpleReference{Named: "E", Expected: ObjEntity}, NewDependencySet())
	assert.True(t, errors.Is(err, ErrUnresolvedSymbol))
}

// TestResolve_PriorityTieBreak is spec scenario 2: C imports D then E
// without monikers; both declare X; resolving X from C returns D's.
func TestResolve_PriorityTieBreak(t *testing.T) {
	c := newDoc("local:/c.cdm.json")
	d := newDoc("local:/d.cdm.json")
	e := newDoc("local:/e.cdm.json")
	xd := newEntity("X")
	xe := newEntity("X")
	d.Definitions.Insert(xd)
	e.Definitions.Insert(xe)
	c.Imports = []Import{{Path: d.Path}, {Path: e.Path}}

	_, resolver := setupResolver(c, d, e)

	def, err := resolver.Resolve(c, c, &SimpleReference{Named: "X", Expected: ObjEntity}, NewDependencySet())
	require.NoError(t, err)
	assert.Same(t, xd, def, "declaration order gives D the lower priority number")
}

// TestResolve_ChainedMonikers covers spec section 4.6 step 2: a/b/E
// resolves by following the moniker chain a -> b -> bare name E, not just
// the first segment.
func TestResolve_ChainedMonikers(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	b := newDoc("local:/b.cdm.json")
	c := newDoc("local:/c.cdm.json")
	e := newEntity("E")
	c.Definitions.Insert(e)
	a.Imports = []Import{{Path: b.Path, Moniker: "a"}}
	b.Imports = []Import{{Path: c.Path, Moniker: "b"}}

	_, resolver := setupResolver(a, b, c)

	def, err := resolver.Resolve(a, a, &SimpleReference{Named: "a/b/E", Expected: ObjEntity}, NewDependencySet())
	require.NoError(t, err)
	assert.Same(t, e, def)
}

func TestResolve_ExpectedTypeMismatch(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	tr := &Trait{base: base{obj: ObjTrait, name: "T"}}
	a.Definitions.Insert(tr)

	_, resolver := setupResolver(a)

	_, err := resolver.Resolve(a, a, &SimpleReference{Named: "T", Expected: ObjEntity}, NewDependencySet())
	assert.True(t, errors.Is(err, ErrExpectedTypeMismatch))
}

func TestResolve_ExplicitReferenceShortCircuits(t *testing.T) {
	e := newEntity("Inline")
	_, resolver := setupResolver()
	def, err := resolver.Resolve(nil, nil, &SimpleReference{Inline: e}, NewDependencySet())
	require.NoError(t, err)
	assert.Same(t, e, def)
}

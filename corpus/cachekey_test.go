package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFingerprint_NoDependenciesUncacheable covers the "not cacheable"
// branch spec section 4.7 calls for: an object with an empty dependency
// set gets no key at all.
func TestFingerprint_NoDependenciesUncacheable(t *testing.T) {
	engine := NewCacheKeyEngine(nil, 16)
	e := newEntity("E")
	e.id = 1
	_, ok := engine.Fingerprint(e, newDoc("local:/a.cdm.json"), NewDependencySet(), DefaultDirectives(), "")
	assert.False(t, ok)
}

// TestFingerprint_Deterministic is spec section 8's cache-key determinism
// invariant: fingerprinting the same (def, wrt, deps, directives, extra)
// twice returns the same key.
func TestFingerprint_Deterministic(t *testing.T) {
	engine := NewCacheKeyEngine(nil, 16)
	wrt := newDoc("local:/wrt.cdm.json")
	dep := newDoc("local:/dep.cdm.json")
	e := newEntity("E")
	e.id = 7

	deps := NewDependencySet()
	deps.Add(dep)

	k1, ok := engine.Fingerprint(e, wrt, deps, DefaultDirectives(), "")
	assert.True(t, ok)
	k2, ok := engine.Fingerprint(e, wrt, deps, DefaultDirectives(), "")
	assert.True(t, ok)
	assert.Equal(t, k1, k2)
}

// TestFingerprint_DependsOnDocumentSet ensures the rendered key changes
// when the dependency set differs, and that document id ordering is
// stable regardless of insertion order into the DependencySet.
func TestFingerprint_DependsOnDocumentSet(t *testing.T) {
	engine := NewCacheKeyEngine(nil, 16)
	wrt := newDoc("local:/wrt.cdm.json")
	depA := newDoc("local:/a.cdm.json")
	depB := newDoc("local:/b.cdm.json")
	e := newEntity("E")
	e.id = 3

	depsAB := NewDependencySet()
	depsAB.Add(depA)
	depsAB.Add(depB)
	keyAB, _ := engine.Fingerprint(e, wrt, depsAB, DefaultDirectives(), "")

	depsBA := NewDependencySet()
	depsBA.Add(depB)
	depsBA.Add(depA)
	keyBA, _ := engine.Fingerprint(e, wrt, depsBA, DefaultDirectives(), "")

	assert.Equal(t, keyAB, keyBA, "id ordering must not depend on insertion order")

	depsA := NewDependencySet()
	depsA.Add(depA)
	keyA, _ := engine.Fingerprint(e, wrt, depsA, DefaultDirectives(), "")
	assert.NotEqual(t, keyAB, keyA)
}

// TestFingerprint_RecomputationAfterEdit is spec scenario 4: a document Q
// imports document T; fingerprinting a definition in Q that depends on T
// yields a key. After T's document identity changes (recomputation, e.g.
// after Q is reloaded and re-indexed with a fresh dependency set pointing
// at a new *Document for T), the new fingerprint never matches the old
// one -- recomputation invalidates rather than silently reusing stale ids.
func TestFingerprint_RecomputationAfterEdit(t *testing.T) {
	engine := NewCacheKeyEngine(nil, 16)
	q := newDoc("local:/q.cdm.json")
	tOld := newDoc("local:/t.cdm.json")
	e := newEntity("P")
	e.id = 9

	depsOld := NewDependencySet()
	depsOld.Add(tOld)
	oldKey, _ := engine.Fingerprint(e, q, depsOld, DefaultDirectives(), "")

	tNew := newDoc("local:/t.cdm.json")
	depsNew := NewDependencySet()
	depsNew.Add(tNew)
	newKey, _ := engine.Fingerprint(e, q, depsNew, DefaultDirectives(), "")

	assert.NotEqual(t, oldKey, newKey, "a freshly loaded dependency document must never reuse the old id")
}

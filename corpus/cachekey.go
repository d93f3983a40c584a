package corpus

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheKeyEngine computes and caches fingerprints for resolved objects.
// The LRU is a pure lookup optimization: a miss just means recompute, and
// an object with an empty dependency set never gets a key at all, per
// spec section 4.7. Grounded on Keyhole-Koro-InsightifyCore's
// artifactCache (projectstore/store.go), generalized from a single
// project-scoped cache to one fingerprint cache per corpus.
type CacheKeyEngine struct {
	resolver *Resolver
	cache    *lru.Cache[string, string]

	docIDs    map[*Document]int64
	nextDocID int64
}

// NewCacheKeyEngine returns an engine backed by an LRU of the given size.
// A non-positive size disables caching (every call recomputes). Document
// ids are scoped to this engine (and therefore to one corpus instance),
// per the design note that process-wide state belongs on the corpus, not
// a package-level global.
func NewCacheKeyEngine(resolver *Resolver, size int) *CacheKeyEngine {
	var cache *lru.Cache[string, string]
	if size > 0 {
		cache, _ = lru.New[string, string](size)
	}
	return &CacheKeyEngine{resolver: resolver, cache: cache, docIDs: make(map[*Document]int64)}
}

// Fingerprint computes the cache key for def as seen from wrt, given the
// object's recorded dependency set and directives. ok is false when the
// object has no recorded dependencies -- it is not cacheable under this
// witness.
func (e *CacheKeyEngine) Fingerprint(def Definition, wrt *Document, deps *DependencySet, dirs Directives, extra string) (key string, ok bool) {
	if deps == nil || len(deps.docs) == 0 {
		return "", false
	}

	memoKey := e.memoKey(def, wrt, deps, dirs, extra)
	if e.cache != nil {
		if v, hit := e.cache.Get(memoKey); hit {
			return v, true
		}
	}

	ids := e.sortedDocIDs(wrt, deps)
	kind := def.ObjectType().String()
	idOrName := fmt.Sprintf("%d", def.ID())
	if name := def.DeclaredName(); name != "" {
		idOrName = name
	}
	tag := dirs.Tag()

	var b strings.Builder
	b.WriteString(ids)
	b.WriteByte('-')
	b.WriteString(kind)
	b.WriteByte('-')
	b.WriteString(idOrName)
	b.WriteString("-(")
	b.WriteString(tag)
	b.WriteByte(')')
	if extra != "" {
		b.WriteByte('-')
		b.WriteString(extra)
	}
	key = b.String()

	if e.cache != nil {
		e.cache.Add(memoKey, key)
	}
	return key, true
}

// sortedDocIDs renders the ascending, deduplicated concatenation of the
// object ids of every document in deps -- the documents the resolver
// already picked as best while producing def, recorded via deps.Add as it
// went. wrt is accepted for symmetry with Fingerprint's signature but
// unused here: recomputing "best document per symbol" a second time would
// just repeat work the resolver already did.
func (e *CacheKeyEngine) sortedDocIDs(wrt *Document, deps *DependencySet) string {
	seen := make(map[int64]bool)
	var ids []int64
	for _, doc := range deps.Documents() {
		id := e.docID(doc)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// memoKey is the LRU lookup key, distinct from the rendered fingerprint so
// cache lookups don't require recomputing sortedDocIDs on every call.
func (e *CacheKeyEngine) memoKey(def Definition, wrt *Document, deps *DependencySet, dirs Directives, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%p|", def.ID(), wrt)
	for _, doc := range deps.Documents() {
		fmt.Fprintf(&b, "%p,", doc)
	}
	b.WriteByte('|')
	b.WriteString(dirs.Tag())
	b.WriteByte('|')
	b.WriteString(extra)
	return b.String()
}

// docID assigns a stable id to each *Document the first time it's seen,
// mirroring how mb0-daql's dom/vers.go chains a document's own identity
// into its version hash rather than hashing its full content. Callers
// reach this only under the corpus's serial boundary (spec section 5), so
// no additional locking is needed here.
func (e *CacheKeyEngine) docID(d *Document) int64 {
	if id, ok := e.docIDs[d]; ok {
		return id
	}
	e.nextDocID++
	e.docIDs[d] = e.nextDocID
	return e.nextDocID
}

package corpus

// ImportPriorities holds a document's per-document visibility ranking: an
// ordered mapping from document to priority integer where the document
// itself is 0, plus a moniker map for "moniker/Symbol" disambiguation.
// Grounded on mb0-daql's Schema.Use []string (a moniker-less import list)
// generalized to carry monikers and a stable integer ranking.
type ImportPriorities struct {
	PriorityList map[*Document]int
	MonikerMap   map[string]*Document
	// Order lists PriorityList's keys in ascending priority, i.e. Order[i]
	// has priority i, for deterministic iteration without re-sorting a map.
	Order []*Document
}

// docResolver looks up the document that owns corpus path p, if loaded.
type docResolver func(p CorpusPath) (*Document, bool)

// computeImportPriorities builds doc's ImportPriorities per spec section
// 4.3: monikered imports of doc itself populate the moniker map only
// (first writer wins); non-monikered imports are expanded depth-first in
// declaration order, each newly seen document assigned the next integer.
// A monikered edge encountered anywhere in the expansion (not just at
// doc itself) is not followed further -- its target is reachable only
// through the moniker chain rooted at whichever document declared it.
func computeImportPriorities(doc *Document, resolve docResolver) *ImportPriorities {
	ip := &ImportPriorities{
		PriorityList: map[*Document]int{doc: 0},
		MonikerMap:   make(map[string]*Document),
		Order:        []*Document{doc},
	}
	visited := map[*Document]bool{doc: true}
	next := 1

	// sweep 1: doc's own monikered imports, first writer wins.
	for _, imp := range doc.Imports {
		if imp.Moniker == "" {
			continue
		}
		if _, exists := ip.MonikerMap[imp.Moniker]; exists {
			continue
		}
		if target, ok := resolve(imp.Path); ok {
			ip.MonikerMap[imp.Moniker] = target
		}
	}

	// sweep 2: depth-first expansion along non-monikered edges only.
	var visit func(d *Document)
	visit = func(d *Document) {
		for _, imp := range d.Imports {
			if imp.Moniker != "" {
				continue // monikered edges are a traversal boundary
			}
			target, ok := resolve(imp.Path)
			if !ok || visited[target] {
				continue
			}
			visited[target] = true
			ip.PriorityList[target] = next
			ip.Order = append(ip.Order, target)
			next++
			visit(target)
		}
	}
	visit(doc)
	return ip
}

// Priorities returns doc's memoized ImportPriorities, computing and
// caching them on first use (or after MarkDirty cleared the cache).
func (d *Document) Priorities(resolve docResolver) *ImportPriorities {
	d.mu.Lock()
	cached := d.priorities
	d.mu.Unlock()
	if cached != nil {
		return cached
	}
	ip := computeImportPriorities(d, resolve)
	d.mu.Lock()
	d.priorities = ip
	d.mu.Unlock()
	return ip
}

// priority returns the priority integer for target within ip, and whether
// target is reachable at all.
func (ip *ImportPriorities) priority(target *Document) (int, bool) {
	p, ok := ip.PriorityList[target]
	return p, ok
}

// resolveMoniker splits "prefix/rest" and returns the document the prefix
// resolves to plus the remaining symbol. ok is false if sym has no '/' or
// the prefix is not a known moniker in ip.
func (ip *ImportPriorities) resolveMoniker(sym string) (doc *Document, rest string, ok bool) {
	for i := 0; i < len(sym); i++ {
		if sym[i] == '/' {
			prefix, rest := sym[:i], sym[i+1:]
			if d, found := ip.MonikerMap[prefix]; found {
				return d, rest, true
			}
			return nil, "", false
		}
	}
	return nil, "", false
}

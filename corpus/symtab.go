package corpus

import "sync"

// SymbolTable is the process-level name -> defining-documents index.
// Grounded on mb0-daql's env Get(sym) chains, generalized from a single
// project's schema/model lookup into a flat, corpus-wide registry that the
// Resolver narrows down using a witness document's import priorities.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string][]*Document
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string][]*Document)}
}

// Register records that doc declares name. Safe to call more than once for
// the same (name, doc) pair; it will not create a duplicate entry.
func (t *SymbolTable) Register(name string, doc *Document) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.byName[name] {
		if d == doc {
			return
		}
	}
	t.byName[name] = append(t.byName[name], doc)
}

// Lookup returns the documents that declare name.
func (t *SymbolTable) Lookup(name string) []*Document {
	t.mu.RLock()
	defer t.mu.RUnlock()
	found := t.byName[name]
	if len(found) == 0 {
		return nil
	}
	out := make([]*Document, len(found))
	copy(out, found)
	return out
}

// RemoveDocument prunes every symbol table entry that names doc, dropping
// the entry entirely once its document list is empty.
func (t *SymbolTable) RemoveDocument(doc *Document) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, docs := range t.byName {
		out := docs[:0]
		for _, d := range docs {
			if d != doc {
				out = append(out, d)
			}
		}
		if len(out) == 0 {
			delete(t.byName, name)
		} else {
			t.byName[name] = out
		}
	}
}

// ClearDocument removes every symbol registered by doc so a re-declare
// pass can repopulate it from scratch without leaving stale entries for
// names doc no longer declares.
func (t *SymbolTable) ClearDocument(doc *Document) { t.RemoveDocument(doc) }

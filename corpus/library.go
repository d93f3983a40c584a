package corpus

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// libraryEntry pairs a document with the folder that owns it.
type libraryEntry struct {
	folder *Folder
	doc    *Document
}

// DocumentLibrary is the canonical (path -> document) registry, plus the
// "needs loading" and "needs indexing" queues the loader and indexing
// pipeline drain. Grounded on mb0-daql's Project/Schema registry idiom,
// generalized to explicit sets keyed by lowercased corpus path so lookups
// are case-insensitive as spec section 3 requires.
//
// Membership updates are atomic under mu; a singleflight.Group gives the
// loader an at-most-one-concurrent-load guarantee per path without
// blocking unrelated paths.
type DocumentLibrary struct {
	mu         sync.RWMutex
	byPath     map[string]libraryEntry
	notLoaded  map[string]CorpusPath
	notIndexed map[*Document]struct{}

	loadGroup singleflight.Group
}

// NewDocumentLibrary returns an empty library.
func NewDocumentLibrary() *DocumentLibrary {
	return &DocumentLibrary{
		byPath:     make(map[string]libraryEntry),
		notLoaded:  make(map[string]CorpusPath),
		notIndexed: make(map[*Document]struct{}),
	}
}

// Add registers doc at path under folder, and queues it for indexing.
func (l *DocumentLibrary) Add(path CorpusPath, folder *Folder, doc *Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := lower(path)
	l.byPath[key] = libraryEntry{folder: folder, doc: doc}
	delete(l.notLoaded, key)
	l.notIndexed[doc] = struct{}{}
}

// Remove drops doc's registration at path and detaches it from folder.
func (l *DocumentLibrary) Remove(path CorpusPath, folder *Folder, doc *Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := lower(path)
	delete(l.byPath, key)
	delete(l.notIndexed, doc)
	if folder != nil {
		folder.RemoveDocument(doc)
	}
}

// Lookup returns the document registered at path, if any.
func (l *DocumentLibrary) Lookup(path CorpusPath) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byPath[lower(path)]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// LookupEntry returns the (folder, document) pair registered at path.
func (l *DocumentLibrary) LookupEntry(path CorpusPath) (*Folder, *Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byPath[lower(path)]
	if !ok {
		return nil, nil, false
	}
	return e.folder, e.doc, true
}

// MarkForIndexing queues doc for the next indexing pass.
func (l *DocumentLibrary) MarkForIndexing(doc *Document) {
	doc.MarkDirty()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notIndexed[doc] = struct{}{}
}

// MarkAsIndexed dequeues doc from the not-indexed set.
func (l *DocumentLibrary) MarkAsIndexed(doc *Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.notIndexed, doc)
}

// FetchAndMarkForIndexing returns the document at path, marking it for
// indexing if found.
func (l *DocumentLibrary) FetchAndMarkForIndexing(path CorpusPath) (*Document, bool) {
	doc, ok := l.Lookup(path)
	if !ok {
		return nil, false
	}
	l.MarkForIndexing(doc)
	return doc, true
}

// NeedToLoad reports whether path is neither registered nor already
// queued, and if so queues it, returning true exactly once per path until
// the load resolves (successfully or not).
func (l *DocumentLibrary) NeedToLoad(path CorpusPath) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := lower(path)
	if _, loaded := l.byPath[key]; loaded {
		return false
	}
	if _, queued := l.notLoaded[key]; queued {
		return false
	}
	l.notLoaded[key] = path
	return true
}

// PendingLoads returns a snapshot of the queued-but-not-loaded paths.
func (l *DocumentLibrary) PendingLoads() []CorpusPath {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CorpusPath, 0, len(l.notLoaded))
	for _, p := range l.notLoaded {
		out = append(out, p)
	}
	return out
}

// MarkAsLoadedOrFailed dequeues path from notLoaded regardless of outcome;
// nowLoaded reports whether doc is non-nil (a successful load).
func (l *DocumentLibrary) MarkAsLoadedOrFailed(doc *Document, path CorpusPath) (nowLoaded bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.notLoaded, lower(path))
	return doc != nil
}

// PendingIndexing returns a snapshot of the documents queued for indexing.
func (l *DocumentLibrary) PendingIndexing() []*Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Document, 0, len(l.notIndexed))
	for d := range l.notIndexed {
		out = append(out, d)
	}
	return out
}

// Len returns the number of documents currently registered.
func (l *DocumentLibrary) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byPath)
}

// LoadOnce runs fn for path at most once concurrently across callers,
// sharing the result with any caller that arrives while a load for the
// same path is in flight. This backs spec section 8's "load at-most-once"
// property.
func (l *DocumentLibrary) LoadOnce(path CorpusPath, fn func() (*Document, error)) (*Document, error) {
	v, err, _ := l.loadGroup.Do(lower(path), func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*Document), nil
}

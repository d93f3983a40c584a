package corpus

import (
	"fmt"
	"strings"
	"sync"
)

// Folder is a node in the tree rooted per namespace; it owns an ordered set
// of child folders and documents, mirroring how mb0-daql's Project owns an
// ordered list of Schemas. Its own mutex guards children/docs the same way
// DocumentLibrary guards its maps, since the loader's errgroup fan-out
// (loader.go) can call AddDocument for several documents discovered in the
// same wave concurrently, all against the single shared root folder
// returned by Corpus.folderFor -- spec section 5's "registration mutations
// are atomic" covers the folder tree, not just the library and symtab.
type Folder struct {
	Namespace string
	Path      CorpusPath
	Name      string

	parent *Folder

	mu       sync.Mutex
	children []*Folder
	docs     []*Document
}

// NewFolder returns a root folder for namespace.
func NewFolder(namespace string) *Folder {
	return &Folder{Namespace: namespace, Path: CorpusPath(namespace + ":/"), Name: "/"}
}

// ChildFolder returns the direct child folder named name, or nil.
func (f *Folder) ChildFolder(name string) *Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// AddChildFolder appends a new child folder named name and returns it.
func (f *Folder) AddChildFolder(name string) *Folder {
	c := &Folder{
		Namespace: f.Namespace,
		Path:      CorpusPath(join(string(f.Path), name) + "/"),
		Name:      name,
		parent:    f,
	}
	f.mu.Lock()
	f.children = append(f.children, c)
	f.mu.Unlock()
	return c
}

// Documents returns the folder's own documents in declaration order.
func (f *Folder) Documents() []*Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Document, len(f.docs))
	copy(out, f.docs)
	return out
}

// AddDocument attaches doc to this folder.
func (f *Folder) AddDocument(doc *Document) {
	doc.folder = f
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()
}

// RemoveDocument detaches doc from this folder if present.
func (f *Folder) RemoveDocument(doc *Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.docs {
		if d == doc {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return
		}
	}
}

// DocumentByName returns the folder's own document named name, or nil.
func (f *Folder) DocumentByName(name string) *Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if strings.EqualFold(d.Name, name) {
			return d
		}
	}
	return nil
}

// Document owns an ordered list of imports, an ordered list of top-level
// definitions, an internal map from declared path to definition, indexing
// state flags, and a lazily-computed import-priorities cache.
type Document struct {
	Name string
	Path CorpusPath

	Imports     []Import
	Definitions *DefinitionList

	folder *Folder

	mu                sync.Mutex
	declarations      map[string]Definition
	needsIndexing     bool
	currentlyIndexing bool
	importsIndexed    bool
	priorities        *ImportPriorities
}

// NewDocument returns an empty document at path, initially marked dirty.
func NewDocument(name string, path CorpusPath) *Document {
	return &Document{
		Name:          name,
		Path:          path,
		Definitions:   NewDefinitionList(),
		declarations:  make(map[string]Definition),
		needsIndexing: true,
	}
}

// Folder returns the folder that owns this document.
func (d *Document) Folder() *Folder { return d.folder }

// NeedsIndexing reports whether this document is queued for (re-)indexing.
func (d *Document) NeedsIndexing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.needsIndexing
}

// CurrentlyIndexing reports whether this document is mid-pipeline.
func (d *Document) CurrentlyIndexing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentlyIndexing
}

// ImportsIndexed reports whether this document's import graph is current.
func (d *Document) ImportsIndexed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.importsIndexed
}

// MarkDirty flips needsIndexing true and drops any cached import
// priorities, since imports may have changed along with content. It does
// not change this document's identity in the cache-key engine, which
// numbers documents by pointer: a key computed against this document after
// re-indexing equals the key computed before. Only a freshly loaded
// *Document gets a new id, and with it new keys.
func (d *Document) MarkDirty() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.needsIndexing = true
	d.importsIndexed = false
	d.priorities = nil
}

func (d *Document) beginIndexing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentlyIndexing = true
}

func (d *Document) finishIndexing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentlyIndexing = false
	d.importsIndexed = true
	d.needsIndexing = false
}

// declare inserts def at declPath, returning ErrDuplicateDecl if the path
// is already taken.
func (d *Document) declare(declPath string, def Definition) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.declarations[declPath]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDecl, declPath)
	}
	d.declarations[declPath] = def
	return nil
}

// lookupDeclared returns the definition declared at declPath within d.
func (d *Document) lookupDeclared(declPath string) (Definition, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	def, ok := d.declarations[declPath]
	return def, ok
}

// resetDeclarations clears the declared-path map ahead of a fresh Declare
// pass.
func (d *Document) resetDeclarations() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.declarations = make(map[string]Definition)
}


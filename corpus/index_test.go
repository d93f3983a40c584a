package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(library *DocumentLibrary, symtab *SymbolTable) *Indexer {
	resolve := func(p CorpusPath) (*Document, bool) { return library.Lookup(p) }
	resolver := NewResolver(symtab, resolve)
	sink := &eventSink{}
	sink.set(func(Event) {}, SevWarning)
	return NewIndexer(library, symtab, resolver, resolve, false, sink, nil)
}

// TestIndexer_DuplicateDeclaration is spec scenario 3: a document declaring
// two entities named Foo fails indexing with DuplicateDeclaration.
func TestIndexer_DuplicateDeclaration(t *testing.T) {
	library := NewDocumentLibrary()
	symtab := NewSymbolTable()
	doc := newDoc("local:/dup.cdm.json")
	doc.Definitions.Insert(newEntity("Foo"))
	doc.Definitions.Insert(newEntity("Foo"))
	library.Add(doc.Path, nil, doc)

	var captured []Event
	resolve := func(p CorpusPath) (*Document, bool) { return library.Lookup(p) }
	resolver := NewResolver(symtab, resolve)
	sink := &eventSink{}
	sink.set(func(ev Event) { captured = append(captured, ev) }, SevWarning)
	ix := NewIndexer(library, symtab, resolver, resolve, false, sink, nil)

	ix.Run(StageFinished)

	require.NotEmpty(t, captured)
	found := false
	for _, ev := range captured {
		if ev.Err != nil {
			found = found || errorsIsDuplicate(ev.Err)
		}
	}
	assert.True(t, found, "expected a DuplicateDeclaration event")
}

func errorsIsDuplicate(err error) bool {
	for err != nil {
		if err == ErrDuplicateDecl {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// TestIndexer_SymbolTableInvariant is spec section 8's first invariant: for
// every symbol name declared in a document after indexing, the symbol
// table's entry for that name contains the document.
func TestIndexer_SymbolTableInvariant(t *testing.T) {
	library := NewDocumentLibrary()
	symtab := NewSymbolTable()
	doc := newDoc("local:/a.cdm.json")
	doc.Definitions.Insert(newEntity("Order"))
	library.Add(doc.Path, nil, doc)

	ix := newTestIndexer(library, symtab)
	ix.Run(StageFinished)

	docs := symtab.Lookup("Order")
	require.Len(t, docs, 1)
	assert.Same(t, doc, docs[0])
	assert.False(t, doc.NeedsIndexing())
}

// TestIndexer_MissingPrimaryKeyWarning covers the ResolveForeignKeys stage
// reporting MissingPrimaryKey as a warning for an entity without
// is.identifiedBy.
func TestIndexer_MissingPrimaryKeyWarning(t *testing.T) {
	library := NewDocumentLibrary()
	symtab := NewSymbolTable()
	doc := newDoc("local:/a.cdm.json")
	doc.Definitions.Insert(newEntity("NoKey"))
	library.Add(doc.Path, nil, doc)

	var captured []Event
	resolve := func(p CorpusPath) (*Document, bool) { return library.Lookup(p) }
	resolver := NewResolver(symtab, resolve)
	sink := &eventSink{}
	sink.set(func(ev Event) { captured = append(captured, ev) }, SevWarning)
	ix := NewIndexer(library, symtab, resolver, resolve, false, sink, nil)

	ix.Run(StageFinished)

	var sawWarning bool
	for _, ev := range captured {
		if ev.Severity == SevWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning, "expected a MissingPrimaryKey warning")
}

/*
Package corpus implements the symbol-resolution and indexing engine for a
common data model corpus: a collection of loosely-coupled documents that
declare entities, traits, purposes, data types, parameters and attributes,
and that import each other's declarations by symbolic name.

A Corpus owns a tree of Folders rooted per namespace, a Loader that pulls
imported Documents in lazily through a storage.Adapter, a process-wide
symbol table, and a Resolver that answers symbol queries with respect to a
witness document's import priorities. The cache-key engine derives a
fingerprint for a resolved object from the set of documents its resolution
consulted, so an unrelated document never changes that fingerprint. The
engine memoizes the fingerprint strings only; the corpus does not store
resolved forms under them.

Indexing a document runs a fixed pipeline: an integrity pass validates every
declared object, a declare pass populates the document's internal
declarations and the corpus symbol table, a link pass resolves plain
references, and three further passes resolve trait arguments, traits and
attributes, and foreign keys. The loader registers a document's top-level
names in the symbol table as soon as it reads the document, and the
resolver does not check a document's indexing state, so a loaded document
is visible to resolution before its pipeline has finished.

The following invariants hold for any Corpus at rest (that is, between
calls, once Indexer.Run has drained the corpus's need-to-index queue):

 1. For every document D and every symbol name n declared in D, the symbol
    table entry for n contains D.
 2. For every document D, D's priority list places D at index 0, and every
    key in the priority list is reachable from D through non-monikered
    imports only.
 3. currently-indexing is true for a document only for the duration of one
    call into the indexing pipeline; resolution never recurses into a
    document mid-index except to walk that document's own imports.
 4. The cache key encodes the identity of the documents in an object's
    dependency set, not merely a name, so a key computed against a freshly
    loaded *Document never matches one computed against the document it
    replaced. Marking a document dirty does not change its identity, so it
    neither evicts nor changes the keys computed against that document.
 5. A resolved entity materialized only to walk its attribute-context tree
    during relationship extraction is removed from its host folder before
    the extracting call returns, regardless of error.

Persistence (turning bytes into a Document), byte-level storage transport,
and the specifics of the concrete definition types beyond the small
Definition/Reference contract are external collaborators; this package only
consumes them through interfaces.
*/
package corpus

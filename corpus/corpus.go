package corpus

import (
	"context"
	"fmt"
	"sync"

	"github.com/WessZumino/CDM/log"
	"github.com/WessZumino/CDM/storage"
)

// Options configures a Corpus at construction time.
type Options struct {
	// DefaultNamespace is used for corpus paths without an explicit "ns:"
	// prefix.
	DefaultNamespace string
	// Shallow enables shallow-validation mode: reference and type errors
	// are reported as warnings instead of errors (spec section 7).
	Shallow bool
	// CacheSize bounds the cache-key engine's LRU. Zero disables caching.
	CacheSize int
	// Logger receives structured log output; defaults to a no-op logger.
	Logger log.Logger
}

// Corpus is the top-level engine: one tree of folders per namespace, a
// document library, a symbol table, a resolver, an indexer, a cache-key
// engine and a relationship graph, all wired together behind the single
// serialization boundary spec section 5 requires. Grounded on mb0-daql's
// dom.Project as the "one schema graph, one mutex" shape (dom/dom.go),
// generalized from a single project's Schemas to namespaced Folders plus
// lazy, storage-backed loading.
type Corpus struct {
	mu sync.Mutex

	registry *storage.Registry
	library  *DocumentLibrary
	symtab   *SymbolTable
	resolver *Resolver
	indexer  *Indexer
	cacheKey *CacheKeyEngine
	graph    *RelationshipGraph
	events   eventSink
	folders  map[string]*Folder

	defaultNamespace  string
	defaultDirectives Directives
	parse             ParseFunc
	log               log.Logger

	stats CorpusStats
}

// CorpusStats exposes counters for observability; informational only, no
// behavior depends on them. Grounded on the original object model's
// PersistenceInfo-style bookkeeping.
type CorpusStats struct {
	DocumentsLoaded  int
	DocumentsIndexed int
	CacheHits        int
	CacheMisses      int
}

// New returns a Corpus reading through registry and parsing bytes with
// parse. opts.DefaultNamespace, if empty, falls back to registry's own
// default.
func New(registry *storage.Registry, parse ParseFunc, opts Options) *Corpus {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop{}
	}
	ns := opts.DefaultNamespace
	if ns == "" {
		ns = registry.DefaultNamespace()
	}

	c := &Corpus{
		registry:          registry,
		library:           NewDocumentLibrary(),
		symtab:            NewSymbolTable(),
		graph:             NewRelationshipGraph(),
		folders:           make(map[string]*Folder),
		defaultNamespace:  ns,
		defaultDirectives: DefaultDirectives(),
		parse:             parse,
		log:               logger,
	}
	c.events.set(nil, SevWarning)

	resolveDoc := func(p CorpusPath) (*Document, bool) { return c.library.Lookup(p) }
	c.resolver = NewResolver(c.symtab, resolveDoc)
	c.indexer = NewIndexer(c.library, c.symtab, c.resolver, resolveDoc, opts.Shallow, &c.events, logger)
	c.cacheKey = NewCacheKeyEngine(c.resolver, opts.CacheSize)
	return c
}

// SetLogger replaces the corpus's logging sink.
func (c *Corpus) SetLogger(logger log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if logger == nil {
		logger = log.Nop{}
	}
	c.log = logger
}

// SetEventCallback registers cb to receive every diagnostic at or above
// minLevel.
func (c *Corpus) SetEventCallback(cb EventCallback, minLevel Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.set(cb, minLevel)
}

// SetDefaultResolutionDirectives overrides the directive set FetchObject
// uses when the caller does not specify one.
func (c *Corpus) SetDefaultResolutionDirectives(dirs Directives) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultDirectives = dirs
}

// folderFor returns (creating if needed) the root folder for namespace.
func (c *Corpus) folderFor(namespace string) *Folder {
	if f, ok := c.folders[namespace]; ok {
		return f
	}
	f := NewFolder(namespace)
	c.folders[namespace] = f
	return f
}

// Load fetches and registers every document reachable (transitively,
// through imports) from seeds, then runs the indexing pipeline to
// completion. This is the usual way to bring a corpus up before issuing
// FetchObject calls.
func (c *Corpus) Load(ctx context.Context, seeds []CorpusPath) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ns := c.defaultNamespace
	folder := c.folderFor(ns)
	loader := NewLoader(c.registry, c.library, c.symtab, c.parse, c.log)
	if err := loader.LoadAll(ctx, seeds, folder); err != nil {
		return err
	}
	c.stats.DocumentsLoaded = c.library.Len()
	reached := c.indexer.Run(StageFinished)
	if reached == StageFinished {
		c.stats.DocumentsIndexed = c.stats.DocumentsLoaded
	}
	return nil
}

// ResolveReferencesAndValidate drives the indexing pipeline up to and
// including stageThrough over whatever documents are currently marked
// needs-indexing, returning the stage actually reached.
func (c *Corpus) ResolveReferencesAndValidate(stageThrough ValidationStage) ValidationStage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexer.Run(stageThrough)
}

// FetchObject resolves path against anchor (the witness document), or
// against path's own document if anchor is empty or not loaded.
func (c *Corpus) FetchObject(path CorpusPath, anchor CorpusPath) (Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ValidateFormat(string(path)); err != nil {
		c.events.emitError(path, err)
		return nil, err
	}

	docPath, declPath := splitDeclPath(path)
	from, ok := c.library.Lookup(docPath)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotFound, docPath)
		c.events.emitError(path, err)
		return nil, err
	}
	wrt := from
	if anchor != "" {
		if a, found := c.library.Lookup(anchor); found {
			wrt = a
		}
	}

	name := declPath
	if name == "" {
		name = from.Name
	}
	ref := &SimpleReference{Named: name, Expected: ObjError}
	deps := NewDependencySet()
	def, err := c.resolver.Resolve(from, wrt, ref, deps)
	if err != nil {
		c.events.emitValidation(newValidationError(err, path, false, true))
		return nil, err
	}
	return def, nil
}

// NextID returns a fresh process-unique definition id (spec section 3).
// MakeObject uses it directly; definitions materialized straight into a
// document (persistence.go) instead get their id from the indexer's
// declare stage the first time the document is indexed.
func (c *Corpus) NextID() int64 {
	return nextGlobalID()
}

// MakeObject constructs a blank instance of kind, optionally named and
// carrying an initial reference, per spec section 6.
func (c *Corpus) MakeObject(kind ObjectType, name string, ref *SimpleReference) (Definition, error) {
	def, err := c.newObject(kind, name, ref)
	if err != nil {
		return nil, err
	}
	def.SetID(c.NextID())
	return def, nil
}

func (c *Corpus) newObject(kind ObjectType, name string, ref *SimpleReference) (Definition, error) {
	switch kind {
	case ObjEntity:
		e := newEntity(name)
		return e, nil
	case ObjTrait:
		return &Trait{base: base{obj: ObjTrait, name: name}}, nil
	case ObjPurpose:
		return &Purpose{base: base{obj: ObjPurpose, name: name}, Extends: ref}, nil
	case ObjDataType:
		return &DataType{base: base{obj: ObjDataType, name: name}, Extends: ref}, nil
	case ObjParameter:
		return &Parameter{base: base{obj: ObjParameter, name: name}}, nil
	case ObjTypeAttribute:
		return &TypeAttribute{base: base{obj: ObjTypeAttribute, name: name}, DataType: ref}, nil
	case ObjEntityAttribute:
		return &EntityAttribute{base: base{obj: ObjEntityAttribute, name: name}, Entity: ref}, nil
	case ObjAttributeGroup:
		return &AttributeGroup{base: base{obj: ObjAttributeGroup, name: name}, Members: NewDefinitionList()}, nil
	case ObjConstantEntity:
		return &ConstantEntity{base: base{obj: ObjConstantEntity, name: name}, Attributes: NewDefinitionList()}, nil
	case ObjAttributeContext:
		return newAttributeContext(name), nil
	case ObjLocalEntityDeclaration:
		return &LocalEntityDeclaration{base: base{obj: ObjLocalEntityDeclaration, name: name}}, nil
	case ObjReferencedEntityDeclaration:
		return &ReferencedEntityDeclaration{base: base{obj: ObjReferencedEntityDeclaration, name: name}}, nil
	default:
		return nil, fmt.Errorf("corpus: unknown object type %v", kind)
	}
}

// CalculateEntityGraph resolves every entity in manifest and records the
// relationships it finds into the corpus's outgoing/incoming maps.
func (c *Corpus) CalculateEntityGraph(manifest CorpusPath) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.library.Lookup(manifest)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, manifest)
	}
	extractor := NewRelationshipExtractor(c.graph, c.resolver)
	return extractor.CalculateEntityGraph(doc)
}

// FetchOutgoingRelationships returns entity's outgoing relationships.
func (c *Corpus) FetchOutgoingRelationships(entity CorpusPath) []Relationship {
	return c.graph.Outgoing(entity)
}

// FetchIncomingRelationships returns entity's incoming relationships.
func (c *Corpus) FetchIncomingRelationships(entity CorpusPath) []Relationship {
	return c.graph.Incoming(entity)
}

// Fingerprint computes def's cache key as seen from wrt using the
// corpus's default directives. In Stats, CacheHits counts calls that
// returned a key and CacheMisses calls for an object that is not
// cacheable; whether the key came from the engine's LRU is not counted.
func (c *Corpus) Fingerprint(def Definition, wrt *Document, deps *DependencySet) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.cacheKey.Fingerprint(def, wrt, deps, c.defaultDirectives, "")
	if ok {
		c.stats.CacheHits++
	} else {
		c.stats.CacheMisses++
	}
	return key, ok
}

// Stats returns a snapshot of the corpus's counters.
func (c *Corpus) Stats() CorpusStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

package corpus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/WessZumino/CDM/log"
)

// Loader turns storage reads into parsed, registered documents, and drives
// the fixpoint loop that keeps loading newly-discovered imports until none
// remain. Grounded on Starford96-kenaz's errgroup.WithContext fan-out
// (internal/entry.go), adapted from "watch a vault and rebuild an index"
// into "fetch a wave of corpus paths concurrently and expand the frontier".
type Loader struct {
	registry storageRegistry
	library  *DocumentLibrary
	symtab   *SymbolTable
	parse    ParseFunc
	log      log.Logger
}

// ParseFunc turns raw bytes read from storage into a Document. Kept as an
// injectable func rather than a fixed CDM-JSON parser so tests can supply
// a trivial in-memory format without pulling in a real parser.
type ParseFunc func(path CorpusPath, data []byte) (*Document, error)

// storageRegistry is the subset of storage.Registry the loader needs;
// declared locally so the loader depends only on Read and tests can supply
// a fake.
type storageRegistry interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// NewLoader returns a Loader that reads through registry, registers into
// library and symtab, and parses bytes with parse.
func NewLoader(registry storageRegistry, library *DocumentLibrary, symtab *SymbolTable, parse ParseFunc, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.Nop{}
	}
	return &Loader{registry: registry, library: library, symtab: symtab, parse: parse, log: logger}
}

// LoadAll drives the fixpoint loop starting from seeds: load every pending
// path concurrently, register the results (registering a document queues
// it for indexing and queues each of its imports as a new pending path),
// and repeat until PendingLoads is empty. LoadAll does not run the
// indexing pipeline; the caller does that once it returns.
func (l *Loader) LoadAll(ctx context.Context, seeds []CorpusPath, folder *Folder) error {
	for _, s := range seeds {
		l.library.NeedToLoad(s)
	}
	for {
		wave := l.library.PendingLoads()
		if len(wave) == 0 {
			return nil
		}
		if err := l.loadWave(ctx, wave, folder); err != nil {
			return err
		}
	}
}

// loadWave loads every path in wave concurrently. A failed load is logged
// and the path dropped from the pending set; it does not fail the wave, so
// loadWave returns nil once every load has finished.
func (l *Loader) loadWave(ctx context.Context, wave []CorpusPath, folder *Folder) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range wave {
		path := p
		g.Go(func() error {
			doc, err := l.library.LoadOnce(path, func() (*Document, error) {
				return l.loadOne(gctx, path, folder)
			})
			nowLoaded := l.library.MarkAsLoadedOrFailed(doc, path)
			if err != nil {
				l.log.Warn("load failed", "path", string(path), "error", err)
				return nil // a single failed doc does not abort the wave
			}
			if nowLoaded {
				l.registerDoc(doc, folder)
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) loadOne(ctx context.Context, path CorpusPath, folder *Folder) (*Document, error) {
	data, err := l.registry.Read(ctx, string(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := l.parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return doc, nil
}

func (l *Loader) registerDoc(doc *Document, folder *Folder) {
	if doc == nil {
		return
	}
	if folder != nil {
		folder.AddDocument(doc)
	}
	l.library.Add(doc.Path, folder, doc)
	for _, def := range doc.Definitions.All() {
		def.SetDoc(doc)
		l.symtab.Register(def.DeclaredName(), doc)
	}
	for _, imp := range doc.Imports {
		l.library.NeedToLoad(imp.Path)
	}
}

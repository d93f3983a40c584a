package corpus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessZumino/CDM/storage"
)

func newTestCorpus(t *testing.T, docs map[string]string) *Corpus {
	t.Helper()
	mem := storage.NewMem()
	for path, body := range docs {
		mem.Put(path, []byte(body), time.Time{})
	}
	registry := storage.NewRegistry("local")
	registry.Mount("local", mem)
	return New(registry, MaterializeJSON, Options{DefaultNamespace: "local"})
}

// TestCorpus_LoadAndFetch covers the end-to-end path: load a document
// through a storage adapter, then fetch the entity it declares by name.
func TestCorpus_LoadAndFetch(t *testing.T) {
	c := newTestCorpus(t, map[string]string{
		"a.cdm.json": `{"definitions":[{"$type":"entity","name":"Customer","hasAttributes":[
			{"name":"CustomerId","attributeKind":"type","dataType":"string"}
		]}]}`,
	})

	err := c.Load(context.Background(), []CorpusPath{"local:/a.cdm.json"})
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 1, stats.DocumentsLoaded)
	assert.Equal(t, 1, stats.DocumentsIndexed)

	def, err := c.FetchObject("local:/a.cdm.json/Customer", "")
	require.NoError(t, err)
	assert.Equal(t, "Customer", def.DeclaredName())
	assert.Equal(t, ObjEntity, def.ObjectType())
}

// TestCorpus_LoadFollowsImports checks that Load's fixpoint loop discovers
// and loads a document reachable only through another document's imports.
func TestCorpus_LoadFollowsImports(t *testing.T) {
	c := newTestCorpus(t, map[string]string{
		"a.cdm.json": `{"imports":[{"corpusPath":"b.cdm.json"}],"definitions":[
			{"$type":"entity","name":"Order"}
		]}`,
		"b.cdm.json": `{"definitions":[{"$type":"entity","name":"Customer"}]}`,
	})

	err := c.Load(context.Background(), []CorpusPath{"local:/a.cdm.json"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().DocumentsLoaded)

	def, err := c.FetchObject("local:/a.cdm.json/Customer", "")
	require.NoError(t, err)
	assert.Equal(t, "Customer", def.DeclaredName())
}

// TestCorpus_FetchObject_RejectsRelativePaths is spec scenario 6: a corpus
// path containing a relative fragment such as "./" is rejected before any
// lookup is attempted, and the rejection is also emitted as an event.
func TestCorpus_FetchObject_RejectsRelativePaths(t *testing.T) {
	c := newTestCorpus(t, map[string]string{
		"a.cdm.json": `{"definitions":[{"$type":"entity","name":"Customer"}]}`,
	})
	require.NoError(t, c.Load(context.Background(), []CorpusPath{"local:/a.cdm.json"}))

	var captured Event
	c.SetEventCallback(func(ev Event) { captured = ev }, SevError)

	_, err := c.FetchObject("local:/./a.cdm.json/Customer", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathFormat)
	assert.Equal(t, SevError, captured.Severity)
}

func TestCorpus_FetchObject_UnknownDocument(t *testing.T) {
	c := newTestCorpus(t, nil)
	_, err := c.FetchObject("local:/missing.cdm.json/Foo", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

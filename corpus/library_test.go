package corpus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadOnce_ConcurrentCallersShareOneLoad is spec section 8's
// load-at-most-once invariant: N goroutines calling LoadOnce for the same
// path concurrently trigger exactly one underlying load.
func TestLoadOnce_ConcurrentCallersShareOneLoad(t *testing.T) {
	library := NewDocumentLibrary()
	var calls int32
	release := make(chan struct{})

	fn := func() (*Document, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return newDoc("local:/a.cdm.json"), nil
	}

	const n = 8
	var wg, started sync.WaitGroup
	results := make([]*Document, n)
	wg.Add(n)
	started.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			started.Done()
			d, err := library.LoadOnce("local:/a.cdm.json", fn)
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}
	// Keep the first load blocked until every caller is running and has had
	// time to join it, so all n calls are in flight together.
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, d := range results {
		require.NotNil(t, d)
		assert.Same(t, results[0], d)
	}
}

func TestNeedToLoad_QueuesExactlyOnce(t *testing.T) {
	library := NewDocumentLibrary()
	assert.True(t, library.NeedToLoad("local:/a.cdm.json"))
	assert.False(t, library.NeedToLoad("local:/a.cdm.json"), "already queued")

	doc := newDoc("local:/a.cdm.json")
	library.Add(doc.Path, nil, doc)
	assert.False(t, library.NeedToLoad("local:/a.cdm.json"), "already loaded")
}

func TestDocumentLibrary_AddRemoveLookup(t *testing.T) {
	library := NewDocumentLibrary()
	doc := newDoc("local:/a.cdm.json")
	library.Add(doc.Path, nil, doc)
	assert.Equal(t, 1, library.Len())

	got, ok := library.Lookup("local:/a.cdm.json")
	require.True(t, ok)
	assert.Same(t, doc, got)

	require.Len(t, library.PendingIndexing(), 1)
	library.MarkAsIndexed(doc)
	assert.Empty(t, library.PendingIndexing())

	library.Remove(doc.Path, nil, doc)
	assert.Equal(t, 0, library.Len())
	_, ok = library.Lookup("local:/a.cdm.json")
	assert.False(t, ok)
}

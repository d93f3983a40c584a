package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(path CorpusPath) *Document {
	return NewDocument(string(path), path)
}

func TestComputeImportPriorities_SelfIsZero(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	priorities := computeImportPriorities(a, func(CorpusPath) (*Document, bool) { return nil, false })
	p, ok := priorities.priority(a)
	require.True(t, ok)
	assert.Equal(t, 0, p)
}

func TestComputeImportPriorities_NonMonikeredExpandsDepthFirst(t *testing.T) {
	c := newDoc("local:/c.cdm.json")
	d := newDoc("local:/d.cdm.json")
	e := newDoc("local:/e.cdm.json")
	c.Imports = []Import{{Path: d.Path}, {Path: e.Path}}

	resolve := func(p CorpusPath) (*Document, bool) {
		switch p {
		case d.Path:
			return d, true
		case e.Path:
			return e, true
		}
		return nil, false
	}
	priorities := computeImportPriorities(c, resolve)

	pd, _ := priorities.priority(d)
	pe, _ := priorities.priority(e)
	assert.Less(t, pd, pe, "declaration order determines priority: D before E")
}

func TestComputeImportPriorities_MonikeredDoesNotEnterPriorityList(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	b := newDoc("local:/b.cdm.json")
	a.Imports = []Import{{Path: b.Path, Moniker: "m"}}

	resolve := func(p CorpusPath) (*Document, bool) {
		if p == b.Path {
			return b, true
		}
		return nil, false
	}
	priorities := computeImportPriorities(a, resolve)

	_, inPriorityList := priorities.priority(b)
	assert.False(t, inPriorityList, "monikered imports contribute to the moniker map only")
	assert.Equal(t, b, priorities.MonikerMap["m"])
}

func TestComputeImportPriorities_CyclesTerminate(t *testing.T) {
	a := newDoc("local:/a.cdm.json")
	b := newDoc("local:/b.cdm.json")
	a.Imports = []Import{{Path: b.Path}}
	b.Imports = []Import{{Path: a.Path}}

	resolve := func(p CorpusPath) (*Document, bool) {
		switch p {
		case a.Path:
			return a, true
		case b.Path:
			return b, true
		}
		return nil, false
	}
	priorities := computeImportPriorities(a, resolve)
	assert.Len(t, priorities.PriorityList, 2)
}

package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalculateEntityGraph_ForeignKey is spec scenario 5: entity Order has
// attribute CustomerId with is.identifiedBy pointing to Customer/CustomerId.
// After CalculateEntityGraph, the outgoing map for Order contains exactly
// one edge to Customer, mirrored in Customer's incoming map.
func TestCalculateEntityGraph_ForeignKey(t *testing.T) {
	manifest := newDoc("local:/manifest.cdm.json")
	customer := newEntity("Customer")
	order := newEntity("Order")

	customerID := &TypeAttribute{
		base:     base{obj: ObjTypeAttribute, name: "CustomerId"},
		DataType: &SimpleReference{Named: "string", Expected: ObjError},
	}
	orderCustomerID := &TypeAttribute{
		base:     base{obj: ObjTypeAttribute, name: "CustomerId"},
		DataType: &SimpleReference{Named: "string", Expected: ObjError},
	}
	idTrait := newTraitRef("is.identifiedBy")
	idTrait.Arguments = []*ArgumentValue{{Value: "Customer/CustomerId"}}
	orderCustomerID.Traits = []*TraitReference{idTrait}

	customer.Attributes.Insert(customerID)
	order.Attributes.Insert(orderCustomerID)
	manifest.Definitions.Insert(customer)
	manifest.Definitions.Insert(order)

	symtab := NewSymbolTable()
	symtab.Register("Customer", manifest)
	symtab.Register("Order", manifest)
	resolve := func(p CorpusPath) (*Document, bool) { return nil, false }
	resolver := NewResolver(symtab, resolve)
	graph := NewRelationshipGraph()
	extractor := NewRelationshipExtractor(graph, resolver)

	require.NoError(t, extractor.CalculateEntityGraph(manifest))

	orderPath := CorpusPath(string(manifest.Path) + "/Order")
	out := graph.Outgoing(orderPath)
	require.Len(t, out, 1)
	assert.Equal(t, "CustomerId", out[0].FromAttribute)
	assert.Equal(t, "CustomerId", out[0].ToAttribute)
	assert.Contains(t, string(out[0].ToEntity), "Customer")

	in := graph.Incoming(out[0].ToEntity)
	require.Len(t, in, 1)
	assert.Equal(t, out[0], in[0])
}

// TestCalculateEntityGraph_Idempotent is spec section 8's relationship
// idempotence property: running CalculateEntityGraph twice yields
// identical outgoing/incoming maps, not duplicated entries.
func TestCalculateEntityGraph_Idempotent(t *testing.T) {
	manifest := newDoc("local:/manifest.cdm.json")
	order := newEntity("Order")
	attr := &TypeAttribute{base: base{obj: ObjTypeAttribute, name: "CustomerId"}, DataType: &SimpleReference{Named: "string"}}
	idTrait := newTraitRef("is.identifiedBy")
	idTrait.Arguments = []*ArgumentValue{{Value: "Customer/CustomerId"}}
	attr.Traits = []*TraitReference{idTrait}
	order.Attributes.Insert(attr)
	manifest.Definitions.Insert(order)

	symtab := NewSymbolTable()
	resolver := NewResolver(symtab, func(CorpusPath) (*Document, bool) { return nil, false })
	graph := NewRelationshipGraph()
	extractor := NewRelationshipExtractor(graph, resolver)

	require.NoError(t, extractor.CalculateEntityGraph(manifest))
	first := graph.Outgoing(CorpusPath(string(manifest.Path) + "/Order"))
	require.NoError(t, extractor.CalculateEntityGraph(manifest))
	second := graph.Outgoing(CorpusPath(string(manifest.Path) + "/Order"))

	assert.Equal(t, first, second)
}

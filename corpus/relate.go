package corpus

import (
	"strings"
	"sync"
)

// Relationship is an inferred (from-entity, from-attribute, to-entity,
// to-attribute) edge, the CDM analogue of mb0-daql's dom.Relation linking
// two models (dom/rels.go). Unlike dom.Relation this carries no
// cardinality bit-set: the source spec only asks for identity-style
// foreign-key edges, not full relational multiplicity.
type Relationship struct {
	FromEntity    CorpusPath
	FromAttribute string
	ToEntity      CorpusPath
	ToAttribute   string
}

// RelationshipGraph holds the outgoing/incoming maps a corpus exposes via
// fetch-outgoing-relationships/fetch-incoming-relationships. Grounded on
// dom/rels.go's Relations map plus its upsert/add pair, generalized from
// per-model ModelRels to a plain slice-valued map since a CDM entity has
// no "Via" intermediate-model concept.
type RelationshipGraph struct {
	mu       sync.RWMutex
	outgoing map[CorpusPath][]Relationship
	incoming map[CorpusPath][]Relationship
}

// NewRelationshipGraph returns an empty graph.
func NewRelationshipGraph() *RelationshipGraph {
	return &RelationshipGraph{
		outgoing: make(map[CorpusPath][]Relationship),
		incoming: make(map[CorpusPath][]Relationship),
	}
}

// Outgoing returns entity's outgoing relationships.
func (g *RelationshipGraph) Outgoing(entity CorpusPath) []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Relationship(nil), g.outgoing[entity]...)
}

// Incoming returns entity's incoming relationships.
func (g *RelationshipGraph) Incoming(entity CorpusPath) []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Relationship(nil), g.incoming[entity]...)
}

// ClearEntity drops every relationship this entity previously contributed,
// so recomputation (spec section 8 "relationship idempotence") starts
// from a clean slate rather than accumulating duplicates.
func (g *RelationshipGraph) ClearEntity(entity CorpusPath) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.outgoing, entity)
	for to, rels := range g.incoming {
		out := rels[:0]
		for _, r := range rels {
			if r.FromEntity != entity {
				out = append(out, r)
			}
		}
		g.incoming[to] = out
	}
}

func (g *RelationshipGraph) add(r Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outgoing[r.FromEntity] = append(g.outgoing[r.FromEntity], r)
	g.incoming[r.ToEntity] = append(g.incoming[r.ToEntity], r)
}

// RelationshipExtractor walks a manifest's entities' resolved
// attribute-context trees and records the foreign-key-style edges it
// finds, per spec section 4.8.
type RelationshipExtractor struct {
	graph    *RelationshipGraph
	resolver *Resolver
}

// NewRelationshipExtractor returns an extractor writing into graph.
func NewRelationshipExtractor(graph *RelationshipGraph, resolver *Resolver) *RelationshipExtractor {
	return &RelationshipExtractor{graph: graph, resolver: resolver}
}

// CalculateEntityGraph builds, for every entity declared in manifest (and,
// by the caller re-invoking per sub-manifest import, recursively), a shadow
// attribute-context tree from the entity's declared attributes in the
// shape {normalized, referenceOnly} resolution gives, walks it, and records
// every relationship found. No Directives value is consulted and the
// entity is not run through the resolver. The shadow
// context is discarded once the walk completes; nothing under manifest's
// folder is mutated.
func (x *RelationshipExtractor) CalculateEntityGraph(manifest *Document) error {
	for _, def := range manifest.Definitions.All() {
		entity, ok := def.(*Entity)
		if !ok {
			continue
		}
		entityPath := CorpusPath(string(manifest.Path) + "/" + entity.name)
		x.graph.ClearEntity(entityPath)

		shadow := x.buildShadowContext(manifest, entity, entityPath)
		x.walk(shadow, nil)
	}
	return nil
}

// buildShadowContext produces the resolved-form attribute-context tree for
// entity under the {normalized, referenceOnly} directive set: every
// TypeAttribute carrying an is.identifiedBy trait becomes an entity
// reference node nested inside a synthetic "_generatedAttributeSet",
// alongside the AddedAttributeIdentity leaf CDM's normalizer would have
// produced for the added foreign-key column.
func (x *RelationshipExtractor) buildShadowContext(doc *Document, entity *Entity, entityPath CorpusPath) *AttributeContext {
	root := newAttributeContext(entity.name)
	root.AtCorpusPath = stripWrtSelf(entityPath)

	for _, attr := range entity.Attributes.All() {
		ta, ok := attr.(*TypeAttribute)
		if !ok {
			continue
		}
		traitRef, found := ta.HasTrait("is.identifiedBy")
		if !found {
			continue
		}
		target := identifiedByTarget(traitRef)
		if target == "" {
			continue
		}
		toAttr := lastSegment(target)

		genSet := newAttributeContext("_generatedAttributeSet")
		genSet.GeneratedAttributeSetName = "_generatedAttributeSet"
		genSet.Parent = root
		root.Contents.Insert(genSet)

		leaf := newAttributeContext(ta.name + "_" + toAttr)
		leaf.IsAddedAttributeIdentity = true
		leaf.NamedRef = ta.name + "_" + toAttr
		leaf.Parent = genSet
		genSet.Contents.Insert(leaf)

		refNode := newAttributeContext(ta.name)
		refNode.EntityReference = &SimpleReference{Named: target, Expected: ObjEntity}
		refNode.Parent = genSet
		genSet.Contents.Insert(refNode)
	}
	return root
}

// walk descends the attribute-context tree, recording a relationship at
// every entity-reference node and propagating the nearest
// _generatedAttributeSet ancestor to its children. buildShadowContext is
// the only producer of this tree today, so the walk looks redundant over
// its own output, but it is written against the general
// AttributeContext shape a real CDM attribute-context materializer would
// produce, not against buildShadowContext's specific layout -- swapping in
// a fuller materializer later should not require touching this method.
func (x *RelationshipExtractor) walk(node *AttributeContext, nearestGenSet *AttributeContext) {
	if node.GeneratedAttributeSetName != "" {
		nearestGenSet = node
	}
	if node.EntityReference != nil {
		if rel, ok := x.buildRelationship(node, nearestGenSet); ok {
			x.graph.add(rel)
		}
	}
	for _, child := range node.Contents.All() {
		if ctx, ok := child.(*AttributeContext); ok {
			x.walk(ctx, nearestGenSet)
		}
	}
}

// buildRelationship implements spec section 4.8 steps 3-4 for a single
// entity-reference node.
func (x *RelationshipExtractor) buildRelationship(node *AttributeContext, genSet *AttributeContext) (Relationship, bool) {
	toEntityName, toAttr := splitMonikerPath(node.EntityReference.NamedReference())
	if toEntityName == "" {
		return Relationship{}, false
	}
	toEntity := CorpusPath(toEntityName)
	if docs := x.resolver.symtab.Lookup(toEntityName); len(docs) == 1 {
		toEntity = CorpusPath(string(docs[0].Path) + "/" + toEntityName)
	}

	root := node
	for root.Parent != nil {
		root = root.Parent
	}

	identity := findAddedAttributeIdentity(genSet)
	if identity == nil {
		return Relationship{}, false
	}
	fromAttr := strings.TrimPrefix(identity.NamedRef, node.name+"_")
	fromAttr = lastSegment(fromAttr)

	return Relationship{
		FromEntity:    root.AtCorpusPath,
		FromAttribute: fromAttr,
		ToEntity:      toEntity,
		ToAttribute:   toAttr,
	}, true
}

// findAddedAttributeIdentity searches genSet's direct children, closest
// first, for the first node marked IsAddedAttributeIdentity, skipping
// nested Entity-typed nodes (an entity reference nested inside its own
// generated set, which never carries the leaf we want).
func findAddedAttributeIdentity(genSet *AttributeContext) *AttributeContext {
	if genSet == nil {
		return nil
	}
	for _, child := range genSet.Contents.All() {
		ctx, ok := child.(*AttributeContext)
		if !ok || ctx.EntityReference != nil {
			continue
		}
		if ctx.IsAddedAttributeIdentity {
			return ctx
		}
	}
	return nil
}

// identifiedByTarget extracts the single string argument of an
// is.identifiedBy trait reference -- the "moniker/Symbol"-shaped path to
// the referenced entity's key attribute.
func identifiedByTarget(ref *TraitReference) string {
	for _, arg := range ref.Arguments {
		if s, ok := arg.Value.(string); ok {
			return s
		}
	}
	return ""
}

// splitMonikerPath splits "Entity/Attribute" into its two segments.
func splitMonikerPath(s string) (entity, attribute string) {
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// lastSegment returns the final '/'-delimited segment of s.
func lastSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// stripWrtSelf removes a leading "wrtSelf_" prefix from a corpus path
// segment, per the design note that the emitted from-entity is always
// unprefixed for consistency (spec section 9, second open question).
func stripWrtSelf(p CorpusPath) CorpusPath {
	const prefix = "wrtSelf_"
	s := string(p)
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		if strings.HasPrefix(s[idx+1:], prefix) {
			return CorpusPath(s[:idx+1] + strings.TrimPrefix(s[idx+1:], prefix))
		}
		return p
	}
	return CorpusPath(strings.TrimPrefix(s, prefix))
}

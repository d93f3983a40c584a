package corpus

import "fmt"

// Import is a named reference from one document to another, optionally
// carrying a moniker used to disambiguate same-named symbols.
type Import struct {
	Path    CorpusPath
	Moniker string
}

// ArgumentValue binds a value to a trait's parameter, either by explicit
// name or positionally (in which case ParamName is empty until
// ResolveTraitArguments fills it in).
type ArgumentValue struct {
	ParamName string
	Value     any
	Resolved  *Parameter
}

// TraitReference points at a Trait declaration and carries the arguments
// this particular application binds. ResolvedArguments latches true once
// the indexing pipeline's trait-argument stage has run over Arguments.
type TraitReference struct {
	SimpleReference
	Arguments         []*ArgumentValue
	ResolvedArguments bool
}

func newTraitRef(name string) *TraitReference {
	return &TraitReference{SimpleReference: SimpleReference{Named: name, Expected: ObjTrait}}
}

// HasTrait reports whether refs contains a trait reference matching name,
// returning it if so. Grounded on the original object model's
// "IsIdentifiedBy"/HasTrait-style helpers used throughout entity and
// attribute validation.
func HasTrait(refs []*TraitReference, name string) (*TraitReference, bool) {
	for _, r := range refs {
		if r.NamedReference() == name {
			return r, true
		}
	}
	return nil, false
}

// Purpose declares an intended usage classification for an entity or
// attribute.
type Purpose struct {
	base
	Extends *SimpleReference
}

func (p *Purpose) Visit(v Visitor) bool { return visitLeaf(p, v) }
func (p *Purpose) Validate() []error    { return nil }

// DataType names a primitive or derived data shape, decorated by traits
// (e.g. carrying a dataFormat like "int32" or "guid").
type DataType struct {
	base
	Extends *SimpleReference
	Traits  []*TraitReference
}

func (d *DataType) Visit(v Visitor) bool {
	if !visitEnter(d, v) {
		return false
	}
	for _, t := range d.Traits {
		if t.Explicit() != nil && !t.Explicit().Visit(v) {
			return false
		}
	}
	return visitExit(d, v)
}
func (d *DataType) Validate() []error { return nil }

// HasTrait reports whether this data type carries a trait named name.
func (d *DataType) HasTrait(name string) (*TraitReference, bool) { return HasTrait(d.Traits, name) }

// Parameter is a named, typed argument slot for a trait, with an optional
// default value and a required flag.
type Parameter struct {
	base
	DataType *SimpleReference
	Default  any
	Required bool
}

func (p *Parameter) Visit(v Visitor) bool { return visitLeaf(p, v) }
func (p *Parameter) Validate() []error {
	if p.DataType == nil {
		return []error{fmt.Errorf("parameter %s has no data type", p.name)}
	}
	return nil
}

// Trait is a named, parameterized decoration applicable to entities,
// attributes and data types. Extends models single trait inheritance;
// Appliers names top-level definitions of the trait's own document onto
// which the indexer's trait-applier stage attaches this trait
// automatically (spec section 3 supplement: trait appliers).
type Trait struct {
	base
	Extends    *SimpleReference
	Parameters []*Parameter
	Appliers   []*SimpleReference
}

func (t *Trait) Visit(v Visitor) bool {
	if !visitEnter(t, v) {
		return false
	}
	for _, p := range t.Parameters {
		if !p.Visit(v) {
			return false
		}
	}
	return visitExit(t, v)
}
func (t *Trait) Validate() []error { return nil }

// ParamByName returns the parameter named name, or nil.
func (t *Trait) ParamByName(name string) *Parameter {
	for _, p := range t.Parameters {
		if p.name == name {
			return p
		}
	}
	return nil
}

// TypeAttribute is an attribute whose value is a plain data type.
type TypeAttribute struct {
	base
	DataType *SimpleReference
	Purpose  *SimpleReference
	Traits   []*TraitReference
}

func (a *TypeAttribute) Visit(v Visitor) bool {
	if !visitEnter(a, v) {
		return false
	}
	for _, t := range a.Traits {
		if t.Explicit() != nil && !t.Explicit().Visit(v) {
			return false
		}
	}
	return visitExit(a, v)
}
func (a *TypeAttribute) Validate() []error {
	if a.DataType == nil {
		return []error{fmt.Errorf("type attribute %s has no data type", a.name)}
	}
	return nil
}
func (a *TypeAttribute) HasTrait(name string) (*TraitReference, bool) { return HasTrait(a.Traits, name) }

// EntityAttribute is an attribute whose value is a nested entity, used to
// express a foreign-key-style relationship once resolved.
type EntityAttribute struct {
	base
	Entity  *SimpleReference
	Purpose *SimpleReference
	Traits  []*TraitReference
}

func (a *EntityAttribute) Visit(v Visitor) bool {
	if !visitEnter(a, v) {
		return false
	}
	for _, t := range a.Traits {
		if t.Explicit() != nil && !t.Explicit().Visit(v) {
			return false
		}
	}
	return visitExit(a, v)
}
func (a *EntityAttribute) Validate() []error {
	if a.Entity == nil {
		return []error{fmt.Errorf("entity attribute %s has no entity reference", a.name)}
	}
	return nil
}
func (a *EntityAttribute) HasTrait(name string) (*TraitReference, bool) { return HasTrait(a.Traits, name) }

// AttributeGroup names a reusable bundle of attributes.
type AttributeGroup struct {
	base
	Members *DefinitionList
}

func (g *AttributeGroup) Visit(v Visitor) bool {
	if !visitEnter(g, v) {
		return false
	}
	for _, m := range g.Members.All() {
		if !m.Visit(v) {
			return false
		}
	}
	return visitExit(g, v)
}
func (g *AttributeGroup) Validate() []error { return nil }

// ConstantEntity is a lookup-table-shaped entity whose rows are declared
// inline as constant values rather than loaded from a data source.
type ConstantEntity struct {
	base
	ConstantValues [][]string
	Attributes     *DefinitionList
}

func (c *ConstantEntity) Visit(v Visitor) bool { return visitLeaf(c, v) }
func (c *ConstantEntity) Validate() []error    { return nil }

// Entity is the central declaration: a named, ordered set of attributes,
// optionally extending another entity, decorated by traits.
type Entity struct {
	base
	Extends    *SimpleReference
	Attributes *DefinitionList
	Traits     []*TraitReference
}

func newEntity(name string) *Entity {
	return &Entity{base: base{obj: ObjEntity, name: name}, Attributes: NewDefinitionList()}
}

func (e *Entity) Visit(v Visitor) bool {
	if !visitEnter(e, v) {
		return false
	}
	for _, a := range e.Attributes.All() {
		if !a.Visit(v) {
			return false
		}
	}
	for _, t := range e.Traits {
		if t.Explicit() != nil && !t.Explicit().Visit(v) {
			return false
		}
	}
	return visitExit(e, v)
}
func (e *Entity) Validate() []error { return nil }

// HasTrait reports whether this entity carries a trait named name.
func (e *Entity) HasTrait(name string) (*TraitReference, bool) { return HasTrait(e.Traits, name) }

// AttributeContext is a by-product of resolving an entity: a tree node
// recording how one resolved attribute (or group of attributes) was
// derived. The relationship extractor walks this tree.
type AttributeContext struct {
	base
	Parent     *AttributeContext
	Contents   *DefinitionList
	// AtCorpusPath is the corpus path of the entity the tree was built for.
	// It is set on the root node, where the relationship extractor reads it
	// as the from-entity (spec section 4.8 step 3).
	AtCorpusPath CorpusPath
	// EntityReference is set when this node's definition is a reference to
	// another entity (the case the relationship extractor looks for).
	EntityReference *SimpleReference
	// GeneratedAttributeSetName marks a synthetic node such as
	// "_generatedAttributeSet" the extractor scans ancestors for.
	GeneratedAttributeSetName string
	// IsAddedAttributeIdentity marks a node the relationship extractor
	// treats as an AddedAttributeIdentity leaf inside a generated
	// attribute set -- its NamedReference identifies the foreign-key
	// attribute added by normalization.
	IsAddedAttributeIdentity bool
	// NamedRef is the reference carried by an AddedAttributeIdentity leaf.
	NamedRef string
}

func newAttributeContext(name string) *AttributeContext {
	return &AttributeContext{base: base{obj: ObjAttributeContext, name: name}, Contents: NewDefinitionList()}
}

func (c *AttributeContext) Visit(v Visitor) bool {
	if !visitEnter(c, v) {
		return false
	}
	for _, child := range c.Contents.All() {
		if !child.Visit(v) {
			return false
		}
	}
	return visitExit(c, v)
}
func (c *AttributeContext) Validate() []error { return nil }

// LocalEntityDeclaration declares an entity inline, at the point of use
// (e.g. as an attribute group member), rather than by reference.
type LocalEntityDeclaration struct {
	base
	Entity *Entity
}

func (d *LocalEntityDeclaration) Visit(v Visitor) bool {
	if !visitEnter(d, v) {
		return false
	}
	if d.Entity != nil && !d.Entity.Visit(v) {
		return false
	}
	return visitExit(d, v)
}
func (d *LocalEntityDeclaration) Validate() []error { return nil }

// ReferencedEntityDeclaration declares that an entity is defined elsewhere
// and should be pulled in by corpus path when needed.
type ReferencedEntityDeclaration struct {
	base
	EntityPath CorpusPath
}

func (d *ReferencedEntityDeclaration) Visit(v Visitor) bool { return visitLeaf(d, v) }
func (d *ReferencedEntityDeclaration) Validate() []error    { return nil }

// visitEnter/visitExit/visitLeaf are the three shapes every Visit
// implementation composes from: a node with children calls Enter, visits
// its children in order, then Exit; a childless node just calls Leaf.
func visitEnter(d Definition, v Visitor) bool {
	if v.Pre == nil {
		return true
	}
	return v.Pre(d)
}
func visitExit(d Definition, v Visitor) bool {
	if v.Post == nil {
		return true
	}
	return v.Post(d)
}
func visitLeaf(d Definition, v Visitor) bool {
	if !visitEnter(d, v) {
		return false
	}
	return visitExit(d, v)
}

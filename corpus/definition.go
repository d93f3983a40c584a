package corpus

import "sync/atomic"

// ObjectType tags the polymorphic Definition/Reference sum. Modeled as an
// enum rather than a type hierarchy per the "avoid deep inheritance"
// design note.
type ObjectType int

const (
	// ObjError is used as an ExpectedType placeholder meaning "accept any
	// object type" (the resolver's type gate is skipped).
	ObjError ObjectType = iota
	ObjEntity
	ObjTrait
	ObjPurpose
	ObjDataType
	ObjParameter
	ObjTypeAttribute
	ObjEntityAttribute
	ObjAttributeGroup
	ObjConstantEntity
	ObjAttributeContext
	ObjLocalEntityDeclaration
	ObjReferencedEntityDeclaration
)

func (o ObjectType) String() string {
	switch o {
	case ObjEntity:
		return "entity"
	case ObjTrait:
		return "trait"
	case ObjPurpose:
		return "purpose"
	case ObjDataType:
		return "dataType"
	case ObjParameter:
		return "parameter"
	case ObjTypeAttribute:
		return "typeAttribute"
	case ObjEntityAttribute:
		return "entityAttribute"
	case ObjAttributeGroup:
		return "attributeGroup"
	case ObjConstantEntity:
		return "constantEntity"
	case ObjAttributeContext:
		return "attributeContext"
	case ObjLocalEntityDeclaration:
		return "localEntityDeclaration"
	case ObjReferencedEntityDeclaration:
		return "referencedEntityDeclaration"
	default:
		return "error"
	}
}

// idSeq is the process-wide object id counter backing Corpus.NextID. It
// lives at package scope only for its atomic op; callers should prefer
// Corpus.NextID over calling nextGlobalID directly.
var idSeq int64

func nextGlobalID() int64 { return atomic.AddInt64(&idSeq, 1) }

// assignIDs gives def, and every object reachable from it that doesn't
// already carry one, the next process-unique id (spec section 3: every
// definition carries a process-unique integer identifier). Safe to call
// repeatedly across a re-declare pass following MarkDirty, since an object
// that already has an id is left untouched.
func assignIDs(def Definition) {
	def.Visit(Visitor{Pre: func(d Definition) bool {
		if d.ID() == 0 {
			d.SetID(nextGlobalID())
		}
		return true
	}})
}

// Visitor is invoked for every object reachable from a Visit call. pre is
// called before descending into an object's children, post after. Either
// may be nil. Returning false from either halts the whole walk, and the
// Visit call that started it returns false.
type Visitor struct {
	Pre  func(d Definition) bool
	Post func(d Definition) bool
}

// Definition is the contract every declaration-carrying object in the
// corpus implements: entity, trait, purpose, data type, parameter,
// attribute (type or entity), attribute group, constant entity, attribute
// context, and local/referenced entity declarations.
type Definition interface {
	ID() int64
	SetID(int64)
	ObjectType() ObjectType
	DeclaredName() string
	Doc() *Document
	SetDoc(*Document)
	// Visit walks this object and its children, invoking v.Pre before and
	// v.Post after each. It returns false if any Pre/Post call returned
	// false ("visitation was halted"), matching the common CDM visitor
	// convention where a false return means "stop early".
	Visit(v Visitor) bool
	// Validate reports structural problems that must be fixed before this
	// object is usable (e.g. an entity attribute with no data type).
	Validate() []error
}

// Reference is a named pointer to a Definition, resolved against a witness
// document's import graph. It may instead carry an inline Explicit
// definition, in which case resolution is a no-op.
type Reference interface {
	NamedReference() string
	Explicit() Definition
	ExpectedType() ObjectType
}

// SimpleReference is the common Reference implementation used by every
// concrete definition kind that needs to point at another one.
type SimpleReference struct {
	Named    string
	Inline   Definition
	Expected ObjectType
}

func (r *SimpleReference) NamedReference() string   { return r.Named }
func (r *SimpleReference) Explicit() Definition     { return r.Inline }
func (r *SimpleReference) ExpectedType() ObjectType { return r.Expected }

// base is embedded by every concrete Definition to provide the common
// identifier/object-type/name/document bookkeeping, mirroring mb0-daql's
// dom.Common embedding for Model/Schema/Project.
type base struct {
	id   int64
	obj  ObjectType
	name string
	doc  *Document
}

func (b *base) ID() int64              { return b.id }
func (b *base) SetID(id int64)         { b.id = id }
func (b *base) ObjectType() ObjectType { return b.obj }
func (b *base) DeclaredName() string   { return b.name }
func (b *base) Doc() *Document         { return b.doc }
func (b *base) SetDoc(d *Document)     { b.doc = d }

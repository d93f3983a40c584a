package corpus

import (
	"fmt"

	"github.com/WessZumino/CDM/log"
)

// Indexer drives the multi-stage indexing pipeline over the set of dirty
// documents, per spec section 4.5. Every stage observes the full output
// of prior stages before the next one starts (the pipeline is monotonic);
// resolveReferencesAndValidate lets a caller stop partway, matching the
// stage-through-stage external API from spec section 6.
type Indexer struct {
	library  *DocumentLibrary
	symtab   *SymbolTable
	resolver *Resolver
	resolve  docResolver
	shallow  bool
	events   *eventSink
	log      log.Logger
}

// NewIndexer returns an Indexer over library/symtab/resolver. shallow
// selects shallow-validation mode (reference and type errors downgraded
// to warnings, per spec section 7).
func NewIndexer(library *DocumentLibrary, symtab *SymbolTable, resolver *Resolver, resolve docResolver, shallow bool, events *eventSink, logger log.Logger) *Indexer {
	if logger == nil {
		logger = log.Nop{}
	}
	return &Indexer{library: library, symtab: symtab, resolver: resolver, resolve: resolve, shallow: shallow, events: events, log: logger}
}

// Run executes every stage up to and including stageThrough over the
// current set of dirty (needs-indexing) documents, returning the stage
// actually reached. A document that fails Integrity or Declare is
// excluded from all later stages but does not abort the batch.
func (ix *Indexer) Run(stageThrough ValidationStage) ValidationStage {
	dirty := ix.library.PendingIndexing()
	if len(dirty) == 0 {
		return StageFinished
	}

	ix.prepare(dirty)
	live := ix.integrity(dirty)
	if stageThrough == StageStart {
		return StageStart
	}

	live = ix.declare(live)
	live = ix.linkReferences(live)
	ix.traitAppliers(live)
	if stageThrough == StageTraitAppliers {
		return StageTraitAppliers
	}

	ix.paramTypeCheckPreArgs(live)
	ix.resolveTraitArguments(live)
	if stageThrough == StageMinimumForResolving {
		return StageMinimumForResolving
	}

	ix.resolveTraits(live)
	if stageThrough == StageTraits {
		return StageTraits
	}

	ix.resolveAttributes(live)
	if stageThrough == StageAttributes {
		return StageAttributes
	}

	ix.resolveForeignKeys(live)
	if stageThrough == StageEntityReferences {
		return StageEntityReferences
	}

	ix.finalize(live)
	return StageFinished
}

// prepare clears cached import priorities and declaration maps ahead of a
// fresh pass, forcing Priorities to recompute for every dirty document.
func (ix *Indexer) prepare(docs []*Document) {
	for _, d := range docs {
		d.beginIndexing()
		d.mu.Lock()
		d.priorities = nil
		d.mu.Unlock()
		d.resetDeclarations()
		ix.symtab.ClearDocument(d)
	}
}

// integrity visits every object in each document and calls Validate,
// dropping (excluding from further stages) any document with a failing
// object.
func (ix *Indexer) integrity(docs []*Document) []*Document {
	live := make([]*Document, 0, len(docs))
	for _, d := range docs {
		failed := false
		v := Visitor{Pre: func(def Definition) bool {
			for _, err := range def.Validate() {
				ix.events.emitError(d.Path, err)
				failed = true
				return false
			}
			return true
		}}
		for _, def := range d.Definitions.All() {
			if !def.Visit(v) {
				break
			}
		}
		if !failed {
			live = append(live, d)
		}
	}
	return live
}

// declare computes each definition's dotted declaration path and inserts
// it into the document's internal map, failing the document on collision,
// and registers each top-level name in the corpus symbol table.
func (ix *Indexer) declare(docs []*Document) []*Document {
	live := make([]*Document, 0, len(docs))
docs:
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			def.SetDoc(d)
			assignIDs(def)
			if err := d.declare(def.DeclaredName(), def); err != nil {
				ix.events.emitError(d.Path, err)
				continue docs
			}
			ix.symtab.Register(def.DeclaredName(), d)
		}
		live = append(live, d)
	}
	return live
}

// linkReferences visits every reference-carrying object and resolves it
// with wrt-doc = the current document, recording ReferenceError/Warning
// per spec section 4.5 step 4 without aborting the document.
func (ix *Indexer) linkReferences(docs []*Document) []*Document {
	for _, d := range docs {
		deps := NewDependencySet()
		refs := ix.collectReferences(d)
		for _, ref := range refs {
			if _, err := ix.resolver.Resolve(d, d, ref, deps); err != nil {
				ve := newValidationError(err, d.Path, ix.shallow, true)
				ix.events.emitValidation(ve)
			}
		}
	}
	return docs
}

// collectReferences gathers, via Visit over d's top-level definitions, the
// extends, data-type and entity references of every object reachable from
// them, plus one entity reference per ReferencedEntityDeclaration. Trait
// references are not gathered here; resolveTraitArguments resolves them.
func (ix *Indexer) collectReferences(d *Document) []Reference {
	var refs []Reference
	v := Visitor{Pre: func(def Definition) bool {
		switch t := def.(type) {
		case *DataType:
			if t.Extends != nil {
				refs = append(refs, t.Extends)
			}
		case *TypeAttribute:
			refs = append(refs, t.DataType)
		case *EntityAttribute:
			refs = append(refs, t.Entity)
		case *Entity:
			if t.Extends != nil {
				refs = append(refs, t.Extends)
			}
		case *Trait:
			if t.Extends != nil {
				refs = append(refs, t.Extends)
			}
		case *Parameter:
			if t.DataType != nil {
				refs = append(refs, t.DataType)
			}
		case *ReferencedEntityDeclaration:
			refs = append(refs, &SimpleReference{Named: string(t.EntityPath), Expected: ObjEntity})
		}
		return true
	}}
	for _, def := range d.Definitions.All() {
		def.Visit(v)
	}
	return refs
}

// traitAppliers scans every trait declared at the top level of doc for an
// Appliers list, and elevates the trait onto each top-level definition of
// the same document that an applier names -- the supplemental step this
// engine adds beyond the original pipeline.
func (ix *Indexer) traitAppliers(docs []*Document) {
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			trait, ok := def.(*Trait)
			if !ok || len(trait.Appliers) == 0 {
				continue
			}
			for _, applierRef := range trait.Appliers {
				target := d.Definitions.ByName(applierRef.NamedReference())
				attachTrait(target, trait)
			}
		}
	}
}

// attachTrait appends a TraitReference for trait onto target if target is
// a kind that carries traits and does not already reference it.
func attachTrait(target Definition, trait *Trait) {
	ref := &TraitReference{SimpleReference: SimpleReference{Named: trait.name, Expected: ObjTrait, Inline: trait}}
	switch t := target.(type) {
	case *Entity:
		if _, found := t.HasTrait(trait.name); !found {
			t.Traits = append(t.Traits, ref)
		}
	case *DataType:
		if _, found := t.HasTrait(trait.name); !found {
			t.Traits = append(t.Traits, ref)
		}
	case *TypeAttribute:
		if _, found := t.HasTrait(trait.name); !found {
			t.Traits = append(t.Traits, ref)
		}
	case *EntityAttribute:
		if _, found := t.HasTrait(trait.name); !found {
			t.Traits = append(t.Traits, ref)
		}
	}
}

// paramTypeCheckPreArgs checks each top-level trait parameter's default
// value, when present, against the parameter's declared data type,
// reporting ParameterTypeMismatch through the event sink on failure. Only
// the primitive types coercible knows (string, integer, boolean) are
// checked; a default for a parameter of any other type is accepted as is
// and is not converted to a reference.
func (ix *Indexer) paramTypeCheckPreArgs(docs []*Document) {
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			t, ok := def.(*Trait)
			if !ok {
				continue
			}
			for _, p := range t.Parameters {
				if p.Default == nil {
					continue
				}
				if ve := validateArgument(p, p.Default, true, d.Path, ix.shallow); ve != nil {
					ix.events.emitValidation(*ve)
				}
			}
		}
	}
}

// resolveTraitArguments binds each trait reference's arguments to their
// parameters, running the same type-check as paramTypeCheckPreArgs, and
// latches ResolvedArguments true once done.
func (ix *Indexer) resolveTraitArguments(docs []*Document) {
	for _, d := range docs {
		v := Visitor{Pre: func(def Definition) bool {
			ix.resolveOneDefTraitArgs(d, def)
			return true
		}}
		for _, def := range d.Definitions.All() {
			def.Visit(v)
		}
	}
}

func (ix *Indexer) resolveOneDefTraitArgs(d *Document, def Definition) {
	traitRefs := traitReferencesOf(def)
	for _, tr := range traitRefs {
		if tr.ResolvedArguments {
			continue
		}
		trait, _ := tr.Explicit().(*Trait)
		if trait == nil {
			deps := NewDependencySet()
			resolved, err := ix.resolver.Resolve(d, d, tr, deps)
			if err != nil {
				ix.events.emitValidation(newValidationError(err, d.Path, ix.shallow, true))
				continue
			}
			trait, _ = resolved.(*Trait)
		}
		if trait == nil {
			continue
		}
		for i, arg := range tr.Arguments {
			param := arg.Resolved
			if param == nil && arg.ParamName != "" {
				param = trait.ParamByName(arg.ParamName)
			}
			if param == nil && i < len(trait.Parameters) {
				param = trait.Parameters[i]
				arg.ParamName = param.name
			}
			if param == nil {
				continue
			}
			arg.Resolved = param
			if ve := validateArgument(param, arg.Value, true, d.Path, ix.shallow); ve != nil {
				ix.events.emitValidation(*ve)
			}
		}
		for _, p := range trait.Parameters {
			if !p.Required {
				continue
			}
			if _, bound := findArgFor(tr.Arguments, p); !bound {
				ix.events.emitValidation(newValidationError(
					fmt.Errorf("%w: %s", ErrMissingRequiredArgument, p.name), d.Path, ix.shallow, true))
			}
		}
		tr.ResolvedArguments = true
	}
}

func findArgFor(args []*ArgumentValue, p *Parameter) (*ArgumentValue, bool) {
	for _, a := range args {
		if a.Resolved == p || a.ParamName == p.name {
			return a, true
		}
	}
	return nil, false
}

// traitReferencesOf returns the []*TraitReference carried by def, for the
// concrete kinds that carry traits.
func traitReferencesOf(def Definition) []*TraitReference {
	switch t := def.(type) {
	case *Entity:
		return t.Traits
	case *DataType:
		return t.Traits
	case *TypeAttribute:
		return t.Traits
	case *EntityAttribute:
		return t.Traits
	default:
		return nil
	}
}

// resolveTraits resolves the extends reference of every trait declared at
// the top level of each document. Traits nested inside other definitions
// are not visited, and an extends chain is followed one link only.
func (ix *Indexer) resolveTraits(docs []*Document) {
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			t, ok := def.(*Trait)
			if !ok || t.Extends == nil || t.Extends.Explicit() != nil {
				continue
			}
			deps := NewDependencySet()
			resolved, err := ix.resolver.Resolve(d, d, t.Extends, deps)
			if err != nil {
				ix.events.emitValidation(newValidationError(err, d.Path, ix.shallow, true))
				continue
			}
			t.Extends.Inline = resolved
		}
	}
}

// resolveAttributes resolves the extends reference and each direct
// attribute's data-type or entity reference of every entity declared at
// the top level of each document. Attribute groups, including top-level
// ones, are not resolved by this pass.
func (ix *Indexer) resolveAttributes(docs []*Document) {
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			e, ok := def.(*Entity)
			if !ok {
				continue
			}
			deps := NewDependencySet()
			if e.Extends != nil && e.Extends.Explicit() == nil {
				if resolved, err := ix.resolver.Resolve(d, d, e.Extends, deps); err == nil {
					e.Extends.Inline = resolved
				} else {
					ix.events.emitValidation(newValidationError(err, d.Path, ix.shallow, true))
				}
			}
			for _, a := range e.Attributes.All() {
				ix.resolveAttribute(d, a, deps)
			}
		}
	}
}

func (ix *Indexer) resolveAttribute(d *Document, a Definition, deps *DependencySet) {
	switch t := a.(type) {
	case *TypeAttribute:
		if t.DataType != nil && t.DataType.Explicit() == nil {
			if resolved, err := ix.resolver.Resolve(d, d, t.DataType, deps); err == nil {
				t.DataType.Inline = resolved
			} else {
				ix.events.emitValidation(newValidationError(err, d.Path, ix.shallow, true))
			}
		}
	case *EntityAttribute:
		if t.Entity != nil && t.Entity.Explicit() == nil {
			if resolved, err := ix.resolver.Resolve(d, d, t.Entity, deps); err == nil {
				t.Entity.Inline = resolved
			} else {
				ix.events.emitValidation(newValidationError(err, d.Path, ix.shallow, true))
			}
		}
	}
}

// resolveForeignKeys checks every resolved entity for is.identifiedBy and
// reports MissingPrimaryKey (a warning, per spec section 7) when absent.
// The relationship extractor (relate.go) does the actual edge-building;
// this stage only validates presence during indexing.
func (ix *Indexer) resolveForeignKeys(docs []*Document) {
	for _, d := range docs {
		for _, def := range d.Definitions.All() {
			e, ok := def.(*Entity)
			if !ok {
				continue
			}
			if _, found := e.HasTrait("is.identifiedBy"); !found {
				ix.events.emitWarning(d.Path, fmt.Errorf("%w: %s", ErrMissingPrimaryKey, e.name))
			}
		}
	}
}

// finalize flips each document's indexing flags and marks it indexed in
// the library.
func (ix *Indexer) finalize(docs []*Document) {
	for _, d := range docs {
		d.finishIndexing()
		ix.library.MarkAsIndexed(d)
	}
}

package corpus

import (
	"encoding/json"
	"fmt"
)

// Persistence turns raw document bytes into a *Document; MaterializeJSON is
// the one format this package ships, matching spec section 6's persistence
// contract ("materialize(bytes, format) -> document"; the inverse is out of
// scope). No example repo in the retrieved pack ships a CDM-JSON-shaped
// schema parser, so this is hand-rolled against encoding/json -- the
// justified standard-library exception recorded in DESIGN.md.

// wireImport/wireArgument/wireTraitRef/wireParameter/wireAttribute/wireDef
// mirror the on-disk JSON shape one level removed from the corpus's own
// Definition types, so decoding can proceed before any document (and
// therefore any resolver context) exists.
type wireImport struct {
	CorpusPath string `json:"corpusPath"`
	Moniker    string `json:"moniker,omitempty"`
}

type wireArgument struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value"`
}

type wireTraitRef struct {
	TraitReference string         `json:"traitReference"`
	Arguments      []wireArgument `json:"arguments,omitempty"`
}

type wireParameter struct {
	Name         string `json:"name"`
	DataType     string `json:"dataType,omitempty"`
	DefaultValue any    `json:"defaultValue,omitempty"`
	Required     bool   `json:"required,omitempty"`
}

type wireAttribute struct {
	Name     string         `json:"name"`
	Kind     string         `json:"attributeKind"` // "type" | "entity"
	DataType string         `json:"dataType,omitempty"`
	Entity   string         `json:"entity,omitempty"`
	Purpose  string         `json:"purpose,omitempty"`
	Traits   []wireTraitRef `json:"appliedTraits,omitempty"`
}

type wireDefinition struct {
	Type       string          `json:"$type"` // entity|trait|purpose|dataType|attributeGroup
	Name       string          `json:"name"`
	Extends    string          `json:"extends,omitempty"`
	Traits     []wireTraitRef  `json:"appliedTraits,omitempty"`
	Attributes []wireAttribute `json:"hasAttributes,omitempty"`
	Parameters []wireParameter `json:"parameters,omitempty"`
	Appliers   []string        `json:"exhibitsTraits,omitempty"`
}

type wireDocument struct {
	Imports     []wireImport     `json:"imports,omitempty"`
	Definitions []wireDefinition `json:"definitions,omitempty"`
}

// MaterializeJSON decodes data as a wireDocument and builds the
// corresponding *Document, satisfying the ParseFunc contract the loader
// expects.
func MaterializeJSON(path CorpusPath, data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	doc := NewDocument(string(lastSegment(string(path))), path)
	for _, imp := range w.Imports {
		absolute, err := Rebase(parentFolder(path), namespaceOf(path), imp.CorpusPath)
		if err != nil {
			return nil, err
		}
		doc.Imports = append(doc.Imports, Import{Path: absolute, Moniker: imp.Moniker})
	}
	for _, wd := range w.Definitions {
		def, err := materializeDefinition(wd)
		if err != nil {
			return nil, err
		}
		doc.Definitions.Insert(def)
	}
	return doc, nil
}

func materializeDefinition(wd wireDefinition) (Definition, error) {
	switch wd.Type {
	case "entity":
		e := newEntity(wd.Name)
		if wd.Extends != "" {
			e.Extends = &SimpleReference{Named: wd.Extends, Expected: ObjEntity}
		}
		e.Traits = materializeTraitRefs(wd.Traits)
		for _, wa := range wd.Attributes {
			a, err := materializeAttribute(wa)
			if err != nil {
				return nil, err
			}
			e.Attributes.Insert(a)
		}
		return e, nil
	case "trait":
		t := &Trait{base: base{obj: ObjTrait, name: wd.Name}}
		if wd.Extends != "" {
			t.Extends = &SimpleReference{Named: wd.Extends, Expected: ObjTrait}
		}
		for _, appliesTo := range wd.Appliers {
			t.Appliers = append(t.Appliers, &SimpleReference{Named: appliesTo, Expected: ObjError})
		}
		for _, wp := range wd.Parameters {
			p := &Parameter{base: base{obj: ObjParameter, name: wp.Name}, Default: wp.DefaultValue, Required: wp.Required}
			if wp.DataType != "" {
				p.DataType = &SimpleReference{Named: wp.DataType, Expected: ObjError}
			}
			t.Parameters = append(t.Parameters, p)
		}
		return t, nil
	case "purpose":
		p := &Purpose{base: base{obj: ObjPurpose, name: wd.Name}}
		if wd.Extends != "" {
			p.Extends = &SimpleReference{Named: wd.Extends, Expected: ObjPurpose}
		}
		return p, nil
	case "dataType":
		d := &DataType{base: base{obj: ObjDataType, name: wd.Name}}
		if wd.Extends != "" {
			d.Extends = &SimpleReference{Named: wd.Extends, Expected: ObjDataType}
		}
		d.Traits = materializeTraitRefs(wd.Traits)
		return d, nil
	case "attributeGroup":
		g := &AttributeGroup{base: base{obj: ObjAttributeGroup, name: wd.Name}, Members: NewDefinitionList()}
		for _, wa := range wd.Attributes {
			a, err := materializeAttribute(wa)
			if err != nil {
				return nil, err
			}
			g.Members.Insert(a)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown definition type %q", ErrParse, wd.Type)
	}
}

func materializeAttribute(wa wireAttribute) (Definition, error) {
	var purpose *SimpleReference
	if wa.Purpose != "" {
		purpose = &SimpleReference{Named: wa.Purpose, Expected: ObjPurpose}
	}
	switch wa.Kind {
	case "entity":
		return &EntityAttribute{
			base:    base{obj: ObjEntityAttribute, name: wa.Name},
			Entity:  &SimpleReference{Named: wa.Entity, Expected: ObjEntity},
			Purpose: purpose,
			Traits:  materializeTraitRefs(wa.Traits),
		}, nil
	default:
		return &TypeAttribute{
			base:     base{obj: ObjTypeAttribute, name: wa.Name},
			DataType: &SimpleReference{Named: wa.DataType, Expected: ObjDataType},
			Purpose:  purpose,
			Traits:   materializeTraitRefs(wa.Traits),
		}, nil
	}
}

func materializeTraitRefs(traits []wireTraitRef) []*TraitReference {
	out := make([]*TraitReference, 0, len(traits))
	for _, wt := range traits {
		tr := newTraitRef(wt.TraitReference)
		for _, wa := range wt.Arguments {
			tr.Arguments = append(tr.Arguments, &ArgumentValue{ParamName: wa.Name, Value: wa.Value})
		}
		out = append(out, tr)
	}
	return out
}

// parentFolder and namespaceOf split a document's own corpus path into the
// pieces Rebase needs to resolve relative imports declared alongside it.
func parentFolder(docPath CorpusPath) CorpusPath {
	rest := string(docPath)
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			rest = rest[i+1:]
			break
		}
	}
	if idx := lastSlash(rest); idx >= 0 {
		return CorpusPath(rest[:idx])
	}
	return "/"
}

func namespaceOf(docPath CorpusPath) string {
	s := string(docPath)
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i]
		}
		if s[i] == '/' {
			break
		}
	}
	return ""
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

package corpus

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationStage is the ordered enum a caller drives resolveReferencesAndValidate
// through: Start, TraitAppliers, MinimumForResolving, Traits, Attributes,
// EntityReferences, Finished, Error.
type ValidationStage int

const (
	StageStart ValidationStage = iota
	StageTraitAppliers
	StageMinimumForResolving
	StageTraits
	StageAttributes
	StageEntityReferences
	StageFinished
	StageError
)

func (s ValidationStage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageTraitAppliers:
		return "traitAppliers"
	case StageMinimumForResolving:
		return "minimumForResolving"
	case StageTraits:
		return "traits"
	case StageAttributes:
		return "attributes"
	case StageEntityReferences:
		return "entityReferences"
	case StageFinished:
		return "finished"
	default:
		return "error"
	}
}

// argumentBinding is the ozzo-validation subject for one resolved trait
// argument: Required and coercibility are checked with the same library
// Starford96-kenaz uses for its config structs (internal/config.go),
// generalized from static config fields to a per-call, per-parameter check.
type argumentBinding struct {
	param    *Parameter
	value    any
	provided bool
}

// Validate reports MissingRequiredArgument if the parameter is required and
// no value (nor default) was supplied, and ParameterTypeMismatch if a
// supplied value cannot be coerced to the parameter's declared data type's
// Go representation.
func (b argumentBinding) Validate() error {
	if err := validation.Validate(b.value, validation.By(func(any) error {
		if b.param.Required && !b.provided && b.param.Default == nil {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArgument, b.param.name)
		}
		return nil
	})); err != nil {
		return err
	}
	if b.provided && !coercible(b.value, b.param) {
		return fmt.Errorf("%w: argument for %s", ErrParameterTypeMismatch, b.param.name)
	}
	return nil
}

// coercible reports whether value is an acceptable Go representation for
// param's declared data type. Primitive coercion only: for a parameter
// whose data type is any name other than string, int64/integer or
// boolean, every value is accepted without a check.
func coercible(value any, param *Parameter) bool {
	if param.DataType == nil {
		return true
	}
	switch param.DataType.NamedReference() {
	case "string":
		_, ok := value.(string)
		return ok
	case "int64", "integer":
		switch value.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	default:
		return true // any other type name: not checked
	}
}

// validateArgument runs argumentBinding.Validate and wraps a non-nil error
// as a ValidationError at path, downgraded to a warning under shallow
// validation (both failure kinds are downgradable per spec section 7).
func validateArgument(param *Parameter, value any, provided bool, path CorpusPath, shallow bool) *ValidationError {
	b := argumentBinding{param: param, value: value, provided: provided}
	if err := b.Validate(); err != nil {
		ve := newValidationError(err, path, shallow, true)
		return &ve
	}
	return nil
}

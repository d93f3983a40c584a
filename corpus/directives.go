package corpus

import (
	"sort"
	"strings"
)

// Recognized directive flags (spec section 6).
const (
	DirectiveNormalized    = "normalized"
	DirectiveReferenceOnly = "referenceOnly"
	DirectiveStructured    = "structured"
	DirectiveVirtual       = "virtual"
)

// Directives is a set of resolution-shape flags, rendered to a deterministic
// tag used inside cache keys. Grounded on the original object model's
// AttributeResolutionDirectiveSet: a named set of flags with copy-on-write
// semantics so a caller can derive one directive set from another without
// mutating the original.
type Directives struct {
	set map[string]struct{}
}

// NewDirectives returns a Directives containing exactly the given flags.
func NewDirectives(flags ...string) Directives {
	d := Directives{set: make(map[string]struct{}, len(flags))}
	for _, f := range flags {
		d.set[f] = struct{}{}
	}
	return d
}

// DefaultDirectives is the directive set spec section 6 names as the
// corpus-wide default: {normalized, referenceOnly}.
func DefaultDirectives() Directives {
	return NewDirectives(DirectiveNormalized, DirectiveReferenceOnly)
}

// Has reports whether flag is set.
func (d Directives) Has(flag string) bool {
	_, ok := d.set[flag]
	return ok
}

// Add returns a copy of d with flag added.
func (d Directives) Add(flag string) Directives {
	c := d.Copy()
	c.set[flag] = struct{}{}
	return c
}

// Remove returns a copy of d with flag removed.
func (d Directives) Remove(flag string) Directives {
	c := d.Copy()
	delete(c.set, flag)
	return c
}

// Copy returns an independent copy of d.
func (d Directives) Copy() Directives {
	c := Directives{set: make(map[string]struct{}, len(d.set))}
	for f := range d.set {
		c.set[f] = struct{}{}
	}
	return c
}

// Tag renders the directive set as a deterministic, sorted, hyphen-joined
// string suitable for embedding in a cache key.
func (d Directives) Tag() string {
	if len(d.set) == 0 {
		return ""
	}
	flags := make([]string, 0, len(d.set))
	for f := range d.set {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return strings.Join(flags, "-")
}

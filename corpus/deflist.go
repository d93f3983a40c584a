package corpus

// DefinitionList is an ordered, mutable collection of definitions. It backs
// a Document's top-level declarations and an Entity's attribute list,
// preserving declaration order for deterministic Visit traversal and for
// the "closest ancestor first" scan the relationship extractor performs
// over attribute-context nodes. Grounded on the original object model's
// CdmCollection, generalized down to what this engine needs: append,
// indexed removal, and lookup by identity.
type DefinitionList struct {
	items []Definition
}

// NewDefinitionList returns an empty list, optionally seeded with items.
func NewDefinitionList(items ...Definition) *DefinitionList {
	return &DefinitionList{items: append([]Definition(nil), items...)}
}

// Len returns the number of items in the list.
func (l *DefinitionList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the item at index i.
func (l *DefinitionList) At(i int) Definition { return l.items[i] }

// All returns the items in declaration order. The returned slice must not
// be mutated by the caller.
func (l *DefinitionList) All() []Definition {
	if l == nil {
		return nil
	}
	return l.items
}

// Insert appends d to the end of the list.
func (l *DefinitionList) Insert(d Definition) {
	l.items = append(l.items, d)
}

// IndexOf returns the index of d by identity, or -1 if not present.
func (l *DefinitionList) IndexOf(d Definition) int {
	for i, item := range l.items {
		if item == d {
			return i
		}
	}
	return -1
}

// RemoveAt deletes the item at index i, preserving order.
func (l *DefinitionList) RemoveAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// Remove deletes d by identity if present, reporting whether it was found.
func (l *DefinitionList) Remove(d Definition) bool {
	i := l.IndexOf(d)
	if i < 0 {
		return false
	}
	l.RemoveAt(i)
	return true
}

// ByName returns the first item whose DeclaredName matches name, or nil.
func (l *DefinitionList) ByName(name string) Definition {
	for _, item := range l.items {
		if item.DeclaredName() == name {
			return item
		}
	}
	return nil
}

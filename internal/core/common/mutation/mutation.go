// Package mutation diffs patch values against persisted state.
//
// Every Set* helper assigns the new value only when it differs from the
// current one and records the field name, so callers can tell a real
// mutation from a no-op before touching storage.
package mutation

// Tracker collects the names of fields that changed.
type Tracker struct {
	fields []string
}

func (t *Tracker) Changed() bool {
	return len(t.fields) > 0
}

// Fields returns the changed field names in the order they were applied.
func (t *Tracker) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Mark records field as changed without comparing values.
func (t *Tracker) Mark(field string) {
	t.fields = append(t.fields, field)
}

// Set assigns next to *current when they differ.
func Set[T comparable](t *Tracker, field string, current *T, next T) {
	if *current == next {
		return
	}
	*current = next
	t.Mark(field)
}

// SetNullable assigns next to *current when they differ, treating two nil
// pointers as equal. A nil next clears the current value.
func SetNullable[T comparable](t *Tracker, field string, current **T, next *T) {
	if EqualPtr(*current, next) {
		return
	}
	if next == nil {
		*current = nil
	} else {
		v := *next
		*current = &v
	}
	t.Mark(field)
}

// SetIfPresent treats a nil next as "not part of the patch".
func SetIfPresent[T comparable](t *Tracker, field string, current *T, next *T) {
	if next == nil {
		return
	}
	Set(t, field, current, *next)
}

// EqualPtr compares two optional values; nil only equals nil.
func EqualPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SameSet reports whether a and b hold the same members regardless of order
// and duplicates.
func SameSet[T comparable](a, b []T) bool {
	left := make(map[T]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[T]struct{}, len(b))
	for _, v := range b {
		if _, ok := left[v]; !ok {
			return false
		}
		right[v] = struct{}{}
	}
	return len(left) == len(right)
}

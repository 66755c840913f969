package model

// MarkType is a compiled mark spec. Rank orders marks inside a set and
// decides nesting when serialized.
type MarkType struct {
	Name   string
	Schema *Schema
	Spec   *MarkSpec
	Rank   int
}

// Create builds a mark with defaults filled in.
func (mt *MarkType) Create(attrs map[string]any) *Mark {
	var out map[string]any
	if len(mt.Spec.Attrs) > 0 {
		out = make(map[string]any, len(mt.Spec.Attrs))
		for name, spec := range mt.Spec.Attrs {
			if v, ok := attrs[name]; ok {
				out[name] = v
			} else {
				out[name] = spec.Default
			}
		}
	}
	return &Mark{Type: mt, Attrs: out}
}

// Inclusive reports whether text typed at the end of the mark inherits it.
func (mt *MarkType) Inclusive() bool {
	return mt.Spec.Inclusive == nil || *mt.Spec.Inclusive
}

// IsInSet returns the mark of this type in the set, if any.
func (mt *MarkType) IsInSet(set []*Mark) *Mark {
	for _, m := range set {
		if m.Type == mt {
			return m
		}
	}
	return nil
}

// RemoveFromSet drops every mark of this type from the set.
func (mt *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	var out []*Mark
	for _, m := range set {
		if m.Type != mt {
			out = append(out, m)
		}
	}
	return out
}

// Mark is a text-level attribute such as bold or link.
type Mark struct {
	Type  *MarkType
	Attrs map[string]any
}

func (m *Mark) Eq(other *Mark) bool {
	return m == other || (other != nil && m.Type == other.Type && attrsEqual(m.Attrs, other.Attrs))
}

// AddToSet returns a set with this mark added in rank order. A mark of the
// same type is replaced.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	out := make([]*Mark, 0, len(set)+1)
	placed := false
	for _, other := range set {
		if m.Eq(other) {
			return set
		}
		if other.Type == m.Type {
			continue
		}
		if !placed && other.Type.Rank > m.Type.Rank {
			out = append(out, m)
			placed = true
		}
		out = append(out, other)
	}
	if !placed {
		out = append(out, m)
	}
	return out
}

// RemoveFromSet drops this exact mark from the set.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	var out []*Mark
	for _, other := range set {
		if !m.Eq(other) {
			out = append(out, other)
		}
	}
	return out
}

// IsInSet reports whether an equal mark is in the set.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// SameMarkSet reports whether two sorted sets hold equal marks.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

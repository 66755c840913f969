package transform

import (
	"blockEditor/backend/internal/model"
)

// Transform accumulates steps against a document.
type Transform struct {
	Doc     *model.Node
	Steps   []Step
	Docs    []*model.Node
	Mapping *Mapping
}

func New(doc *model.Node) *Transform {
	return &Transform{Doc: doc, Mapping: &Mapping{}}
}

// BeforeDoc is the document the transform started from.
func (t *Transform) BeforeDoc() *model.Node {
	if len(t.Docs) > 0 {
		return t.Docs[0]
	}
	return t.Doc
}

// DocChanged reports whether any step was applied.
func (t *Transform) DocChanged() bool { return len(t.Steps) > 0 }

// Step applies a step, leaving the transform untouched on failure.
func (t *Transform) Step(step Step) error {
	doc, err := step.Apply(t.Doc)
	if err != nil {
		return err
	}
	t.Docs = append(t.Docs, t.Doc)
	t.Steps = append(t.Steps, step)
	t.Mapping.AppendMap(step.GetMap())
	t.Doc = doc
	return nil
}

// Replace replaces a range with a slice that must fit it.
func (t *Transform) Replace(from, to int, slice *model.Slice) error {
	if from == to && slice.Size() == 0 {
		return nil
	}
	return t.Step(NewReplaceStep(from, to, slice, false))
}

// ReplaceWith replaces a range with nodes.
func (t *Transform) ReplaceWith(from, to int, nodes ...*model.Node) error {
	return t.Replace(from, to, model.NewSlice(model.NewFragment(nodes...), 0, 0))
}

// Insert inserts nodes at pos.
func (t *Transform) Insert(pos int, nodes ...*model.Node) error {
	return t.ReplaceWith(pos, pos, nodes...)
}

// Delete removes a range.
func (t *Transform) Delete(from, to int) error {
	return t.Replace(from, to, model.EmptySlice)
}

// AddMark adds a mark to the inline content in a range.
func (t *Transform) AddMark(from, to int, mark *model.Mark) error {
	if from >= to {
		return nil
	}
	return t.Step(&AddMarkStep{From: from, To: to, Mark: mark})
}

// RemoveMark removes marks of a type from a range.
func (t *Transform) RemoveMark(from, to int, mt *model.MarkType) error {
	if from >= to {
		return nil
	}
	return t.Step(&RemoveMarkStep{From: from, To: to, Type: mt})
}

// SetNodeMarkup changes the type and attributes of the node at pos, keeping
// its content.
func (t *Transform) SetNodeMarkup(pos int, nt *model.NodeType, attrs map[string]any) error {
	node := t.Doc.NodeAt(pos)
	if node == nil {
		return errNoNodeAt
	}
	if nt == nil {
		nt = node.Type
	}
	if attrs == nil && nt == node.Type {
		attrs = node.Attrs
	}
	newNode := nt.Create(attrs, nil, node.Marks)
	if node.IsLeaf() {
		return t.ReplaceWith(pos, pos+node.NodeSize(), newNode)
	}
	if !nt.ValidContent(node.Content) {
		return errInvalidMarkup
	}
	return t.Step(NewReplaceAroundStep(pos, pos+node.NodeSize(), pos+1, pos+node.NodeSize()-1,
		model.NewSlice(model.NewFragment(newNode), 0, 0), 1, true))
}

// Split splits the node at pos, depth levels up. typesAfter optionally gives
// the type of each new node, outermost first.
func (t *Transform) Split(pos, depth int, typesAfter []*model.NodeType) error {
	rPos, err := t.Doc.Resolve(pos)
	if err != nil {
		return err
	}
	before, after := model.EmptyFragment, model.EmptyFragment
	for d, e, i := rPos.Depth, rPos.Depth-depth, depth-1; d > e; d, i = d-1, i-1 {
		before = model.NewFragment(rPos.Node(d).Copy(before))
		if i < len(typesAfter) && typesAfter[i] != nil {
			after = model.NewFragment(typesAfter[i].Create(nil, after, nil))
		} else {
			after = model.NewFragment(rPos.Node(d).Copy(after))
		}
	}
	return t.Step(NewReplaceStep(pos, pos, model.NewSlice(before.Append(after), depth, depth), true))
}

// Join joins the blocks around pos, depth levels deep.
func (t *Transform) Join(pos, depth int) error {
	return t.Step(NewReplaceStep(pos-depth, pos+depth, model.EmptySlice, true))
}

// Lift moves the content of a range out of its parents, up to target depth,
// splitting the parents when the range does not cover them.
func (t *Transform) Lift(r *model.NodeRange, target int) error {
	from, to, depth := r.From, r.To, r.Depth

	gapStart, gapEnd := from.Before(depth+1), to.After(depth+1)
	start, end := gapStart, gapEnd

	before := model.EmptyFragment
	openStart := 0
	splitting := false
	for d := depth; d > target; d-- {
		if splitting || from.Index(d) > 0 {
			splitting = true
			before = model.NewFragment(from.Node(d).Copy(before))
			openStart++
		} else {
			start--
		}
	}
	after := model.EmptyFragment
	openEnd := 0
	splitting = false
	for d := depth; d > target; d-- {
		if splitting || to.After(d+1) < to.End(d) {
			splitting = true
			after = model.NewFragment(to.Node(d).Copy(after))
			openEnd++
		} else {
			end++
		}
	}
	return t.Step(NewReplaceAroundStep(start, end, gapStart, gapEnd,
		model.NewSlice(before.Append(after), openStart, openEnd), before.Size()-openStart, true))
}

// Wrapper names a node type to wrap content in.
type Wrapper struct {
	Type  *model.NodeType
	Attrs map[string]any
}

// Wrap wraps the range in the given wrappers, outermost first.
func (t *Transform) Wrap(r *model.NodeRange, wrappers []Wrapper) error {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		content = model.NewFragment(wrappers[i].Type.Create(wrappers[i].Attrs, content, nil))
	}
	start, end := r.Start(), r.End()
	return t.Step(NewReplaceAroundStep(start, end, start, end, model.NewSlice(content, 0, 0), len(wrappers), true))
}

// SetBlockType converts every textblock in the range to nt.
func (t *Transform) SetBlockType(from, to int, nt *model.NodeType, attrs map[string]any) error {
	if !nt.IsTextblock() {
		return errInvalidMarkup
	}
	mapFrom := len(t.Steps)
	var firstErr error
	t.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if firstErr != nil {
			return false
		}
		if !node.IsTextblock() || node.HasMarkup(nt, attrs, node.Marks) {
			return true
		}
		mapping := t.Mapping.Slice(mapFrom)
		start := mapping.Map(pos, 1)
		if err := t.ClearIncompatible(start, nt); err != nil {
			firstErr = err
			return false
		}
		mapping = t.Mapping.Slice(mapFrom)
		start = mapping.Map(pos, 1)
		current := t.Doc.NodeAt(start)
		if current == nil {
			return false
		}
		end := start + current.NodeSize()
		firstErr = t.Step(NewReplaceAroundStep(start, end, start+1, end-1,
			model.NewSlice(model.NewFragment(nt.Create(attrs, nil, current.Marks)), 0, 0), 1, true))
		return false
	})
	return firstErr
}

// ClearIncompatible removes content of the node at pos that a node of type
// parentType could not hold: disallowed marks and child nodes. Hard breaks
// become newlines in code blocks.
func (t *Transform) ClearIncompatible(pos int, parentType *model.NodeType) error {
	node := t.Doc.NodeAt(pos)
	if node == nil {
		return errNoNodeAt
	}
	type repl struct {
		from, to int
		text     string
	}
	var dels []repl
	var markRanges []struct {
		from, to int
		mt       *model.MarkType
	}
	cur := pos + 1
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		end := cur + child.NodeSize()
		if !parentType.AllowsChild(child.Type) {
			text := ""
			if parentType.IsCode() && child.Type.Name == "hardBreak" {
				text = "\n"
			}
			dels = append(dels, repl{cur, end, text})
		} else {
			for _, m := range child.Marks {
				if !parentType.AllowsMarkType(m.Type) {
					markRanges = append(markRanges, struct {
						from, to int
						mt       *model.MarkType
					}{cur, end, m.Type})
				}
			}
		}
		cur = end
	}
	for _, mr := range markRanges {
		if err := t.RemoveMark(mr.from, mr.to, mr.mt); err != nil {
			return err
		}
	}
	for i := len(dels) - 1; i >= 0; i-- {
		d := dels[i]
		var err error
		if d.text != "" {
			err = t.ReplaceWith(d.from, d.to, t.Doc.Type.Schema.Text(d.text, nil))
		} else {
			err = t.Delete(d.from, d.to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

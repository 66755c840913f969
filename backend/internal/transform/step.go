// Package transform implements document changes as first-class steps that
// can be applied, mapped and encoded.
package transform

import (
	"errors"

	"blockEditor/backend/internal/model"
)

var ErrStructureGap = errors.New("structure replace would overwrite content")

// Step is one atomic change to a document.
type Step interface {
	// Apply returns the changed document or an error when the step does not
	// fit the document.
	Apply(doc *model.Node) (*model.Node, error)
	// GetMap describes how positions move across the step.
	GetMap() *StepMap
}

// ReplaceStep replaces a range with a slice.
type ReplaceStep struct {
	From, To  int
	Slice     *model.Slice
	Structure bool
}

func NewReplaceStep(from, to int, slice *model.Slice, structure bool) *ReplaceStep {
	return &ReplaceStep{From: from, To: to, Slice: slice, Structure: structure}
}

func (s *ReplaceStep) Apply(doc *model.Node) (*model.Node, error) {
	if s.Structure && contentBetween(doc, s.From, s.To) {
		return nil, ErrStructureGap
	}
	return doc.Replace(s.From, s.To, s.Slice)
}

func (s *ReplaceStep) GetMap() *StepMap {
	return NewStepMap([]int{s.From, s.To - s.From, s.Slice.Size()})
}

// ReplaceAroundStep replaces a range while keeping the gap between GapFrom
// and GapTo, which is re-inserted at Insert inside the slice. It is used for
// wrapping, lifting and changing node markup.
type ReplaceAroundStep struct {
	From, To       int
	GapFrom, GapTo int
	Slice          *model.Slice
	Insert         int
	Structure      bool
}

func NewReplaceAroundStep(from, to, gapFrom, gapTo int, slice *model.Slice, insert int, structure bool) *ReplaceAroundStep {
	return &ReplaceAroundStep{From: from, To: to, GapFrom: gapFrom, GapTo: gapTo, Slice: slice, Insert: insert, Structure: structure}
}

func (s *ReplaceAroundStep) Apply(doc *model.Node) (*model.Node, error) {
	if s.Structure && (contentBetween(doc, s.From, s.GapFrom) || contentBetween(doc, s.GapTo, s.To)) {
		return nil, ErrStructureGap
	}
	gap, err := doc.Slice(s.GapFrom, s.GapTo)
	if err != nil {
		return nil, err
	}
	if gap.OpenStart != 0 || gap.OpenEnd != 0 {
		return nil, ErrStructureGap
	}
	inserted := s.Slice.InsertAt(s.Insert, gap.Content)
	if inserted == nil {
		return nil, errors.New("content does not fit in gap")
	}
	return doc.Replace(s.From, s.To, inserted)
}

func (s *ReplaceAroundStep) GetMap() *StepMap {
	return NewStepMap([]int{
		s.From, s.GapFrom - s.From, s.Insert,
		s.GapTo, s.To - s.GapTo, s.Slice.Size() - s.Insert,
	})
}

// contentBetween reports whether the range holds anything besides node
// boundaries.
func contentBetween(doc *model.Node, from, to int) bool {
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return true
	}
	dist := to - from
	depth := rFrom.Depth
	for dist > 0 && depth > 0 && rFrom.IndexAfter(depth) == rFrom.Node(depth).ChildCount() {
		depth--
		dist--
	}
	if dist > 0 {
		next := rFrom.Node(depth).MaybeChild(rFrom.IndexAfter(depth))
		for dist > 0 {
			if next == nil || next.IsLeaf() {
				return true
			}
			next = next.FirstChild()
			dist--
		}
	}
	return false
}

// AddMarkStep adds a mark to all inline content in a range.
type AddMarkStep struct {
	From, To int
	Mark     *model.Mark
}

func (s *AddMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarkChange(doc, s.From, s.To, func(node, parent *model.Node) *model.Node {
		if !node.IsAtom() || !parent.Type.AllowsMarkType(s.Mark.Type) {
			return node
		}
		return node.Mark(s.Mark.AddToSet(node.Marks))
	})
}

func (s *AddMarkStep) GetMap() *StepMap { return EmptyStepMap }

// RemoveMarkStep removes marks of a type from all inline content in a range.
type RemoveMarkStep struct {
	From, To int
	Type     *model.MarkType
}

func (s *RemoveMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarkChange(doc, s.From, s.To, func(node, _ *model.Node) *model.Node {
		return node.Mark(s.Type.RemoveFromSet(node.Marks))
	})
}

func (s *RemoveMarkStep) GetMap() *StepMap { return EmptyStepMap }

func applyMarkChange(doc *model.Node, from, to int, f func(node, parent *model.Node) *model.Node) (*model.Node, error) {
	old, err := doc.Slice(from, to)
	if err != nil {
		return nil, err
	}
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return nil, err
	}
	parent := rFrom.Node(rFrom.SharedDepth(to))
	slice := model.NewSlice(mapFragment(old.Content, f, parent), old.OpenStart, old.OpenEnd)
	return doc.Replace(from, to, slice)
}

func mapFragment(fragment *model.Fragment, f func(node, parent *model.Node) *model.Node, parent *model.Node) *model.Fragment {
	mapped := make([]*model.Node, 0, fragment.ChildCount())
	for i := 0; i < fragment.ChildCount(); i++ {
		child := fragment.Child(i)
		if child.ContentSize() > 0 {
			child = child.Copy(mapFragment(child.Content, f, child))
		}
		if child.IsInline() {
			child = f(child, parent)
		}
		mapped = append(mapped, child)
	}
	return model.NewFragment(mapped...)
}

package commands

import (
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
	"blockEditor/backend/internal/transform"
)

func isList(node *model.Node) bool { return node.Type.InGroup("list") }

// WrapInList wraps the selected blocks in a list of the named type, one item
// per block.
func WrapInList(name string, attrs map[string]any) Command {
	return func(tr *state.Transaction) bool {
		listType := nodeType(tr, name)
		if listType == nil {
			return false
		}
		sel := tr.Selection()
		rFrom := sel.ResolvedFrom()
		r := rFrom.BlockRange(sel.ResolvedTo(), nil)
		if r == nil {
			return false
		}
		if r.Depth >= 2 && rFrom.Node(r.Depth-1).Type.CompatibleContent(listType) {
			return false
		}
		wrappers := transform.FindWrapping(r, listType, attrs)
		if wrappers == nil {
			return false
		}
		return doWrapInList(tr, r, wrappers, listType)
	}
}

func doWrapInList(tr *state.Transaction, r *model.NodeRange, wrappers []transform.Wrapper, listType *model.NodeType) bool {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		content = model.NewFragment(wrappers[i].Type.Create(wrappers[i].Attrs, content, nil))
	}
	start, end := r.Start(), r.End()
	if err := tr.Step(transform.NewReplaceAroundStep(start, end, start, end,
		model.NewSlice(content, 0, 0), len(wrappers), true)); err != nil {
		return false
	}

	found := 0
	for i, w := range wrappers {
		if w.Type == listType {
			found = i + 1
		}
	}
	splitDepth := len(wrappers) - found
	splitPos := start + len(wrappers)
	parent := r.Parent()
	for i, e := r.StartIndex(), r.EndIndex(); i < e; i++ {
		if i > r.StartIndex() && transform.CanSplit(tr.Doc, splitPos, splitDepth) {
			if err := tr.Split(splitPos, splitDepth, nil); err != nil {
				return false
			}
			splitPos += 2 * splitDepth
		}
		splitPos += parent.Child(i).NodeSize()
	}
	return true
}

// LiftListItem moves the selected list items out of their list.
func LiftListItem(itemName string) Command {
	return func(tr *state.Transaction) bool {
		itemType := nodeType(tr, itemName)
		if itemType == nil {
			return false
		}
		sel := tr.Selection()
		r := sel.ResolvedFrom().BlockRange(sel.ResolvedTo(), func(n *model.Node) bool {
			return n.ChildCount() > 0 && n.FirstChild().Type == itemType
		})
		if r == nil {
			return false
		}
		if r.Depth >= 1 && sel.ResolvedFrom().Node(r.Depth-1).Type == itemType {
			return liftToOuterList(tr, itemType, r)
		}
		return liftOutOfList(tr, r)
	}
}

func liftToOuterList(tr *state.Transaction, itemType *model.NodeType, r *model.NodeRange) bool {
	mapFrom := len(tr.Steps)
	end := r.End()
	endOfList := r.To.End(r.Depth)
	if end < endOfList {
		slice := model.NewSlice(model.NewFragment(itemType.Create(nil, model.NewFragment(r.Parent().Copy(model.EmptyFragment)), nil)), 1, 0)
		if err := tr.Step(transform.NewReplaceAroundStep(end-1, endOfList, end, endOfList, slice, 1, true)); err != nil {
			return false
		}
		rFrom, err := tr.Doc.Resolve(r.From.Pos)
		if err != nil {
			return false
		}
		rTo, err := tr.Doc.Resolve(endOfList)
		if err != nil {
			return false
		}
		r = &model.NodeRange{From: rFrom, To: rTo, Depth: r.Depth}
	}
	target := transform.LiftTarget(r)
	if target < 0 {
		return false
	}
	if err := tr.Lift(r, target); err != nil {
		return false
	}
	after, err := tr.Doc.Resolve(tr.Mapping.Slice(mapFrom).Map(end, -1) - 1)
	if err != nil {
		return true
	}
	if transform.CanJoin(tr.Doc, after.Pos) && after.NodeBefore() != nil && after.NodeAfter() != nil &&
		after.NodeBefore().Type == after.NodeAfter().Type {
		_ = tr.Join(after.Pos, 1)
	}
	return true
}

func liftOutOfList(tr *state.Transaction, r *model.NodeRange) bool {
	mapFrom := len(tr.Steps)
	list := r.Parent()
	for pos, i := r.End(), r.EndIndex()-1; i > r.StartIndex(); i-- {
		pos -= list.Child(i).NodeSize()
		if err := tr.Delete(pos-1, pos+1); err != nil {
			return false
		}
	}
	rStart, err := tr.Doc.Resolve(r.Start())
	if err != nil {
		return false
	}
	item := rStart.NodeAfter()
	if item == nil || tr.Mapping.Slice(mapFrom).Map(r.End(), 1) != r.Start()+item.NodeSize() {
		return false
	}
	atStart := r.StartIndex() == 0
	atEnd := r.EndIndex() == list.ChildCount()
	parent := rStart.Node(rStart.Depth - 1)
	indexBefore := rStart.Index(rStart.Depth - 1)
	repl := item.Content
	if !atEnd {
		repl = repl.Append(model.NewFragment(list))
	}
	if !parent.CanReplace(indexBefore+b2i(!atStart), indexBefore+1, repl) {
		return false
	}
	start, end := rStart.Pos, rStart.Pos+item.NodeSize()
	wrap := model.EmptyFragment
	if !atStart {
		wrap = model.NewFragment(list.Copy(model.EmptyFragment))
	}
	if !atEnd {
		wrap = wrap.Append(model.NewFragment(list.Copy(model.EmptyFragment)))
	}
	return tr.Step(transform.NewReplaceAroundStep(start-b2i(atStart), end+b2i(atEnd), start+1, end-1,
		model.NewSlice(wrap, b2i(!atStart), b2i(!atEnd)), b2i(!atStart), true)) == nil
}

// ToggleList wraps the selection in a list of the named type. Inside a list
// of that type it lifts the items out; inside another list it switches the
// list type. Adjacent lists of the same type are joined afterwards.
func ToggleList(listName, itemName string) Command {
	return func(tr *state.Transaction) bool {
		listType := nodeType(tr, listName)
		if listType == nil {
			return false
		}
		sel := tr.Selection()
		rFrom := sel.ResolvedFrom()
		r := rFrom.BlockRange(sel.ResolvedTo(), nil)
		if r == nil {
			return false
		}
		if parentList := findParentNode(rFrom, isList); r.Depth >= 1 && parentList != nil && r.Depth-parentList.depth <= 1 {
			if parentList.node.Type == listType {
				return LiftListItem(itemName)(tr)
			}
			if listType.ValidContent(parentList.node.Content) {
				if err := tr.SetNodeMarkup(parentList.pos, listType, nil); err != nil {
					return false
				}
				joinListBackwards(tr, listType)
				joinListForwards(tr, listType)
				return true
			}
		}
		if !canOn(tr, WrapInList(listName, nil)) {
			ClearNodes()(tr)
		}
		ok := WrapInList(listName, nil)(tr)
		joinListBackwards(tr, listType)
		joinListForwards(tr, listType)
		return ok
	}
}

// ToggleBulletList toggles a bullet list.
func ToggleBulletList() Command { return ToggleList("bulletList", "listItem") }

// ToggleOrderedList toggles a numbered list.
func ToggleOrderedList() Command { return ToggleList("orderedList", "listItem") }

func joinListBackwards(tr *state.Transaction, listType *model.NodeType) {
	list := findParentNode(tr.Selection().ResolvedFrom(), func(n *model.Node) bool { return n.Type == listType })
	if list == nil || list.pos == 0 {
		return
	}
	rBefore, err := tr.Doc.Resolve(list.pos - 1)
	if err != nil || list.depth > rBefore.Depth+1 {
		return
	}
	nodeBefore := tr.Doc.NodeAt(rBefore.Before(list.depth))
	if nodeBefore == nil || nodeBefore.Type != list.node.Type || !transform.CanJoin(tr.Doc, list.pos) {
		return
	}
	_ = tr.Join(list.pos, 1)
}

func joinListForwards(tr *state.Transaction, listType *model.NodeType) {
	list := findParentNode(tr.Selection().ResolvedFrom(), func(n *model.Node) bool { return n.Type == listType })
	if list == nil {
		return
	}
	after := list.pos + list.node.NodeSize()
	nodeAfter := tr.Doc.NodeAt(after)
	if nodeAfter == nil || nodeAfter.Type != list.node.Type || !transform.CanJoin(tr.Doc, after) {
		return
	}
	_ = tr.Join(after, 1)
}

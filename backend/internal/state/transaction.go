package state

import (
	"time"

	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/transform"
)

// Transaction is a transform that also tracks selection, stored marks and
// metadata.
type Transaction struct {
	*transform.Transform

	Time time.Time

	before          *EditorState
	curSelection    Selection
	curSelectionFor int
	selectionSet    bool

	storedMarks     []*model.Mark
	storedMarksSet  bool
	storedMarksStep int

	meta map[string]any
}

func newTransaction(s *EditorState) *Transaction {
	return &Transaction{
		Transform:    transform.New(s.Doc),
		Time:         time.Now(),
		before:       s,
		curSelection: s.Selection,
		storedMarks:  s.StoredMarks,
	}
}

// Before is the state the transaction started from.
func (tr *Transaction) Before() *EditorState { return tr.before }

// Selection is the transaction's selection, mapped through the steps added
// since it was set.
func (tr *Transaction) Selection() Selection {
	if tr.curSelectionFor < len(tr.Steps) {
		tr.curSelection = tr.curSelection.Map(tr.Doc, tr.Mapping.Slice(tr.curSelectionFor))
		tr.curSelectionFor = len(tr.Steps)
	}
	return tr.curSelection
}

// SetSelection replaces the selection and clears stored marks.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.curSelection = sel
	tr.curSelectionFor = len(tr.Steps)
	tr.selectionSet = true
	tr.storedMarks = nil
	tr.storedMarksSet = false
	return tr
}

// SelectionSet reports whether SetSelection was called.
func (tr *Transaction) SelectionSet() bool { return tr.selectionSet }

// StoredMarks are the marks the next typed text will get.
func (tr *Transaction) StoredMarks() []*model.Mark {
	if tr.storedMarksSet && tr.storedMarksStep != len(tr.Steps) {
		return nil
	}
	return tr.storedMarks
}

func (tr *Transaction) SetStoredMarks(marks []*model.Mark) *Transaction {
	tr.storedMarks = marks
	tr.storedMarksSet = true
	tr.storedMarksStep = len(tr.Steps)
	return tr
}

// StoredMarksSet reports whether stored marks were explicitly set.
func (tr *Transaction) StoredMarksSet() bool { return tr.storedMarksSet }

// AddStoredMark adds a mark to the stored set (or the marks at the caret).
func (tr *Transaction) AddStoredMark(mark *model.Mark) *Transaction {
	return tr.SetStoredMarks(mark.AddToSet(tr.currentMarks()))
}

// RemoveStoredMark removes a mark type from the stored set.
func (tr *Transaction) RemoveStoredMark(mt *model.MarkType) *Transaction {
	return tr.SetStoredMarks(mt.RemoveFromSet(tr.currentMarks()))
}

func (tr *Transaction) currentMarks() []*model.Mark {
	if marks := tr.StoredMarks(); marks != nil {
		return marks
	}
	return tr.Selection().ResolvedFrom().Marks()
}

func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	if tr.meta == nil {
		tr.meta = make(map[string]any)
	}
	tr.meta[key] = value
	return tr
}

func (tr *Transaction) GetMeta(key string) any { return tr.meta[key] }

// InsertText replaces the range with text carrying the stored marks, or the
// marks at from. Empty text deletes the range.
func (tr *Transaction) InsertText(text string, from, to int) error {
	if text == "" {
		return tr.DeleteRange(from, to)
	}
	marks := tr.StoredMarks()
	if marks == nil {
		rFrom, err := tr.Doc.Resolve(from)
		if err != nil {
			return err
		}
		if from == to {
			marks = rFrom.Marks()
		} else {
			rTo, err := tr.Doc.Resolve(to)
			if err != nil {
				return err
			}
			marks = rFrom.MarksAcross(rTo)
		}
	}
	rFrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	node := tr.Doc.Type.Schema.Text(text, rFrom.Parent().Type.AllowedMarks(marks))
	if err := tr.ReplaceWith(from, to, node); err != nil {
		if err := tr.DeleteRange(from, to); err != nil {
			return err
		}
		if err := tr.Insert(from, node); err != nil {
			return err
		}
	}
	if sel := tr.Selection(); !sel.Empty() {
		tr.SetSelection(Near(sel.ResolvedTo(), 1))
	}
	return nil
}

// DeleteRange deletes a range. When the ends sit at different depths it
// clears both partial blocks and removes the whole blocks between them.
func (tr *Transaction) DeleteRange(from, to int) error {
	if from >= to {
		return nil
	}
	if err := tr.Delete(from, to); err == nil {
		return nil
	}
	rFrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	rTo, err := tr.Doc.Resolve(to)
	if err != nil {
		return err
	}
	shared := rFrom.SharedDepth(to)
	if rTo.Parent().InlineContent() {
		if err := tr.Delete(rTo.Start(rTo.Depth), to); err != nil {
			return err
		}
	}
	if shared+1 <= rFrom.Depth && shared+1 <= rTo.Depth {
		between, betweenEnd := rFrom.After(shared+1), rTo.Before(shared+1)
		if betweenEnd > between {
			if err := tr.Delete(between, betweenEnd); err != nil {
				return err
			}
		}
	}
	if rFrom.Parent().InlineContent() {
		return tr.Delete(from, rFrom.End(rFrom.Depth))
	}
	return nil
}

// DeleteSelection deletes the selected content.
func (tr *Transaction) DeleteSelection() error {
	sel := tr.Selection()
	if sel.Empty() {
		return nil
	}
	if err := tr.DeleteRange(sel.From(), sel.To()); err != nil {
		return err
	}
	rPos, err := tr.Doc.Resolve(tr.Mapping.Map(sel.From(), -1))
	if err != nil {
		return err
	}
	tr.SetSelection(Near(rPos, -1))
	return nil
}

// Package search finds and replaces text across the document. A Session holds
// the terms and results for one editor and highlights matches through
// decorations.
package search

import (
	"regexp"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

// DefaultResultClass is the class of the highlight around each match.
const DefaultResultClass = "search-result"

// Control test IDs.
const (
	SearchInput  = "search-input"
	ReplaceInput = "replace-input"
	ReplaceOnce  = "replace-once"
	ReplaceAll   = "replace-all"
)

// Options configures matching.
type Options struct {
	CaseSensitive bool   `mapstructure:"CaseSensitive"`
	DisableRegex  bool   `mapstructure:"DisableRegex"`
	ResultClass   string `mapstructure:"ResultClass"`
}

// Result is one match, in document positions.
type Result struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Snapshot is the search box state.
type Snapshot struct {
	Open        bool     `json:"open"`
	SearchTerm  string   `json:"searchTerm"`
	ReplaceTerm string   `json:"replaceTerm"`
	Results     []Result `json:"results"`
	Index       int      `json:"index"`
}

// compiled patterns, shared by all sessions; nil marks an invalid pattern
var patterns, _ = lru.New[string, *regexp.Regexp](256)

// Compile builds the pattern for term. It returns nil for an empty or
// invalid term.
func Compile(term string, opts Options) *regexp.Regexp {
	if term == "" {
		return nil
	}
	expr := term
	if opts.DisableRegex {
		expr = regexp.QuoteMeta(term)
	}
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}
	if re, ok := patterns.Get(expr); ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	patterns.Add(expr, re)
	return re
}

// textRun is consecutive text of one block, starting at pos.
type textRun struct {
	pos  int
	text string
}

// textRuns splits the document into runs of sibling text nodes. A run only
// continues with the next child of the same parent, so text after an inline
// node with content (an image caption) starts a new run.
func textRuns(doc *model.Node) []textRun {
	var runs []textRun
	var runParent *model.Node
	last := -1
	doc.Descendants(func(node *model.Node, pos int, parent *model.Node, index int) bool {
		if !node.IsText() {
			runParent, last = nil, -1
			return true
		}
		if runParent == parent && index == last+1 {
			runs[len(runs)-1].text += node.Text
		} else {
			runs = append(runs, textRun{pos: pos, text: node.Text})
			runParent = parent
		}
		last = index
		return true
	})
	return runs
}

// Find returns every non-empty match of re in doc, in document order.
func Find(doc *model.Node, re *regexp.Regexp) []Result {
	if re == nil {
		return nil
	}
	var out []Result
	for _, run := range textRuns(doc) {
		for _, loc := range re.FindAllStringIndex(run.text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			from := run.pos + utf8.RuneCountInString(run.text[:loc[0]])
			to := from + utf8.RuneCountInString(run.text[loc[0]:loc[1]])
			out = append(out, Result{From: from, To: to})
		}
	}
	return out
}

// Session is the search state of one editor.
type Session struct {
	ed   *editor.Editor
	opts Options

	open        bool
	searchTerm  string
	replaceTerm string
	results     []Result
	index       int
}

// New attaches a search session to ed.
func New(ed *editor.Editor, opts Options) *Session {
	if opts.ResultClass == "" {
		opts.ResultClass = DefaultResultClass
	}
	s := &Session{ed: ed, opts: opts, index: -1}
	ed.AddPlugin(s)
	return s
}

func (s *Session) Update(ed *editor.Editor, prev *state.EditorState) {
	if prev.Doc != ed.State().Doc || s.searchTerm != "" {
		s.recompute()
	}
}

func (s *Session) recompute() {
	s.results = Find(s.ed.State().Doc, Compile(s.searchTerm, s.opts))
}

func (s *Session) Open() bool { return s.open }

func (s *Session) SearchTerm() string { return s.searchTerm }

func (s *Session) ReplaceTerm() string { return s.replaceTerm }

func (s *Session) Results() []Result { return append([]Result(nil), s.results...) }

// Index is the current result, or -1 before the first move.
func (s *Session) Index() int { return s.index }

// SetSearchTerm changes the term and finds its matches.
func (s *Session) SetSearchTerm(term string) {
	s.searchTerm = term
	s.index = -1
	s.recompute()
}

func (s *Session) SetReplaceTerm(term string) { s.replaceTerm = term }

// Next selects the following result, wrapping to the first.
func (s *Session) Next() bool {
	n := len(s.results)
	if n == 0 {
		return false
	}
	if s.index >= n-1 {
		s.index = 0
	} else {
		s.index++
	}
	return s.selectCurrent()
}

// Previous selects the preceding result, wrapping to the last.
func (s *Session) Previous() bool {
	n := len(s.results)
	if n == 0 {
		return false
	}
	if s.index <= 0 || s.index > n {
		s.index = n - 1
	} else {
		s.index--
	}
	return s.selectCurrent()
}

func (s *Session) selectCurrent() bool {
	r := s.results[s.index]
	return s.ed.Run(commands.SetTextSelection(r.From, r.To))
}

// Replace replaces the first result. The list is left as it was when the
// change cannot be applied; otherwise Update finds the remaining matches in
// the new document.
func (s *Session) Replace() bool {
	if len(s.results) == 0 {
		return false
	}
	first := s.results[0]
	return s.ed.Run(commands.InsertTextAt(s.replaceTerm, first.From, first.To))
}

// ReplaceAll replaces every result in one transaction. Each replacement
// shifts the later results by the length it removed.
func (s *Session) ReplaceAll() bool {
	if len(s.results) == 0 {
		return false
	}
	return s.ed.Run(replaceAll(s.results, s.replaceTerm))
}

func replaceAll(results []Result, with string) commands.Command {
	return func(tr *state.Transaction) bool {
		width := utf8.RuneCountInString(with)
		offset := 0
		for _, r := range results {
			from, to := r.From-offset, r.To-offset
			if err := tr.InsertText(with, from, to); err != nil {
				return false
			}
			offset += (r.To - r.From) - width
		}
		return true
	}
}

// Decorations highlights every result.
func (s *Session) Decorations(*editor.Editor) []schema.Decoration {
	out := make([]schema.Decoration, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, schema.Decoration{From: r.From, To: r.To, Class: s.opts.ResultClass})
	}
	return out
}

// HandleKey handles the search shortcuts.
func (s *Session) HandleKey(_ *editor.Editor, key string) bool {
	switch editor.NormalizeKey(key) {
	case "Ctrl-f", "Meta-f":
		s.open = true
		s.SetSearchTerm("")
		return true
	case "Ctrl-,":
		s.Next()
		return true
	case "Ctrl-.":
		s.Previous()
		return true
	}
	return false
}

// Input types into the search or replace field.
func (s *Session) Input(testID, value string) bool {
	switch testID {
	case SearchInput:
		s.open = true
		s.SetSearchTerm(value)
	case ReplaceInput:
		s.SetReplaceTerm(value)
	default:
		return false
	}
	return true
}

// Click presses a replace button.
func (s *Session) Click(testID string) bool {
	switch testID {
	case ReplaceOnce:
		return s.Replace()
	case ReplaceAll:
		return s.ReplaceAll()
	}
	return false
}

// Close hides the search box and clears the highlights.
func (s *Session) Close() {
	s.open = false
	s.SetSearchTerm("")
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Open:        s.open,
		SearchTerm:  s.searchTerm,
		ReplaceTerm: s.replaceTerm,
		Results:     s.Results(),
		Index:       s.index,
	}
}

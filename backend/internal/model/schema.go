// Package model defines the editor document: an immutable tree of typed nodes
// carrying marks, addressed by integer positions.
package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AttributeSpec describes one node or mark attribute. A nil Default makes the
// attribute optional with a nil value.
type AttributeSpec struct {
	Default any
}

// NodeSpec describes a node type.
type NodeSpec struct {
	Key string
	// Content is a content expression such as "block+", "inline*" or
	// "paragraph block*". Empty means the node is a leaf.
	Content string
	Group   string
	Inline  bool
	Atom    bool
	Code    bool
	// Marks lists the marks allowed inside this node, separated by spaces.
	// nil allows every mark, a pointer to "" allows none.
	Marks     *string
	Attrs     map[string]*AttributeSpec
	Isolating bool
}

// MarkSpec describes a mark type.
type MarkSpec struct {
	Key   string
	Attrs map[string]*AttributeSpec
	// Inclusive controls whether the mark extends to text typed at its end.
	// nil means true.
	Inclusive *bool
}

// Schema holds the node and mark types a document may use.
type Schema struct {
	Nodes map[string]*NodeType
	Marks map[string]*MarkType

	nodeOrder []*NodeType
	markOrder []*MarkType
	// TopNodeType is the type of the document root ("doc").
	TopNodeType *NodeType
}

// NewSchema builds a schema. The first node spec is the top node; mark order
// defines the nesting rank of marks (first is outermost).
func NewSchema(nodes []*NodeSpec, marks []*MarkSpec) (*Schema, error) {
	s := &Schema{
		Nodes: make(map[string]*NodeType, len(nodes)),
		Marks: make(map[string]*MarkType, len(marks)),
	}
	for _, spec := range nodes {
		if _, dup := s.Nodes[spec.Key]; dup {
			return nil, fmt.Errorf("duplicate node type %q", spec.Key)
		}
		t := &NodeType{Name: spec.Key, Schema: s, Spec: spec}
		if spec.Group != "" {
			t.groups = strings.Fields(spec.Group)
		}
		s.Nodes[spec.Key] = t
		s.nodeOrder = append(s.nodeOrder, t)
	}
	if len(s.nodeOrder) == 0 {
		return nil, fmt.Errorf("schema has no node types")
	}
	if _, ok := s.Nodes["text"]; !ok {
		return nil, fmt.Errorf("schema is missing a text node type")
	}
	s.TopNodeType = s.nodeOrder[0]

	for i, spec := range marks {
		if _, dup := s.Marks[spec.Key]; dup {
			return nil, fmt.Errorf("duplicate mark type %q", spec.Key)
		}
		mt := &MarkType{Name: spec.Key, Schema: s, Spec: spec, Rank: i}
		s.Marks[spec.Key] = mt
		s.markOrder = append(s.markOrder, mt)
	}

	for _, t := range s.nodeOrder {
		expr, err := parseContentExpr(t.Spec.Content, s)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", t.Name, err)
		}
		t.content = expr
		t.inlineContent = expr.inline()
		switch {
		case t.Spec.Marks == nil:
			t.allowsAllMarks = t.inlineContent
		case *t.Spec.Marks == "_":
			t.allowsAllMarks = true
		default:
			for _, name := range strings.Fields(*t.Spec.Marks) {
				mt, ok := s.Marks[name]
				if !ok {
					return nil, fmt.Errorf("node %s: unknown mark %q", t.Name, name)
				}
				t.markSet = append(t.markSet, mt)
			}
		}
	}
	return s, nil
}

// NodeTypes returns the node types in declaration order.
func (s *Schema) NodeTypes() []*NodeType { return s.nodeOrder }

// Node creates a node of the named type. It panics on an unknown name, which
// is a programming error.
func (s *Schema) Node(name string, attrs map[string]any, content []*Node, marks []*Mark) *Node {
	t, ok := s.Nodes[name]
	if !ok {
		panic("model: unknown node type " + name)
	}
	return t.Create(attrs, NewFragment(content...), marks)
}

// Text creates a text node. Empty text is not allowed and yields nil.
func (s *Schema) Text(text string, marks []*Mark) *Node {
	if text == "" {
		return nil
	}
	t := s.Nodes["text"]
	return &Node{Type: t, Attrs: t.computeAttrs(nil), Text: text, Marks: sortMarks(marks), Content: EmptyFragment}
}

// Mark creates a mark of the named type.
func (s *Schema) Mark(name string, attrs map[string]any) *Mark {
	mt, ok := s.Marks[name]
	if !ok {
		panic("model: unknown mark type " + name)
	}
	return mt.Create(attrs)
}

// NodeType is a compiled node spec.
type NodeType struct {
	Name   string
	Schema *Schema
	Spec   *NodeSpec

	groups         []string
	content        *contentExpr
	inlineContent  bool
	allowsAllMarks bool
	markSet        []*MarkType
}

func (t *NodeType) IsText() bool { return t.Name == "text" }

func (t *NodeType) IsInline() bool { return t.Spec.Inline || t.IsText() }

func (t *NodeType) IsBlock() bool { return !t.IsInline() }

func (t *NodeType) IsTextblock() bool { return t.IsBlock() && t.inlineContent }

func (t *NodeType) InlineContent() bool { return t.inlineContent }

func (t *NodeType) IsLeaf() bool { return t.content.empty() }

func (t *NodeType) IsAtom() bool { return t.IsLeaf() || t.Spec.Atom }

func (t *NodeType) IsCode() bool { return t.Spec.Code }

// InGroup reports whether the type belongs to the named group.
func (t *NodeType) InGroup(group string) bool {
	for _, g := range t.groups {
		if g == group {
			return true
		}
	}
	return false
}

func (t *NodeType) computeAttrs(attrs map[string]any) map[string]any {
	if len(t.Spec.Attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(t.Spec.Attrs))
	for name, spec := range t.Spec.Attrs {
		if v, ok := attrs[name]; ok {
			out[name] = v
		} else {
			out[name] = spec.Default
		}
	}
	return out
}

// Create builds a node of this type without validating its content.
func (t *NodeType) Create(attrs map[string]any, content *Fragment, marks []*Mark) *Node {
	if t.IsText() {
		panic("model: use Schema.Text to create text nodes")
	}
	if content == nil {
		content = EmptyFragment
	}
	return &Node{Type: t, Attrs: t.computeAttrs(attrs), Content: content, Marks: sortMarks(marks)}
}

// CreateChecked is like Create but fails when content does not match the
// type's content expression.
func (t *NodeType) CreateChecked(attrs map[string]any, content *Fragment, marks []*Mark) (*Node, error) {
	if content == nil {
		content = EmptyFragment
	}
	if err := t.CheckContent(content); err != nil {
		return nil, err
	}
	return t.Create(attrs, content, marks), nil
}

// ValidContent reports whether the fragment is valid content for this type,
// including the marks on its children.
func (t *NodeType) ValidContent(content *Fragment) bool {
	if !t.content.matchNodes(content.content) {
		return false
	}
	for _, child := range content.content {
		if !t.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// CheckContent returns an error describing invalid content.
func (t *NodeType) CheckContent(content *Fragment) error {
	if !t.ValidContent(content) {
		return &ReplaceError{msg: fmt.Sprintf("invalid content for node %s: %s", t.Name, content)}
	}
	return nil
}

// ValidTypes reports whether a sequence of child types matches the content
// expression, ignoring marks.
func (t *NodeType) ValidTypes(types []*NodeType) bool { return t.content.matchTypes(types) }

// AllowsChild reports whether the content expression mentions the given type
// anywhere.
func (t *NodeType) AllowsChild(child *NodeType) bool { return t.content.mentions(child) }

// DefaultTypeAt returns the type that would be created by default as the
// child at index, given the existing children before it.
func (t *NodeType) DefaultTypeAt(before []*NodeType) *NodeType {
	return t.content.defaultAfter(before)
}

// AllowsMarkType reports whether marks of the given type may appear inside
// nodes of this type.
func (t *NodeType) AllowsMarkType(mt *MarkType) bool {
	if t.allowsAllMarks {
		return true
	}
	for _, m := range t.markSet {
		if m == mt {
			return true
		}
	}
	return false
}

// AllowsMarks reports whether every mark in the set is allowed.
func (t *NodeType) AllowsMarks(marks []*Mark) bool {
	for _, m := range marks {
		if !t.AllowsMarkType(m.Type) {
			return false
		}
	}
	return true
}

// AllowedMarks filters the set down to the marks this type allows.
func (t *NodeType) AllowedMarks(marks []*Mark) []*Mark {
	var out []*Mark
	for _, m := range marks {
		if t.AllowsMarkType(m.Type) {
			out = append(out, m)
		}
	}
	return out
}

// CompatibleContent reports whether nodes of the two types can be joined,
// meaning their content expressions accept a common child type.
func (t *NodeType) CompatibleContent(other *NodeType) bool {
	if t == other {
		return true
	}
	for _, a := range t.Schema.nodeOrder {
		if t.content.mentions(a) && other.content.mentions(a) {
			return true
		}
	}
	return false
}

func attrsEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func sortMarks(marks []*Mark) []*Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]*Mark, len(marks))
	copy(out, marks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type.Rank < out[j].Type.Rank })
	return out
}

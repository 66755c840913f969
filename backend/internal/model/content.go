package model

import (
	"fmt"
	"strings"
)

// contentTerm matches between min and max (-1 for unbounded) consecutive
// children whose type is in types.
type contentTerm struct {
	types []*NodeType
	min   int
	max   int
}

func (t contentTerm) has(nt *NodeType) bool {
	for _, x := range t.types {
		if x == nt {
			return true
		}
	}
	return false
}

// contentExpr is a sequence of terms. Matching is greedy, which is exact for
// the expressions this editor declares.
type contentExpr struct {
	source string
	terms  []contentTerm
}

func parseContentExpr(src string, s *Schema) (*contentExpr, error) {
	expr := &contentExpr{source: src}
	for _, tok := range strings.Fields(src) {
		term := contentTerm{min: 1, max: 1}
		switch {
		case strings.HasSuffix(tok, "*"):
			term.min, term.max = 0, -1
			tok = strings.TrimSuffix(tok, "*")
		case strings.HasSuffix(tok, "+"):
			term.min, term.max = 1, -1
			tok = strings.TrimSuffix(tok, "+")
		case strings.HasSuffix(tok, "?"):
			term.min, term.max = 0, 1
			tok = strings.TrimSuffix(tok, "?")
		}
		if t, ok := s.Nodes[tok]; ok {
			term.types = []*NodeType{t}
		} else {
			for _, t := range s.nodeOrder {
				if t.InGroup(tok) {
					term.types = append(term.types, t)
				}
			}
		}
		if len(term.types) == 0 {
			return nil, fmt.Errorf("no node type or group %q in content expression %q", tok, src)
		}
		expr.terms = append(expr.terms, term)
	}
	return expr, nil
}

func (e *contentExpr) empty() bool { return len(e.terms) == 0 }

func (e *contentExpr) inline() bool {
	return len(e.terms) > 0 && len(e.terms[0].types) > 0 && e.terms[0].types[0].IsInline()
}

func (e *contentExpr) mentions(nt *NodeType) bool {
	for _, term := range e.terms {
		if term.has(nt) {
			return true
		}
	}
	return false
}

func (e *contentExpr) matchNodes(nodes []*Node) bool {
	types := make([]*NodeType, len(nodes))
	for i, n := range nodes {
		types[i] = n.Type
	}
	return e.matchTypes(types)
}

func (e *contentExpr) matchTypes(types []*NodeType) bool {
	i, ok := e.consume(types)
	return ok && i == len(types)
}

// consume greedily matches a prefix of types. It returns the number matched
// and whether every term reached its minimum.
func (e *contentExpr) consume(types []*NodeType) (int, bool) {
	i := 0
	for _, term := range e.terms {
		count := 0
		for i < len(types) && (term.max < 0 || count < term.max) && term.has(types[i]) {
			i++
			count++
		}
		if count < term.min {
			return i, false
		}
	}
	return i, true
}

func (e *contentExpr) defaultAfter(before []*NodeType) *NodeType {
	i := 0
	for _, term := range e.terms {
		count := 0
		for i < len(before) && (term.max < 0 || count < term.max) && term.has(before[i]) {
			i++
			count++
		}
		if i < len(before) {
			continue
		}
		if term.max < 0 || count < term.max {
			for _, t := range term.types {
				if !t.IsText() {
					return t
				}
			}
		}
	}
	return nil
}

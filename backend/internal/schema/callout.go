package schema

import (
	"golang.org/x/net/html"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// calloutDescriptor is a highlighted block of unmarked inline text.
func calloutDescriptor() *Descriptor {
	return &Descriptor{
		Name: "callout",
		Node: &model.NodeSpec{Content: "inline*", Group: "block", Marks: &noMarks},
		Parse: []ParseRule{{
			Tag:   "div",
			Match: func(el *html.Node) bool { return hasClass(el, "callout") },
		}},
		Render: func(*model.Node) (*html.Node, *html.Node) {
			div, span := element("div", "class", "callout"), element("span")
			div.AppendChild(span)
			return div, span
		},
		Commands: map[string]CommandFunc{
			"setCallout": func(map[string]any) commands.Command { return SetCallout() },
		},
	}
}

// SetCallout replaces the selection with an empty callout.
func SetCallout() commands.Command {
	return func(tr *state.Transaction) bool {
		nt := tr.Doc.Type.Schema.Nodes["callout"]
		if nt == nil {
			return false
		}
		return commands.InsertContent(nt.Create(nil, nil, nil))(tr)
	}
}

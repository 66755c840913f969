package schema

import (
	"strings"

	"golang.org/x/net/html"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

const (
	imageURLInput = "image-url"
	videoURLInput = "youtube-url"
)

func imagePlaceholderDescriptor() *Descriptor {
	return placeholderDescriptor("imagePlaceholder", "image-placeholder", "insertImagePlaceholder",
		func(host ViewHost, node *model.Node, getPos func() int) View {
			return &PlaceholderView{host: host, node: node, getPos: getPos, input: imageURLInput,
				fill: func(url string) commands.Command { return SetImage(url) }}
		})
}

func videoPlaceholderDescriptor() *Descriptor {
	return placeholderDescriptor("videoPlaceholder", "video-placeholder", "insertVideoPlaceholder",
		func(host ViewHost, node *model.Node, getPos func() int) View {
			return &PlaceholderView{host: host, node: node, getPos: getPos, input: videoURLInput,
				fill: func(url string) commands.Command { return SetYoutubeVideo(map[string]any{"src": url}) }}
		})
}

func placeholderDescriptor(name, tag, insertCmd string, newView ViewFunc) *Descriptor {
	return &Descriptor{
		Name:   name,
		Node:   &model.NodeSpec{Group: "block", Atom: true},
		Parse:  []ParseRule{{Tag: tag}},
		Render: func(*model.Node) (*html.Node, *html.Node) { return element(tag), nil },
		Commands: map[string]CommandFunc{
			insertCmd: func(map[string]any) commands.Command { return InsertPlaceholder(name) },
		},
		NewView: newView,
	}
}

// InsertPlaceholder replaces the selection with an empty placeholder node.
func InsertPlaceholder(name string) commands.Command {
	return func(tr *state.Transaction) bool {
		nt := tr.Doc.Type.Schema.Nodes[name]
		if nt == nil {
			return false
		}
		return commands.InsertContent(nt.Create(nil, nil, nil))(tr)
	}
}

// PlaceholderView is the URL prompt of an image or video placeholder. Enter
// with a non-empty URL replaces the placeholder node in place; Escape and
// empty input leave it alone.
type PlaceholderView struct {
	host   ViewHost
	node   *model.Node
	getPos func() int
	input  string
	fill   func(url string) commands.Command

	value string
}

func (v *PlaceholderView) Input(target, value string) bool {
	if target != v.input {
		return false
	}
	v.value = value
	return true
}

func (v *PlaceholderView) Key(target, key string) bool {
	if target != v.input {
		return false
	}
	switch key {
	case "Enter":
		url := strings.TrimSpace(v.value)
		if url == "" {
			return true
		}
		return v.host.Run(commands.Chain(commands.SetNodeSelection(v.getPos()), v.fill(url)))
	case "Escape":
		return true
	}
	return false
}

func (v *PlaceholderView) Update(node *model.Node) bool {
	if node.Type != v.node.Type {
		return false
	}
	v.node = node
	return true
}

func (v *PlaceholderView) Destroy() {}

func (v *PlaceholderView) State() map[string]any {
	return map[string]any{"input": v.input, "value": v.value}
}

// Package schema is the node type registry: one descriptor per node or mark
// type, carrying its model spec, HTML parse rules, render function, command
// table and optional interactive view.
package schema

import (
	"fmt"
	"sort"

	"golang.org/x/net/html"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
)

// ParseRule maps an HTML element onto a node or mark.
type ParseRule struct {
	Tag string
	// Match further restricts elements with Tag. nil accepts them all.
	Match func(el *html.Node) bool
	Attrs func(el *html.Node) map[string]any
	// Content picks the element whose children become the node content.
	// nil uses the element itself; a func returning nil means no content.
	Content            func(el *html.Node) *html.Node
	PreserveWhitespace bool
}

func (r ParseRule) matches(el *html.Node) bool {
	return el.Data == r.Tag && (r.Match == nil || r.Match(el))
}

// RenderFunc renders a node to an element and returns the element its
// content goes into (nil for nodes rendered without content).
type RenderFunc func(node *model.Node) (dom, hole *html.Node)

// MarkRenderFunc renders a mark around inline content.
type MarkRenderFunc func(mark *model.Mark) (dom, hole *html.Node)

// CommandFunc builds a command from call arguments.
type CommandFunc func(args map[string]any) commands.Command

// ViewFunc creates an interactive view for a node.
type ViewFunc func(host ViewHost, node *model.Node, getPos func() int) View

// Descriptor describes one node or mark type end to end. Exactly one of Node
// and Mark is set.
type Descriptor struct {
	Name       string
	Node       *model.NodeSpec
	Mark       *model.MarkSpec
	Parse      []ParseRule
	Render     RenderFunc
	RenderMark MarkRenderFunc
	Commands   map[string]CommandFunc
	NewView    ViewFunc
}

// Options configures the built-in descriptors.
type Options struct {
	Youtube YoutubeOptions
}

// DefaultOptions returns the options the editor uses when none are given.
func DefaultOptions() Options {
	return Options{Youtube: DefaultYoutubeOptions()}
}

// Registry maps type names to descriptors and owns the compiled schema.
type Registry struct {
	schema    *model.Schema
	nodes     []*Descriptor
	marks     []*Descriptor
	byName    map[string]*Descriptor
	commands  map[string]CommandFunc
	opts      Options
	nodeRules []boundRule
	markRules []boundRule
}

type boundRule struct {
	desc *Descriptor
	rule ParseRule
}

// New builds the registry of built-in node and mark types.
func New(opts Options) (*Registry, error) {
	nodes := []*Descriptor{
		docDescriptor(),
		paragraphDescriptor(),
		textDescriptor(),
		headingDescriptor(),
		blockquoteDescriptor(),
		bulletListDescriptor(),
		orderedListDescriptor(),
		listItemDescriptor(),
		codeBlockDescriptor(),
		horizontalRuleDescriptor(),
		hardBreakDescriptor(),
		calloutDescriptor(),
		imageDescriptor(),
		imagePlaceholderDescriptor(),
		videoPlaceholderDescriptor(),
		youtubeDescriptor(opts.Youtube),
	}
	marks := []*Descriptor{
		linkDescriptor(),
		markDescriptor("bold", "strong", "Bold", "strong", "b"),
		markDescriptor("code", "code", "Code", "code"),
		markDescriptor("italic", "em", "Italic", "em", "i"),
		markDescriptor("strike", "s", "Strike", "s", "del", "strike"),
		markDescriptor("underline", "u", "Underline", "u"),
	}
	return NewWith(opts, nodes, marks)
}

// NewWith builds a registry from explicit descriptors. The first node
// descriptor is the document root.
func NewWith(opts Options, nodes, marks []*Descriptor) (*Registry, error) {
	r := &Registry{
		nodes:    nodes,
		marks:    marks,
		byName:   make(map[string]*Descriptor, len(nodes)+len(marks)),
		commands: make(map[string]CommandFunc),
		opts:     opts,
	}
	nodeSpecs := make([]*model.NodeSpec, 0, len(nodes))
	for _, d := range nodes {
		if d.Node == nil {
			return nil, fmt.Errorf("descriptor %s: missing node spec", d.Name)
		}
		d.Node.Key = d.Name
		nodeSpecs = append(nodeSpecs, d.Node)
	}
	markSpecs := make([]*model.MarkSpec, 0, len(marks))
	for _, d := range marks {
		if d.Mark == nil {
			return nil, fmt.Errorf("descriptor %s: missing mark spec", d.Name)
		}
		d.Mark.Key = d.Name
		markSpecs = append(markSpecs, d.Mark)
	}
	s, err := model.NewSchema(nodeSpecs, markSpecs)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	r.schema = s

	for _, group := range [][]*Descriptor{nodes, marks} {
		for _, d := range group {
			if _, dup := r.byName[d.Name]; dup {
				return nil, fmt.Errorf("duplicate descriptor %s", d.Name)
			}
			r.byName[d.Name] = d
			for name, cmd := range d.Commands {
				if _, dup := r.commands[name]; dup {
					return nil, fmt.Errorf("descriptor %s: duplicate command %s", d.Name, name)
				}
				r.commands[name] = cmd
			}
		}
	}
	for _, d := range nodes {
		for _, rule := range d.Parse {
			r.nodeRules = append(r.nodeRules, boundRule{desc: d, rule: rule})
		}
	}
	for _, d := range marks {
		for _, rule := range d.Parse {
			r.markRules = append(r.markRules, boundRule{desc: d, rule: rule})
		}
	}
	return r, nil
}

// Schema returns the compiled schema.
func (r *Registry) Schema() *model.Schema { return r.schema }

// Options returns the options the registry was built with.
func (r *Registry) Options() Options { return r.opts }

// Descriptor looks a descriptor up by type name.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Command builds the named command from the descriptors' command tables, or
// returns nil when no descriptor provides it.
func (r *Registry) Command(name string, args map[string]any) commands.Command {
	cmd, ok := r.commands[name]
	if !ok {
		return nil
	}
	return cmd(args)
}

// CommandNames lists every registered command, sorted.
func (r *Registry) CommandNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewView creates the interactive view for node, or nil when its type has
// none.
func (r *Registry) NewView(host ViewHost, node *model.Node, getPos func() int) View {
	d, ok := r.byName[node.Type.Name]
	if !ok || d.NewView == nil {
		return nil
	}
	return d.NewView(host, node, getPos)
}

func (r *Registry) matchNode(el *html.Node) (*Descriptor, ParseRule, bool) {
	for _, b := range r.nodeRules {
		if b.rule.matches(el) {
			return b.desc, b.rule, true
		}
	}
	return nil, ParseRule{}, false
}

func (r *Registry) matchMark(el *html.Node) (*Descriptor, ParseRule, bool) {
	for _, b := range r.markRules {
		if b.rule.matches(el) {
			return b.desc, b.rule, true
		}
	}
	return nil, ParseRule{}, false
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := New(DefaultOptions())
	require.NoError(t, err)
	return reg
}

func roundTrip(t *testing.T, reg *Registry, src string) string {
	t.Helper()
	doc, err := reg.ParseHTML(src)
	require.NoError(t, err)
	return reg.SerializeHTML(doc)
}

func TestRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "<p>Hello</p>", "<p>Hello</p>"},
		{"empty input", "", "<p></p>"},
		{"whitespace", "<p>  hello \n  world  </p>", "<p>hello world</p>"},
		{"bare text", "just text", "<p>just text</p>"},
		{"heading", "<h2>Title</h2>", "<h2>Title</h2>"},
		{"marks", "<p>a <b>b</b> <em><strong>c</strong></em></p>", "<p>a <strong>b</strong> <strong><em>c</em></strong></p>"},
		{"strike variants", "<p><del>x</del><strike>y</strike></p>", "<p><s>xy</s></p>"},
		{"underline and code", "<p><u>u</u><code>c</code></p>", "<p><u>u</u><code>c</code></p>"},
		{"link", `<p><a href="https://x.io">x</a></p>`, `<p><a target="_blank" rel="noopener noreferrer nofollow" href="https://x.io">x</a></p>`},
		{"list", "<ul>\n<li><p>one</p></li>\n<li>two</li>\n</ul>", "<ul><li><p>one</p></li><li><p>two</p></li></ul>"},
		{"ordered start", `<ol start="3"><li>x</li></ol>`, `<ol start="3"><li><p>x</p></li></ol>`},
		{"ordered default", `<ol start="1"><li>x</li></ol>`, `<ol><li><p>x</p></li></ol>`},
		{"stray list item", "<li>x</li>", "<ul><li><p>x</p></li></ul>"},
		{"empty list item", "<ul><li></li></ul>", "<ul><li><p></p></li></ul>"},
		{"blockquote", "<blockquote>quoted</blockquote>", "<blockquote><p>quoted</p></blockquote>"},
		{"code block", "<pre><code class=\"language-go\">a  <b>b</b>\n</code></pre>", "<pre><code class=\"language-go\">a  b\n</code></pre>"},
		{"divider", "<p>a</p><hr><p>b</p>", "<p>a</p><hr/><p>b</p>"},
		{"hard break", "<p>a<br>b</p>", "<p>a<br/>b</p>"},
		{"unknown block", "<div>a</div><div>b</div>", "<p>a</p><p>b</p>"},
		{"unknown inline", "<p><span>a</span>b</p>", "<p>ab</p>"},
		{"script dropped", "<p>a</p><script>x()</script>", "<p>a</p>"},
		{"callout", `<div class="callout"><span>Note</span></div>`, `<div class="callout"><span>Note</span></div>`},
		{"callout drops marks", `<div class="callout"><strong>x</strong></div>`, `<div class="callout"><span>x</span></div>`},
		{"empty callout", `<div class="callout"></div>`, `<div class="callout"><span></span></div>`},
		{"placeholders", "<image-placeholder></image-placeholder><video-placeholder></video-placeholder>",
			"<image-placeholder></image-placeholder><video-placeholder></video-placeholder>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, roundTrip(t, reg, tc.in))
		})
	}
}

func TestImageCaption(t *testing.T) {
	reg := newRegistry(t)

	empty := `<p><span data-image-container="true"><img src="a.png"/></span></p>`
	assert.Equal(t, empty, roundTrip(t, reg, empty))
	assert.Equal(t, empty, roundTrip(t, reg, `<p><span data-image-container="true"><img src="a.png"><span></span></span></p>`))

	captioned := `<p><span data-image-container="true"><img src="a.png" alt="cat" width="300"/><span>A cat</span></span></p>`
	assert.Equal(t, captioned, roundTrip(t, reg, captioned))

	assert.Equal(t, `<p><span data-image-container="true"><img src="b.png"/></span></p>`, roundTrip(t, reg, `<img src="b.png">`))
}

func TestParseImageAttrs(t *testing.T) {
	reg := newRegistry(t)
	doc, err := reg.ParseHTML(`<p><span data-image-container="true"><img src="a.png" title="t"><span>cap</span></span></p>`)
	require.NoError(t, err)

	img := doc.Child(0).Child(0)
	require.Equal(t, "imageNode", img.Type.Name)
	assert.Equal(t, "a.png", img.Attr("src"))
	assert.Equal(t, "t", img.Attr("title"))
	assert.Equal(t, "cap", img.TextContent())
}

func TestYoutubeRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	want := `<div data-youtube-video=""><iframe width="640" height="480" allowfullscreen="true" src="https://www.youtube.com/embed/abc123" start="0"></iframe></div>`

	assert.Equal(t, want, roundTrip(t, reg, `<div data-youtube-video=""><iframe src="https://www.youtube.com/watch?v=abc123"></iframe></div>`))
	assert.Equal(t, want, roundTrip(t, reg, `<iframe src="https://www.youtube.com/embed/abc123"></iframe>`))
	assert.Equal(t, "<p></p>", roundTrip(t, reg, `<iframe src="https://example.com/x"></iframe>`))
}

func TestEmbedURL(t *testing.T) {
	def := DefaultYoutubeOptions()
	custom := def
	custom.Autoplay = true
	custom.Controls = false
	custom.Loop = true
	custom.CCLanguage = "en"
	nocookie := def
	nocookie.Nocookie = true
	noFullscreen := def
	noFullscreen.AllowFullscreen = false
	noFullscreen.ProgressBarColor = "white"

	cases := []struct {
		name  string
		src   string
		start int
		opts  YoutubeOptions
		want  string
	}{
		{"embed unchanged", "https://www.youtube.com/embed/xyz?start=4", 0, custom, "https://www.youtube.com/embed/xyz?start=4"},
		{"short link", "https://youtu.be/abc", 10, custom, "https://www.youtube.com/embed/abc"},
		{"short link without id", "https://youtu.be/", 0, def, ""},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1", 0, def, "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"watch with params", "https://www.youtube.com/watch?v=dQw-4_w", 30, custom,
			"https://www.youtube.com/embed/dQw-4_w?autoplay=1&cc_lang_pref=en&controls=0&loop=1&start=30"},
		{"nocookie", "https://www.youtube.com/watch?v=abc", 0, nocookie, "https://www.youtube-nocookie.com/embed/abc"},
		{"fullscreen off", "https://www.youtube.com/watch?v=abc", 0, noFullscreen, "https://www.youtube.com/embed/abc?fs=0&color=white"},
		{"unrecognized", "https://vimeo.com/123", 0, def, ""},
		{"empty", "", 0, def, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EmbedURL(tc.src, tc.start, tc.opts))
		})
	}
}

func TestParseMarkdown(t *testing.T) {
	reg := newRegistry(t)
	doc, err := reg.ParseMarkdown("# Title\n\nSome **bold** and ~~gone~~\n\n- a\n- b\n")
	require.NoError(t, err)
	assert.Equal(t,
		"<h1>Title</h1><p>Some <strong>bold</strong> and <s>gone</s></p><ul><li><p>a</p></li><li><p>b</p></li></ul>",
		reg.SerializeHTML(doc))
}

func TestRenderDecorations(t *testing.T) {
	reg := newRegistry(t)

	doc, err := reg.ParseHTML("<p>This is</p>")
	require.NoError(t, err)
	out := reg.Render(doc, RenderOptions{Decorations: []Decoration{
		{From: 3, To: 5, Class: "search-result"},
		{From: 0, Node: true, Class: "is-empty", Attrs: map[string]string{"data-placeholder": "x"}},
	}})
	assert.Equal(t, `<p class="is-empty" data-placeholder="x">Th<span class="search-result">is</span> is</p>`, out)

	doc, err = reg.ParseHTML("<p>ab<strong>cd</strong></p>")
	require.NoError(t, err)
	out = reg.Render(doc, RenderOptions{Decorations: []Decoration{{From: 2, To: 4, Class: "hit"}}})
	assert.Equal(t, `<p>a<span class="hit">b</span><strong><span class="hit">c</span>d</strong></p>`, out)

	assert.Equal(t, "<p>ab<strong>cd</strong></p>", reg.SerializeHTML(doc))
}

func TestRegistryCommands(t *testing.T) {
	reg := newRegistry(t)
	names := reg.CommandNames()
	for _, want := range []string{
		"setParagraph", "setHeading", "toggleHeading", "setBlockquote", "toggleBulletList",
		"toggleOrderedList", "setCodeBlock", "setHorizontalRule", "setCallout", "setImage",
		"setYoutubeVideo", "insertImagePlaceholder", "insertVideoPlaceholder", "toggleBold",
		"toggleItalic", "toggleUnderline", "toggleStrike", "setLink", "unsetLink",
	} {
		assert.Contains(t, names, want)
	}
	assert.Nil(t, reg.Command("noSuchCommand", nil))

	_, err := NewWith(DefaultOptions(),
		[]*Descriptor{docDescriptor(), paragraphDescriptor(), textDescriptor(), paragraphDescriptor()}, nil)
	assert.Error(t, err)
}

func TestSetCallout(t *testing.T) {
	reg := newRegistry(t)
	doc, err := reg.ParseHTML("<p></p>")
	require.NoError(t, err)

	st := state.New(reg.Schema(), doc)
	tr := st.Tr()
	require.True(t, reg.Command("setCallout", nil)(tr))
	assert.Equal(t, `<div class="callout"><span></span></div>`, reg.SerializeHTML(st.Apply(tr).Doc))
}

// testHost runs commands against a state, like an editor would.
type testHost struct {
	st     *state.EditorState
	events *EventTarget
}

func (h *testHost) Run(cmd commands.Command) bool {
	tr := h.st.Tr()
	if !cmd(tr) {
		return false
	}
	h.st = h.st.Apply(tr)
	return true
}

func (h *testHost) Events() *EventTarget { return h.events }

func newHost(t *testing.T, reg *Registry, src string) *testHost {
	t.Helper()
	doc, err := reg.ParseHTML(src)
	require.NoError(t, err)
	return &testHost{st: state.New(reg.Schema(), doc), events: NewEventTarget()}
}

func TestImagePlaceholderView(t *testing.T) {
	reg := newRegistry(t)
	host := newHost(t, reg, "<p>a</p><image-placeholder></image-placeholder>")
	node := host.st.Doc.Child(1)
	view, ok := reg.NewView(host, node, func() int { return 3 }).(*PlaceholderView)
	require.True(t, ok)

	assert.True(t, view.Key(imageURLInput, "Enter"))
	assert.True(t, view.Key(imageURLInput, "Escape"))
	assert.False(t, view.Input(videoURLInput, "x"))
	assert.Equal(t, "<p>a</p><image-placeholder></image-placeholder>", reg.SerializeHTML(host.st.Doc))

	require.True(t, view.Input(imageURLInput, "https://x.io/y.png"))
	require.True(t, view.Key(imageURLInput, "Enter"))
	assert.Equal(t, `<p>a</p><p><span data-image-container="true"><img src="https://x.io/y.png"/></span></p>`,
		reg.SerializeHTML(host.st.Doc))
}

func TestVideoPlaceholderView(t *testing.T) {
	reg := newRegistry(t)
	host := newHost(t, reg, "<video-placeholder></video-placeholder>")
	view, ok := reg.NewView(host, host.st.Doc.Child(0), func() int { return 0 }).(*PlaceholderView)
	require.True(t, ok)

	require.True(t, view.Input(videoURLInput, "https://youtu.be/abc"))
	require.True(t, view.Key(videoURLInput, "Enter"))
	assert.Equal(t,
		`<div data-youtube-video=""><iframe width="640" height="480" allowfullscreen="true" src="https://www.youtube.com/embed/abc" start="0"></iframe></div>`,
		reg.SerializeHTML(host.st.Doc))
}

func TestImageResizerListeners(t *testing.T) {
	target := NewEventTarget()
	var deltas []float64
	r := NewImageResizer(target, func(dx, _ float64) { deltas = append(deltas, dx) })

	// a stray pointer up does nothing
	target.Dispatch(PointerEvent{Type: "pointerup"})
	r.Release()

	for drag := 0; drag < 3; drag++ {
		r.PointerDown(10, 0)
		r.PointerDown(10, 0)
		assert.Equal(t, 1, target.ListenerCount("pointermove"))
		assert.Equal(t, 1, target.ListenerCount("pointerup"))

		target.Dispatch(PointerEvent{Type: "pointermove", X: 30})
		target.Dispatch(PointerEvent{Type: "pointermove", X: 25})
		target.Dispatch(PointerEvent{Type: "pointerup", X: 25})

		assert.False(t, r.Dragging())
		assert.Equal(t, 0, target.ListenerCount("pointermove"))
		assert.Equal(t, 0, target.ListenerCount("pointerup"))
	}
	assert.Equal(t, []float64{20, -5, 20, -5, 20, -5}, deltas)

	target.Dispatch(PointerEvent{Type: "pointermove", X: 100})
	assert.Len(t, deltas, 6)
}

func TestImageViewResize(t *testing.T) {
	reg := newRegistry(t)
	host := newHost(t, reg, `<p><img src="a.png" width="300"></p>`)
	node := host.st.Doc.Child(0).Child(0)
	view, ok := reg.NewView(host, node, func() int { return 1 }).(*ImageView)
	require.True(t, ok)
	assert.Equal(t, 300.0, view.Width())

	assert.False(t, view.PointerDown("elsewhere", 0, 0))
	require.True(t, view.PointerDown(resizerID, 0, 0))

	host.events.Dispatch(PointerEvent{Type: "pointermove", X: -280})
	assert.Equal(t, float64(MinImageWidth), view.Width(), "width is clamped to the minimum")

	host.events.Dispatch(PointerEvent{Type: "pointermove", X: -200})
	assert.Equal(t, 130.0, view.Width())
	host.events.Dispatch(PointerEvent{Type: "pointermove", X: 50})
	assert.Equal(t, 380.0, view.Width())
	host.events.Dispatch(PointerEvent{Type: "pointerup"})

	assert.Equal(t, "width: 380px", view.Style())
	assert.Equal(t, "300", node.Attr("width"), "resizing is view-only")

	other := reg.Schema().Nodes["paragraph"].Create(nil, nil, nil)
	assert.False(t, view.Update(other))

	noWidth := reg.Schema().Nodes["imageNode"].Create(map[string]any{"src": "b.png"}, nil, nil)
	v2 := reg.NewView(host, noWidth, func() int { return 0 }).(*ImageView)
	assert.Equal(t, float64(DefaultImageWidth), v2.Width())
	v2.Destroy()
}

func TestFixContentFillsListItem(t *testing.T) {
	reg := newRegistry(t)
	li := reg.Schema().Nodes["listItem"]
	frag := fixContent(li, []*model.Node{reg.Schema().Node("bulletList", nil, []*model.Node{
		reg.Schema().Node("listItem", nil, []*model.Node{reg.Schema().Node("paragraph", nil, nil, nil)}, nil),
	}, nil)})
	require.Equal(t, 2, frag.ChildCount())
	assert.Equal(t, "paragraph", frag.Child(0).Type.Name)
}

package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/schema"
)

const (
	captioned    = `<span data-image-container="true"><img src="a.png"><span>cap</span></span>`
	captionedOut = `<span data-image-container="true"><img src="a.png"/><span>cap</span></span>`
)

// withImage 把 {img} 换成带标题的图片
func withImage(content, image string) string {
	return strings.ReplaceAll(content, "{img}", image)
}

func setup(t *testing.T, content string, opts Options) (*editor.Editor, *Session) {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	ed, err := editor.New(reg, content)
	require.NoError(t, err)
	s := New(ed, opts)
	ed.Focus(editor.FocusStart)
	return ed, s
}

func TestFindAcrossMarksNotBlocks(t *testing.T) {
	cases := []struct {
		name    string
		content string
		term    string
		opts    Options
		want    []Result
	}{
		{"plain", "<p>This is</p>", "is", Options{}, []Result{{3, 5}, {6, 8}}},
		{"case insensitive", "<p>Go go GO</p>", "go", Options{}, []Result{{1, 3}, {4, 6}, {7, 9}}},
		{"case sensitive", "<p>Go go GO</p>", "go", Options{CaseSensitive: true}, []Result{{4, 6}}},
		{"across marks", "<p>a<strong>bc</strong>d</p>", "bcd", Options{}, []Result{{2, 5}}},
		{"not across blocks", "<p>ab</p><p>cd</p>", "bc", Options{}, nil},
		{"not across breaks", "<p>a<br>b</p>", "ab", Options{}, nil},
		{"second block", "<p>ab</p><p>cd</p>", "c", Options{}, []Result{{5, 6}}},
		{"regex", "<p>cat cot</p>", "c.t", Options{}, []Result{{1, 4}, {5, 8}}},
		{"plain text mode", "<p>cat c.t</p>", "c.t", Options{DisableRegex: true}, []Result{{5, 8}}},
		{"invalid pattern", "<p>a(b</p>", "(", Options{}, nil},
		{"empty matches dropped", "<p>abc</p>", "x*", Options{}, nil},
		{"runes", "<p>héllo wörld</p>", "wö", Options{}, []Result{{7, 9}}},
		{"nested", "<ul><li><p>xy</p></li></ul>", "y", Options{}, []Result{{4, 5}}},
		// ab 占 1..3，图片 3..8，标题 cap 在 4..7，zz 在 8..10
		{"before image", "<p>ab{img}zz</p>", "b", Options{}, []Result{{2, 3}}},
		{"inside caption", "<p>ab{img}zz</p>", "ap", Options{}, []Result{{5, 7}}},
		{"after image", "<p>ab{img}zz</p>", "zz", Options{}, []Result{{8, 10}}},
		{"not across caption end", "<p>ab{img}zz</p>", "capz", Options{}, nil},
		{"not into caption", "<p>ab{img}zz</p>", "bc", Options{}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, s := setup(t, withImage(tc.content, captioned), tc.opts)
			s.SetSearchTerm(tc.term)
			assert.Equal(t, tc.want, s.Results())
		})
	}
}

func TestNextPreviousWrap(t *testing.T) {
	ed, s := setup(t, "<p>is is is</p>", Options{})
	s.SetSearchTerm("is")
	require.Len(t, s.Results(), 3)
	assert.Equal(t, -1, s.Index())

	require.True(t, s.Next())
	assert.Equal(t, 0, s.Index())
	first := ed.State().Selection
	assert.Equal(t, 1, first.From())
	assert.Equal(t, 3, first.To())

	for i := 0; i < 3; i++ {
		s.Next()
	}
	assert.Equal(t, 0, s.Index())
	assert.True(t, first.Eq(ed.State().Selection))

	require.True(t, s.Previous())
	assert.Equal(t, 2, s.Index())
	assert.Equal(t, 7, ed.State().Selection.From())

	s.SetSearchTerm("is")
	require.True(t, s.Previous())
	assert.Equal(t, 2, s.Index(), "previous before any move goes to the last result")
}

func TestNoResultsIsNoop(t *testing.T) {
	ed, s := setup(t, "<p>abc</p>", Options{})
	s.SetSearchTerm("zzz")
	s.SetReplaceTerm("y")
	assert.False(t, s.Next())
	assert.False(t, s.Previous())
	assert.False(t, s.Replace())
	assert.False(t, s.ReplaceAll())
	assert.Equal(t, "<p>abc</p>", ed.HTML())
}

func TestReplaceStepByStep(t *testing.T) {
	ed, s := setup(t, "<p>This is very sad is what it is</p>", Options{})
	s.SetSearchTerm("is")
	s.SetReplaceTerm("snt")

	steps := []string{
		"<p>Thsnt is very sad is what it is</p>",
		"<p>Thsnt snt very sad is what it is</p>",
		"<p>Thsnt snt very sad snt what it is</p>",
		"<p>Thsnt snt very sad snt what it snt</p>",
	}
	for _, want := range steps {
		require.True(t, s.Replace())
		assert.Equal(t, want, ed.HTML())
	}
	assert.Empty(t, s.Results())
	assert.False(t, s.Replace())
}

func TestReplaceAfterCaptionedImage(t *testing.T) {
	ed, s := setup(t, "<p>x"+captioned+"hello</p>", Options{})
	s.SetSearchTerm("lo")
	s.SetReplaceTerm("LO")
	require.Equal(t, []Result{{10, 12}}, s.Results())
	require.True(t, s.Replace())
	assert.Equal(t, "<p>x"+captionedOut+"helLO</p>", ed.HTML())
	assert.Empty(t, s.Results())
}

func TestReplaceKeepsResultWhenChangeFails(t *testing.T) {
	ed, s := setup(t, "<p>abc</p>", Options{})
	s.SetSearchTerm("b")
	s.results = []Result{{100, 101}, {2, 3}}
	assert.False(t, s.Replace())
	assert.Equal(t, []Result{{100, 101}, {2, 3}}, s.Results())
	assert.Equal(t, "<p>abc</p>", ed.HTML())
}

func TestReplaceAllRebasesOffsets(t *testing.T) {
	cases := []struct {
		name    string
		content string
		term    string
		with    string
		want    string
	}{
		{"shorter", "<p>This is very sad is what it is</p>", "is", "s", "<p>Ths s very sad s what it s</p>"},
		{"longer", "<p>This is very sad is what it is</p>", "is", "snt", "<p>Thsnt snt very sad snt what it snt</p>"},
		{"adjacent shorter", "<p>aaaa</p>", "aa", "b", "<p>bb</p>"},
		{"adjacent longer", "<p>aaaa</p>", "aa", "xyz", "<p>xyzxyz</p>"},
		{"adjacent delete", "<p>abab!</p>", "ab", "", "<p>!</p>"},
		{"same length", "<p>abab</p>", "ab", "cd", "<p>cdcd</p>"},
		{"across blocks", "<p>aXb</p><p>Xc</p>", "x", "--", "<p>a--b</p><p>--c</p>"},
		{"across marks", "<p>a<strong>bc</strong>d bcd</p>", "bcd", "X", "<p>aX X</p>"},
		{"around image", "<p>zz{img}zz</p>", "zz", "Y", "<p>Y{img}Y</p>"},
		{"inside caption", "<p>ab{img}zz</p>", "cap", "hat", "<p>ab{hat}zz</p>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ed, s := setup(t, withImage(tc.content, captioned), Options{})
			s.SetSearchTerm(tc.term)
			s.SetReplaceTerm(tc.with)
			require.True(t, s.ReplaceAll())
			want := strings.ReplaceAll(tc.want, "{hat}", strings.ReplaceAll(captionedOut, "cap", "hat"))
			assert.Equal(t, withImage(want, captionedOut), ed.HTML())
		})
	}
}

func TestReplaceAllIsOneTransaction(t *testing.T) {
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	updates := 0
	ed, err := editor.New(reg, "<p>a a a</p>", editor.WithOnUpdate(func(string) { updates++ }))
	require.NoError(t, err)
	s := New(ed, Options{})
	s.SetSearchTerm("a")
	s.SetReplaceTerm("bb")
	require.True(t, s.ReplaceAll())
	assert.Equal(t, 1, updates)
	assert.Equal(t, "<p>bb bb bb</p>", ed.HTML())
}

func TestDecorationsOnlyInView(t *testing.T) {
	ed, s := setup(t, "<p>This is</p>", Options{})
	s.SetSearchTerm("is")
	assert.Equal(t, `<p>Th<span class="search-result">is</span> <span class="search-result">is</span></p>`, ed.ViewHTML())
	assert.Equal(t, "<p>This is</p>", ed.HTML())

	custom, cs := setup(t, "<p>ab</p>", Options{ResultClass: "hit"})
	cs.SetSearchTerm("b")
	assert.Equal(t, `<p>a<span class="hit">b</span></p>`, custom.ViewHTML())
}

func TestResultsFollowEdits(t *testing.T) {
	ed, s := setup(t, "<p>ab</p>", Options{})
	s.SetSearchTerm("b")
	require.Equal(t, []Result{{2, 3}}, s.Results())
	ed.TypeText("bb")
	assert.Equal(t, []Result{{1, 2}, {2, 3}, {4, 5}}, s.Results())
}

func TestShortcutsAndControls(t *testing.T) {
	ed, s := setup(t, "<p>one two one</p>", Options{})
	require.True(t, ed.Key("Mod-f"))
	assert.True(t, s.Open())
	assert.Equal(t, "", s.SearchTerm())

	require.True(t, s.Input(SearchInput, "one"))
	require.Len(t, s.Results(), 2)

	require.True(t, ed.Key("Control-,"))
	assert.Equal(t, 0, s.Index())
	require.True(t, ed.Key("Control-,"))
	assert.Equal(t, 1, s.Index())
	require.True(t, ed.Key("Control-."))
	assert.Equal(t, 0, s.Index())

	require.True(t, s.Input(ReplaceInput, "1"))
	require.True(t, s.Click(ReplaceOnce))
	assert.Equal(t, "<p>1 two one</p>", ed.HTML())
	require.True(t, s.Click(ReplaceAll))
	assert.Equal(t, "<p>1 two 1</p>", ed.HTML())
	assert.False(t, s.Click("unknown"))

	s.Close()
	assert.False(t, s.Open())
	assert.Empty(t, s.Results())
}

func TestCompileCaches(t *testing.T) {
	a := Compile("x+", Options{})
	b := Compile("x+", Options{})
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.Nil(t, Compile("", Options{}))
	assert.Nil(t, Compile("[", Options{}))
	assert.NotNil(t, Compile("[", Options{DisableRegex: true}))
}

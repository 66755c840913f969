package schema

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/model"
	"blockEditor/backend/internal/state"
)

// YoutubeOptions configures the rendered video embed. Zero values leave the
// matching embed parameter out.
type YoutubeOptions struct {
	Width             int    `mapstructure:"Width"`
	Height            int    `mapstructure:"Height"`
	AllowFullscreen   bool   `mapstructure:"AllowFullscreen"`
	Autoplay          bool   `mapstructure:"Autoplay"`
	CCLanguage        string `mapstructure:"CCLanguage"`
	CCLoadPolicy      bool   `mapstructure:"CCLoadPolicy"`
	Controls          bool   `mapstructure:"Controls"`
	DisableKBControls bool   `mapstructure:"DisableKBControls"`
	EnableIFrameAPI   bool   `mapstructure:"EnableIFrameAPI"`
	EndTime           int    `mapstructure:"EndTime"`
	InterfaceLanguage string `mapstructure:"InterfaceLanguage"`
	IVLoadPolicy      int    `mapstructure:"IVLoadPolicy"`
	Loop              bool   `mapstructure:"Loop"`
	ModestBranding    bool   `mapstructure:"ModestBranding"`
	Nocookie          bool   `mapstructure:"Nocookie"`
	Origin            string `mapstructure:"Origin"`
	Playlist          string `mapstructure:"Playlist"`
	ProgressBarColor  string `mapstructure:"ProgressBarColor"`
	ContainerStyles   string `mapstructure:"ContainerStyles"`
	FrameStyles       string `mapstructure:"FrameStyles"`
}

// DefaultYoutubeOptions matches the stock video embed: 640x480 with
// fullscreen and player controls.
func DefaultYoutubeOptions() YoutubeOptions {
	return YoutubeOptions{Width: 640, Height: 480, AllowFullscreen: true, Controls: true}
}

var videoIDPattern = regexp.MustCompile(`v=([-\w]+)`)

func embedBase(nocookie bool) string {
	if nocookie {
		return "https://www.youtube-nocookie.com/embed/"
	}
	return "https://www.youtube.com/embed/"
}

// EmbedURL turns a pasted video URL into its embed URL. Embed URLs come back
// unchanged, youtu.be links keep their last path segment as the video id,
// and watch URLs use their v= parameter. Anything else yields "".
func EmbedURL(src string, start int, opts YoutubeOptions) string {
	if strings.Contains(src, "/embed/") {
		return src
	}
	if strings.Contains(src, "youtu.be") {
		id := src[strings.LastIndex(src, "/")+1:]
		if id == "" {
			return ""
		}
		return embedBase(opts.Nocookie) + id
	}
	m := videoIDPattern.FindStringSubmatch(src)
	if m == nil {
		return ""
	}
	out := embedBase(opts.Nocookie) + m[1]

	var params []string
	add := func(cond bool, p string) {
		if cond {
			params = append(params, p)
		}
	}
	add(!opts.AllowFullscreen, "fs=0")
	add(opts.Autoplay, "autoplay=1")
	add(opts.CCLanguage != "", "cc_lang_pref="+opts.CCLanguage)
	add(opts.CCLoadPolicy, "cc_load_policy=1")
	add(!opts.Controls, "controls=0")
	add(opts.DisableKBControls, "disablekb=1")
	add(opts.EnableIFrameAPI, "enablejsapi=1")
	add(opts.EndTime != 0, "end="+strconv.Itoa(opts.EndTime))
	add(opts.InterfaceLanguage != "", "hl="+opts.InterfaceLanguage)
	add(opts.IVLoadPolicy != 0, "iv_load_policy="+strconv.Itoa(opts.IVLoadPolicy))
	add(opts.Loop, "loop=1")
	add(opts.ModestBranding, "modestbranding=1")
	add(opts.Origin != "", "origin="+opts.Origin)
	add(opts.Playlist != "", "playlist="+opts.Playlist)
	add(start != 0, "start="+strconv.Itoa(start))
	add(opts.ProgressBarColor != "", "color="+opts.ProgressBarColor)
	if len(params) > 0 {
		out += "?" + strings.Join(params, "&")
	}
	return out
}

func youtubeDescriptor(opts YoutubeOptions) *Descriptor {
	return &Descriptor{
		Name: "youtube",
		Node: &model.NodeSpec{
			Group: "block",
			Atom:  true,
			Attrs: map[string]*model.AttributeSpec{
				"src":    {},
				"start":  {Default: 0},
				"width":  {Default: opts.Width},
				"height": {Default: opts.Height},
			},
		},
		Parse: []ParseRule{{
			Tag: "iframe",
			Match: func(el *html.Node) bool {
				if p := el.Parent; p != nil && p.Type == html.ElementNode {
					if _, ok := attr(p, "data-youtube-video"); ok {
						return true
					}
				}
				src, _ := attr(el, "src")
				return strings.Contains(src, "youtube.com")
			},
			Attrs: func(el *html.Node) map[string]any {
				attrs := map[string]any{"src": attrOr(el, "src")}
				for _, key := range []string{"start", "width", "height"} {
					if v, ok := attr(el, key); ok {
						if n, err := strconv.Atoi(v); err == nil {
							attrs[key] = n
						}
					}
				}
				return attrs
			},
		}},
		Render: func(node *model.Node) (*html.Node, *html.Node) {
			div := element("div", "data-youtube-video", "")
			setAttr(div, "style", opts.ContainerStyles)
			frame := element("iframe")
			setAttr(frame, "width", node.Attr("width"))
			setAttr(frame, "height", node.Attr("height"))
			if opts.AllowFullscreen {
				setAttr(frame, "allowfullscreen", "true")
			}
			if opts.Autoplay {
				setAttr(frame, "autoplay", "true")
			}
			setAttr(frame, "style", opts.FrameStyles)
			start := node.IntAttr("start", 0)
			setAttr(frame, "src", EmbedURL(node.Attr("src"), start, opts))
			setAttr(frame, "start", strconv.Itoa(start))
			div.AppendChild(frame)
			return div, nil
		},
		Commands: map[string]CommandFunc{
			"setYoutubeVideo": func(args map[string]any) commands.Command {
				attrs := map[string]any{"src": stringArg(args, "src")}
				for _, key := range []string{"start", "width", "height"} {
					if _, ok := args[key]; ok {
						attrs[key] = intArg(args, key, 0)
					}
				}
				return SetYoutubeVideo(attrs)
			},
		},
	}
}

// SetYoutubeVideo replaces the selection with a video embed. The source URL
// is stored as given.
func SetYoutubeVideo(attrs map[string]any) commands.Command {
	return func(tr *state.Transaction) bool {
		nt := tr.Doc.Type.Schema.Nodes["youtube"]
		if nt == nil {
			return false
		}
		return commands.InsertContent(nt.Create(attrs, nil, nil))(tr)
	}
}

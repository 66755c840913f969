package editor

import (
	"strings"
	"unicode/utf8"

	"blockEditor/backend/internal/commands"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/state"
)

// NormalizeKey puts a key chord such as "Mod-Shift-b" or "Control-," into
// canonical form: modifiers ordered Alt, Ctrl, Meta, Shift, "Mod" and
// "Control" read as Ctrl, "Cmd" as Meta, and single letters lower-cased.
func NormalizeKey(key string) string {
	if key == "-" || strings.HasSuffix(key, "--") {
		return normalizeParts(strings.TrimSuffix(key, "-"), "-")
	}
	i := strings.LastIndex(key, "-")
	if i <= 0 {
		return normalizeParts("", key)
	}
	return normalizeParts(key[:i], key[i+1:])
}

func normalizeParts(mods, name string) string {
	var alt, ctrl, meta, shift bool
	for _, m := range strings.Split(mods, "-") {
		switch strings.ToLower(m) {
		case "":
		case "alt", "a", "option":
			alt = true
		case "ctrl", "control", "c", "mod":
			ctrl = true
		case "meta", "cmd", "m":
			meta = true
		case "shift", "s":
			shift = true
		}
	}
	if name == "Space" {
		name = " "
	}
	if utf8.RuneCountInString(name) == 1 {
		name = strings.ToLower(name)
	}
	var sb strings.Builder
	if alt {
		sb.WriteString("Alt-")
	}
	if ctrl {
		sb.WriteString("Ctrl-")
	}
	if meta {
		sb.WriteString("Meta-")
	}
	if shift {
		sb.WriteString("Shift-")
	}
	sb.WriteString(name)
	return sb.String()
}

// Keymap binds normalized key chords to commands.
type Keymap map[string]commands.Command

// Bind adds a binding. "Mod" chords are bound for both Ctrl and Meta.
func (k Keymap) Bind(key string, cmd commands.Command) {
	k[NormalizeKey(key)] = cmd
	if strings.Contains(key, "Mod-") {
		k[NormalizeKey(strings.Replace(key, "Mod-", "Meta-", 1))] = cmd
	}
}

func registryCommand(reg *schema.Registry, name string, args map[string]any) commands.Command {
	return func(tr *state.Transaction) bool {
		cmd := reg.Command(name, args)
		return cmd != nil && cmd(tr)
	}
}

func defaultKeymap(reg *schema.Registry) Keymap {
	k := Keymap{}
	k.Bind("Enter", commands.SplitBlock())
	k.Bind("Shift-Enter", registryCommand(reg, "setHardBreak", nil))
	k.Bind("Backspace", commands.DeleteBackward())
	k.Bind("Delete", commands.DeleteForward())
	k.Bind("ArrowLeft", commands.MoveCaret(-1, false))
	k.Bind("ArrowRight", commands.MoveCaret(1, false))
	k.Bind("Shift-ArrowLeft", commands.MoveCaret(-1, true))
	k.Bind("Shift-ArrowRight", commands.MoveCaret(1, true))
	k.Bind("Mod-a", commands.SelectAll())
	k.Bind("Mod-b", registryCommand(reg, "toggleBold", nil))
	k.Bind("Mod-i", registryCommand(reg, "toggleItalic", nil))
	k.Bind("Mod-u", registryCommand(reg, "toggleUnderline", nil))
	k.Bind("Mod-Shift-s", registryCommand(reg, "toggleStrike", nil))
	k.Bind("Mod-e", registryCommand(reg, "toggleCode", nil))
	k.Bind("Mod-Alt-0", registryCommand(reg, "setParagraph", nil))
	for level := 1; level <= 6; level++ {
		k.Bind("Mod-Alt-"+string(rune('0'+level)), registryCommand(reg, "toggleHeading", map[string]any{"level": level}))
	}
	k.Bind("Mod-Shift-b", registryCommand(reg, "setBlockquote", nil))
	k.Bind("Mod-Shift-7", registryCommand(reg, "toggleOrderedList", nil))
	k.Bind("Mod-Shift-8", registryCommand(reg, "toggleBulletList", nil))
	k.Bind("Mod-Alt-c", registryCommand(reg, "setCodeBlock", nil))
	return k
}

// Key handles a key press: plugins first, then the keymap, then plain
// characters are typed.
func (ed *Editor) Key(key string) bool {
	for _, p := range ed.plugins {
		if h, ok := p.(KeyHandler); ok && h.HandleKey(ed, key) {
			return true
		}
	}
	if !ed.editable {
		return false
	}
	if cmd, ok := ed.keymap[NormalizeKey(key)]; ok {
		return ed.Run(cmd)
	}
	// Plain and shifted characters are typed as given.
	text := strings.TrimPrefix(key, "Shift-")
	if text == "Space" {
		text = " "
	}
	if utf8.RuneCountInString(text) == 1 {
		return ed.Run(commands.InsertText(text))
	}
	return false
}

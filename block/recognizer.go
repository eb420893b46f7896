package block

import (
	"strings"

	"github.com/blockpp/blockpp/reader"
	"github.com/blockpp/blockpp/registry"
)

// ItemKind distinguishes a plain content fragment from a directive
// occurrence recognized within a logical line.
type ItemKind int

const (
	ItemContent ItemKind = iota
	ItemDirective
)

// Item is one recognized fragment of a logical line: either Content or a
// directive call (Tag, Arg). A single anchored line always yields exactly
// one Item; a line with floating directives may yield several, interleaving
// Content and ItemDirective in source order (§4.4).
type Item struct {
	Kind ItemKind
	Text string // meaningful when Kind == ItemContent
	Tag  string // meaningful when Kind == ItemDirective
	Arg  string // meaningful when Kind == ItemDirective
	File string
	Line int
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isIdentPart(b byte) bool { return isIdentStart(b) || (b >= '0' && b <= '9') }

// splitTagArg reads a leading identifier off s and returns it plus the
// trimmed remainder. ok is false if s does not begin with an identifier.
func splitTagArg(s string) (tag, arg string, ok bool) {
	i := 0
	if i >= len(s) || !isIdentStart(s[i]) {
		return "", "", false
	}
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:]), true
}

// Recognize classifies one logical line into Items. prefix is the
// configured directive prefix byte; dirs resolves candidate tags.
//
// Anchored lines (line.Anchored) are tried first: strip leading whitespace
// and the prefix, read a tag, and look it up. An unresolved tag degrades the
// whole line to Content, preserving compatibility with non-directive lines
// that merely start with the prefix character (§4.4). Anchor recognition
// always wins over floating recognition on the same line, per the
// documented tie-break.
//
// Non-anchored lines are scanned left to right for prefix occurrences that
// resolve to a tag whose descriptor has Floating enabled; each match splits
// off the preceding text as Content, the directive call, and continues
// scanning the remainder. No built-in directive enables Floating (see
// registry.RegisterBuiltins); this path only activates for registered
// extensions.
func Recognize(line reader.Line, prefix byte, dirs *registry.Directives) []Item {
	text := line.Text

	if line.Anchored {
		i := 0
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i < len(text) && text[i] == prefix {
			if tag, arg, ok := splitTagArg(text[i+1:]); ok {
				if _, found := dirs.Lookup(tag); found {
					return []Item{{Kind: ItemDirective, Tag: tag, Arg: arg, File: line.File, Line: line.StartLine}}
				}
			}
		}
		return []Item{{Kind: ItemContent, Text: text, File: line.File, Line: line.StartLine}}
	}

	var items []Item
	remaining := text
	for remaining != "" {
		idx := strings.IndexByte(remaining, prefix)
		if idx < 0 {
			items = append(items, Item{Kind: ItemContent, Text: remaining, File: line.File, Line: line.StartLine})
			break
		}

		tag, rest, ok := splitTagArg(remaining[idx+1:])
		var desc registry.Descriptor
		var found bool
		if ok {
			desc, found = dirs.Lookup(tag)
		}
		if !ok || !found || !desc.Floating {
			items = append(items, Item{Kind: ItemContent, Text: remaining[:idx+1], File: line.File, Line: line.StartLine})
			remaining = remaining[idx+1:]
			continue
		}

		if idx > 0 {
			items = append(items, Item{Kind: ItemContent, Text: remaining[:idx], File: line.File, Line: line.StartLine})
		}
		argText, trailing := rest, ""
		if next := strings.IndexByte(rest, prefix); next >= 0 {
			argText, trailing = rest[:next], rest[next:]
		}
		items = append(items, Item{
			Kind: ItemDirective,
			Tag:  tag,
			Arg:  strings.TrimSpace(argText),
			File: line.File,
			Line: line.StartLine,
		})
		remaining = trailing
	}
	if len(items) == 0 {
		items = append(items, Item{Kind: ItemContent, Text: "", File: line.File, Line: line.StartLine})
	}
	return items
}

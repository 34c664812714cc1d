// Package richtext turns Telegram message entities into HTML markup.
package richtext

import (
	"html"
	"sort"
	"strings"
	"unicode/utf16"
)

// Span describes one formatting entity. Offset and Length count UTF-16 code units.
type Span struct {
	Type   string
	Offset int
	Length int
	URL    string
}

// Entity types that produce markup. Anything else is kept as plain text.
const (
	Bold          = "bold"
	Italic        = "italic"
	Code          = "code"
	Pre           = "pre"
	TextLink      = "text_link"
	Strikethrough = "strikethrough"
	Underline     = "underline"
	Spoiler       = "spoiler"
)

func tags(s Span) (string, string, bool) {
	switch s.Type {
	case Bold:
		return "<b>", "</b>", true
	case Italic:
		return "<i>", "</i>", true
	case Code:
		return "<code>", "</code>", true
	case Pre:
		return "<pre>", "</pre>", true
	case TextLink:
		return `<a href="` + html.EscapeString(s.URL) + `">`, "</a>", true
	case Strikethrough:
		return "<del>", "</del>", true
	case Underline:
		return "<u>", "</u>", true
	case Spoiler:
		return "<tg-spoiler>", "</tg-spoiler>", true
	}
	return "", "", false
}

type mark struct {
	pos    int
	open   bool
	span   Span
	order  int
	markup string
}

// ToHTML renders text with spans resolved to inline HTML. Plain segments are escaped.
//
// Spans are taken from the highest offset down and every insertion point is
// computed against the original text, so earlier markup never shifts the
// offsets of spans that are still pending. Spans that fall outside the text
// are skipped.
func ToHTML(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))

	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset > ordered[j].Offset })

	marks := make([]mark, 0, len(ordered)*2)
	for i, s := range ordered {
		if s.Offset < 0 || s.Length <= 0 || s.Offset+s.Length > len(units) {
			continue
		}
		open, closing, ok := tags(s)
		if !ok {
			continue
		}
		marks = append(marks,
			mark{pos: s.Offset, open: true, span: s, order: i, markup: open},
			mark{pos: s.Offset + s.Length, span: s, order: i, markup: closing},
		)
	}
	sort.SliceStable(marks, func(i, j int) bool { return less(marks[i], marks[j]) })

	var b strings.Builder
	prev := 0
	for _, m := range marks {
		b.WriteString(html.EscapeString(string(utf16.Decode(units[prev:m.pos]))))
		b.WriteString(m.markup)
		prev = m.pos
	}
	b.WriteString(html.EscapeString(string(utf16.Decode(units[prev:]))))
	return b.String()
}

// less orders insertion points so that spans nest: closings precede openings at
// the same position, outer spans open first and close last.
func less(a, b mark) bool {
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	if a.open != b.open {
		return !a.open
	}
	if a.open {
		if a.span.Length != b.span.Length {
			return a.span.Length > b.span.Length
		}
		return a.order < b.order
	}
	if a.span.Offset != b.span.Offset {
		return a.span.Offset > b.span.Offset
	}
	return a.order > b.order
}

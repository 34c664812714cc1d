package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Specials   = regexp.MustCompile("([_*`\\[])")
	mdV2Specials   = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
	mdV2CodeChars  = regexp.MustCompile("([`\\\\])")
	mdV2LinkChars  = regexp.MustCompile(`([)\\])`)
	escapeTemplate = `\${1}`
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2, entityType "pre"/"code" and "text_link" use the narrower escape sets
// Telegram applies inside those entities.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, escapeTemplate), nil
	case MarkdownV2:
		switch entityType {
		case "pre", "code":
			return mdV2CodeChars.ReplaceAllString(text, escapeTemplate), nil
		case "text_link":
			return mdV2LinkChars.ReplaceAllString(text, escapeTemplate), nil
		}
		return mdV2Specials.ReplaceAllString(text, escapeTemplate), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV1 is EscapeMarkdown for legacy Markdown, which cannot fail.
func EscapeV1(text string) string {
	out, _ := EscapeMarkdown(text, MarkdownV1, "")
	return out
}

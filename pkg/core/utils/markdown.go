package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips conversational filler and outer markdown code blocks.
func CleanMarkdown(input string) string {
	cleaned := StripCodeFence(input)

	// Drop a leading "Sure, here is..." line
	if nl := strings.Index(cleaned, "\n"); nl > 0 {
		first := strings.ToLower(strings.TrimSpace(cleaned[:nl]))
		for _, filler := range []string{"sure", "certainly", "here is", "here's"} {
			if strings.HasPrefix(first, filler) {
				cleaned = strings.TrimSpace(cleaned[nl+1:])
				break
			}
		}
	}
	return cleaned
}

// FirstParagraph returns the plain text of the first paragraph in md, or
// "" when there is none.
func FirstParagraph(md string) string {
	source := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var out string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindParagraph {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		collectText(n, source, &sb)
		out = strings.TrimSpace(sb.String())
		return ast.WalkStop, nil
	})
	return out
}

func collectText(n ast.Node, source []byte, sb *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
			continue
		}
		collectText(c, source, sb)
	}
}

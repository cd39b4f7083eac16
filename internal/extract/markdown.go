package extract

import (
	"regexp"
	"strings"

	"github.com/docsmith/docsmith/internal/document"
)

// headingPattern matches ATX headings: # Title through ###### Title.
var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// splitHeadings splits markdown or plain text into blocks at headings.
// Each block carries the heading it sits under as its Section; text before
// the first heading (or heading-free text) forms a block with no section.
func splitHeadings(docID, content string) []*document.TextBlock {
	var blocks []*document.TextBlock
	var current []string
	section := ""

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		blocks = append(blocks, &document.TextBlock{
			DocumentID: docID,
			Seq:        len(blocks),
			Text:       text,
			Section:    section,
		})
	}

	inFence := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			current = append(current, line)
			continue
		}
		// Headings inside code fences are literal text
		if !inFence {
			if m := headingPattern.FindStringSubmatch(line); m != nil {
				flush()
				section = m[2]
				current = append(current, line)
				continue
			}
		}
		current = append(current, line)
	}
	flush()

	return blocks
}

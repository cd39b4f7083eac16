package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/docsmith/docsmith/internal/document"
	ierr "github.com/docsmith/docsmith/internal/errors"
)

// skipElements never contribute visible text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"template": true,
}

// sectionElements introduce a new section labeled by their text.
var sectionElements = map[string]bool{
	"h1": true,
	"h2": true,
	"h3": true,
}

// blockElements force a paragraph break in the accumulated text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true,
	"h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
	"section": true, "article": true, "table": true, "ul": true, "ol": true,
}

// extractHTML walks the document tree and emits one block per section.
// Non-UTF-8 input is transcoded using the declared or sniffed charset.
func extractHTML(docID string, data []byte) ([]*document.TextBlock, error) {
	reader, err := charset.NewReader(bytes.NewReader(data), "")
	if err != nil {
		return nil, ierr.CorruptDocument("cannot determine HTML character encoding", err)
	}

	root, err := html.Parse(reader)
	if err != nil {
		return nil, ierr.CorruptDocument("malformed HTML", err)
	}

	w := &htmlWalker{docID: docID}
	w.walk(root)
	w.flush()
	return w.blocks, nil
}

type htmlWalker struct {
	docID   string
	blocks  []*document.TextBlock
	section string
	buf     strings.Builder
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if skipElements[n.Data] {
			return
		}
		if sectionElements[n.Data] {
			w.flush()
			w.section = strings.TrimSpace(textContent(n))
			return
		}
	}

	if n.Type == html.TextNode {
		w.appendText(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		w.buf.WriteString("\n")
	}
}

// appendText adds a text node, collapsing runs of whitespace.
func (w *htmlWalker) appendText(text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	if w.buf.Len() > 0 && !strings.HasSuffix(w.buf.String(), "\n") {
		w.buf.WriteString(" ")
	}
	w.buf.WriteString(strings.Join(fields, " "))
}

func (w *htmlWalker) flush() {
	text := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if text == "" {
		return
	}
	w.blocks = append(w.blocks, &document.TextBlock{
		DocumentID: w.docID,
		Seq:        len(w.blocks),
		Text:       text,
		Section:    w.section,
	})
}

// textContent returns the concatenated text under a node.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

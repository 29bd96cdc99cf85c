// Package perception turns uploaded documents into plain text for the
// document scanner. Extraction is best effort: failures yield "" and never
// abort a resolution.
package perception

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"mednerd/internal/logging"
)

const summaryRunes = 200

// ExtractText returns the text of a document, choosing the decoder from the
// filename extension and, for unnamed uploads, from the content.
func ExtractText(filename string, data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryPerception).Warn("Text extraction for %s panicked: %v", filename, r)
			text = ""
		}
	}()

	if len(data) == 0 {
		return ""
	}

	switch kind(filename, data) {
	case "pdf":
		var err error
		if text, err = pdfText(data); err != nil {
			logging.Get(logging.CategoryPerception).Warn("Could not extract text from %s: %v", filename, err)
			return ""
		}
	case "html":
		text = htmlText(data)
	default:
		text = decodeText(data)
	}
	logging.PerceptionDebug("Extracted %d characters from %s", utf8.RuneCountInString(text), filename)
	return text
}

// Summary returns the leading part of a report for display, with whitespace
// runs collapsed.
func Summary(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= summaryRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:summaryRunes]) + "..."
}

func kind(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".html", ".htm", ".xhtml":
		return "html"
	case ".txt", ".md", ".csv":
		return "text"
	}
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return "pdf"
	case looksLikeHTML(data):
		return "html"
	default:
		return "text"
	}
}

func looksLikeHTML(data []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// decodeText returns UTF-8 input as is and reads anything else as Windows-1252.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(decoded)
}

func htmlText(data []byte) string {
	doc, err := html.Parse(bytes.NewReader([]byte(decodeText(data))))
	if err != nil {
		return ""
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}

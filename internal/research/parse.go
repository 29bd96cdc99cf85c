package research

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mednerd/internal/perception"
	"mednerd/internal/types"
)

const (
	minParagraphRunes = 40
	maxParagraphs     = 2
)

var errNoMainContent = errors.New("page has no <main> element")

// ParseConditionPage builds a live entry from an NHS condition page.
// query is the lower-cased user query; it supplies the keywords and the
// fallback title.
func ParseConditionPage(body []byte, query string) (*types.ConditionEntry, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	main := perception.FindElement(doc, perception.Tag("main"))
	if main == nil {
		return nil, errNoMainContent
	}

	title := ""
	if h1 := perception.FindElement(doc, perception.Tag("h1")); h1 != nil {
		title = strings.TrimSpace(perception.TextContent(h1))
	}
	if title == "" {
		title = cases.Title(language.English).String(strings.TrimSpace(query))
	}

	summary := perception.FindElement(main, func(n *html.Node) bool {
		return n.Data == "section" && perception.HasClass(n, "nhsuk-section")
	})
	if summary == nil {
		summary = main
	}

	entry := &types.ConditionEntry{
		Condition:   title,
		Keywords:    types.DedupeKeywords(strings.Fields(strings.ToLower(query))),
		Explanation: summaryText(summary),
	}
	types.LivePlaceholders(entry)
	return entry, nil
}

// summaryText joins the first substantial paragraphs under n.
func summaryText(n *html.Node) string {
	var paragraphs []string
	perception.WalkElements(n, func(el *html.Node) bool {
		if el.Data != "p" {
			return true
		}
		text := strings.TrimSpace(perception.TextContent(el))
		if utf8.RuneCountInString(text) > minParagraphRunes {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < maxParagraphs
	})
	if len(paragraphs) == 0 {
		return types.LiveExplanationPlaceholder
	}
	return strings.Join(paragraphs, " ")
}

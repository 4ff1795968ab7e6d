package knowledge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText strips HTML markup from rich-text fields and collapses whitespace.
// Text without tags is only whitespace-normalized.
func plainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return collapseSpaces(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	doc.Find("script, style, noscript").Remove()

	// Block elements would otherwise glue adjacent words together.
	doc.Find("p, li, br, div, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}


package parser

import (
	"mime"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"politefetch/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// IsHTML reports whether contentType names an HTML document. An empty type
// counts, some servers omit it.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Summarize reads the already UTF-8 decoded body and pulls out the page
// title, description, canonical link, language and visible word count.
func (p *Parser) Summarize(body string) (models.PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return models.PageMeta{}, err
	}

	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	meta := models.PageMeta{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Canonical: strings.TrimSpace(doc.Find(`link[rel="canonical"]`).AttrOr("href", "")),
	}
	meta.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if meta.Description == "" {
		meta.Description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	meta.Language = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	if meta.Language == "" {
		meta.Language = strings.TrimSpace(doc.Find(`meta[property="og:locale"]`).AttrOr("content", ""))
	}

	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Find("body").Text(), " "))
	if text != "" {
		meta.WordCount = len(strings.Fields(text))
	}
	return meta, nil
}

package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

type Enrichment struct {
	ImageURL string
	Excerpt  string
}

// Image URLs containing these are site chrome rather than article images.
var rejectedImageMarkers = []string{"logo", "icon", "google", "default", "fallback", "avatar", "profile"}

var imageMetaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
	`meta[name="og:image"]`,
	`meta[itemprop="image"]`,
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run pulls the lead image and an excerpt out of an article page.
func (e *Extractor) Run(data []byte, pageURL *url.URL) (Enrichment, error) {
	if len(data) == 0 {
		return Enrichment{}, fmt.Errorf("HTML data is empty")
	}

	var enrichment Enrichment

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err == nil {
		enrichment.Excerpt = strings.Join(strings.Fields(article.Excerpt), " ")
		enrichment.ImageURL = e.acceptImage(article.Image, pageURL)
	} else {
		slog.Debug("Readability failed, falling back to meta tags", "url", pageURL, "error", err)
	}

	if enrichment.ImageURL == "" {
		enrichment.ImageURL = e.metaImage(data, pageURL)
	}

	if enrichment.ImageURL == "" && enrichment.Excerpt == "" {
		return Enrichment{}, fmt.Errorf("no image or excerpt found")
	}

	return enrichment, nil
}

func (e *Extractor) metaImage(data []byte, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	for _, selector := range imageMetaSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			content, _ := s.Attr("content")
			found = e.acceptImage(content, pageURL)
			return found == ""
		})
		if found != "" {
			return found
		}
	}

	return ""
}

// acceptImage resolves src against the page and rejects logos, icons and
// URLs without a host.
func (e *Extractor) acceptImage(src string, pageURL *url.URL) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}

	parsed, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if pageURL != nil {
		parsed = pageURL.ResolveReference(parsed)
	}
	if !isHTTPURL(parsed.String()) {
		return ""
	}

	lower := strings.ToLower(parsed.String())
	for _, marker := range rejectedImageMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}

	return parsed.String()
}

package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

const sourceKey = "source"

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTranslator{}

	return &Parser{
		gofeedParser: parser,
	}
}

func (p *Parser) Run(data []byte) ([]Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        item.Link,
		Description: StripHTML(cmp.Or(item.Description, item.Content)),
		Source:      item.Custom[sourceKey],
		ImageURL:    p.extractImage(item),
		Published:   cmp.Or(item.Published, item.Updated),
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed
	}

	return normalized
}

// extractImage looks at the item image, image enclosures, then media:content
// and media:thumbnail.
func (p *Parser) extractImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, name := range []string{"content", "thumbnail"} {
		for _, ext := range media[name] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	return ""
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// sourceTranslator keeps the RSS <source> title, which the universal
// gofeed item drops, in Item.Custom.
type sourceTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *sourceTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	result, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}

	rssFeed, ok := feed.(*rss.Feed)
	if !ok || len(rssFeed.Items) != len(result.Items) {
		return result, nil
	}

	for i, item := range rssFeed.Items {
		if item.Source == nil || item.Source.Title == "" {
			continue
		}
		if result.Items[i].Custom == nil {
			result.Items[i].Custom = make(map[string]string)
		}
		result.Items[i].Custom[sourceKey] = strings.TrimSpace(item.Source.Title)
	}

	return result, nil
}

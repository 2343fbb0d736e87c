package dataset

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var stringFields = []string{"id", "title", "description", "imageUrl", "source", "url", "link", "publishedAt"}

var publishedAtLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	DisplayTimeLayout,
	"2006-01-02",
}

// Transform validates a raw crawler dataset and converts it into published
// items. The input must be a JSON array of objects; fields the publisher does
// not know are ignored.
func Transform(data []byte) ([]NewsItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedInput
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	items := make([]NewsItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, element := range raw {
		fields, err := decodeFields(i, element)
		if err != nil {
			return nil, err
		}

		item, err := normalizeItem(i, fields)
		if err != nil {
			return nil, err
		}

		if seen[item.ID] {
			return nil, &SchemaError{Index: i, Field: "id", Reason: fmt.Sprintf("duplicates %q", item.ID)}
		}
		seen[item.ID] = true

		items = append(items, item)
	}

	return items, nil
}

func decodeFields(index int, element json.RawMessage) (map[string]string, error) {
	var object map[string]any
	if err := json.Unmarshal(element, &object); err != nil || object == nil {
		return nil, &SchemaError{Index: index, Reason: "is not an object"}
	}

	fields := make(map[string]string, len(stringFields))
	for _, name := range stringFields {
		value, ok := object[name]
		if !ok || value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return nil, &SchemaError{Index: index, Field: name, Reason: "must be a string"}
		}
		fields[name] = strings.TrimSpace(s)
	}

	return fields, nil
}

func normalizeItem(index int, fields map[string]string) (NewsItem, error) {
	title := fields["title"]
	if title == "" {
		return NewsItem{}, &SchemaError{Index: index, Field: "title", Reason: "is required"}
	}

	link := cmp.Or(fields["url"], fields["link"])
	if link == "" {
		return NewsItem{}, &SchemaError{Index: index, Field: "url", Reason: "is required"}
	}
	if !isAbsoluteURL(link) {
		return NewsItem{}, &SchemaError{Index: index, Field: "url", Reason: "must be an absolute http(s) URL"}
	}

	imageURL := fields["imageUrl"]
	if strings.HasPrefix(imageURL, "//") {
		imageURL = "https:" + imageURL
	}
	if imageURL != "" && !isAbsoluteURL(imageURL) {
		return NewsItem{}, &SchemaError{Index: index, Field: "imageUrl", Reason: "must be an absolute http(s) URL"}
	}

	return NewsItem{
		ID:          cmp.Or(fields["id"], ItemID(title, link)),
		Title:       title,
		Description: cmp.Or(fields["description"], DefaultDescription),
		ImageURL:    cmp.Or(imageURL, PlaceholderImageURL),
		Source:      cmp.Or(fields["source"], DefaultSource),
		URL:         link,
		PublishedAt: formatPublishedAt(fields["publishedAt"]),
	}, nil
}

// ItemID derives a stable identifier for items the crawler left without one.
func ItemID(title, link string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", title, link)))
	return hex.EncodeToString(hash[:])
}

func formatPublishedAt(value string) string {
	if value == "" {
		return DefaultPublishedAt
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(DisplayTimeLayout)
		}
	}
	return value
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package feed

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/lysyi3m/flipnews/app/dataset"
)

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	decoder := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("Generated RSS is not well-formed XML: %v", err)
		}
	}
}

func TestGenerator_Run(t *testing.T) {
	channel := ChannelInfo{
		Title:       "FlipNews",
		Link:        "http://localhost:8080",
		Description: "Personalized news",
		SelfLink:    "http://localhost:8080/news.rss",
		Generator:   "FlipNews/1.0",
	}

	items := []dataset.NewsItem{
		{
			ID:          "https://example.com/a",
			Title:       "Markets & Mergers",
			Description: "Stocks <rise>",
			ImageURL:    "https://img.example.com/a.jpg?w=1&h=2",
			Source:      "Reuters",
			URL:         "https://example.com/a",
			PublishedAt: "2025-03-03 10:00:00",
		},
		{
			ID:          "b",
			Title:       "Second",
			Description: dataset.DefaultDescription,
			ImageURL:    dataset.PlaceholderImageURL,
			Source:      dataset.DefaultSource,
			URL:         "https://example.com/b",
			PublishedAt: dataset.DefaultPublishedAt,
		},
	}

	doc, err := NewGenerator().Run(channel, items)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assertWellFormed(t, doc)

	expected := []string{
		"<title>FlipNews</title>",
		`<atom:link href="http://localhost:8080/news.rss" rel="self" type="application/rss+xml" />`,
		"<generator>FlipNews/1.0</generator>",
		"<lastBuildDate>Mon, 03 Mar 2025 10:00:00 +0000</lastBuildDate>",
		`<guid isPermaLink="true">https://example.com/a</guid>`,
		"<title>Markets &amp; Mergers</title>",
		"<description>Stocks &lt;rise&gt;</description>",
		"<pubDate>Mon, 03 Mar 2025 10:00:00 +0000</pubDate>",
		"<source>Reuters</source>",
		`<media:content url="https://img.example.com/a.jpg?w=1&amp;h=2" medium="image" />`,
		`<guid isPermaLink="false">b</guid>`,
	}
	for _, want := range expected {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected RSS to contain %s", want)
		}
	}

	if strings.Count(doc, "<pubDate>") != 1 {
		t.Errorf("Expected only the parsable date to produce a pubDate, got %d", strings.Count(doc, "<pubDate>"))
	}
	if strings.Contains(doc, "<source>"+dataset.DefaultSource) {
		t.Error("Expected default source to be omitted")
	}
}

func TestGenerator_Empty(t *testing.T) {
	doc, err := NewGenerator().Run(ChannelInfo{Title: "FlipNews"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assertWellFormed(t, doc)

	if strings.Contains(doc, "<item>") {
		t.Error("Expected no items")
	}
	if strings.Contains(doc, "atom:link") {
		t.Error("Expected no self link when none is configured")
	}
}

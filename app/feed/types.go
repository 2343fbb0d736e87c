package feed

import (
	"time"
)

// Feed processing types

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string // Plain text, HTML stripped
	Source      string // Publisher name from <source>, empty when the feed has none
	ImageURL    string
	Published   string // Raw date string from the feed
	PublishedAt *time.Time

	IsFiltered   bool
	FilterReason string
}

// Catalog types

type Topic struct {
	Name    string        `yaml:"name"`
	Query   string        `yaml:"query"`
	Filters []TopicFilter `yaml:"filters"`
}

type TopicFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type catalogFile struct {
	Topics []Topic `yaml:"topics"`
}

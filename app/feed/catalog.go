package feed

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed topics.yml
var defaultCatalog []byte

var ErrUnknownTopic = errors.New("unknown topic")

// Catalog holds the known topics. Lookups ignore case using Unicode case
// folding; Resolve returns the catalog spelling.
type Catalog struct {
	topics []Topic
	byKey  map[string]int
	mu     sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		byKey: make(map[string]int),
	}
}

// Load replaces the catalog with the topics from path, or with the embedded
// catalog when path is empty.
func (c *Catalog) Load(path string) error {
	data := defaultCatalog
	source := "embedded"

	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read topics file: %w", err)
		}
		data = fileData
		source = path
	}

	topics, err := c.parseCatalog(data)
	if err != nil {
		return fmt.Errorf("invalid topics catalog %s: %w", source, err)
	}

	byKey := make(map[string]int, len(topics))
	for i, topic := range topics {
		key := foldKey(topic.Name)
		if _, exists := byKey[key]; exists {
			return fmt.Errorf("invalid topics catalog %s: duplicate topic %q", source, topic.Name)
		}
		byKey[key] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = topics
	c.byKey = byKey

	slog.Debug("Topics catalog loaded", "source", source, "topics", len(topics))

	return nil
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.topics))
	for _, topic := range c.topics {
		names = append(names, topic.Name)
	}
	return names
}

func (c *Catalog) Get(name string) (*Topic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byKey[foldKey(name)]
	if !ok {
		return nil, false
	}
	topic := c.topics[i]
	return &topic, true
}

func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics)
}

// Resolve maps labels to their catalog spelling, dropping repeats. Any label
// not in the catalog fails the whole call with ErrUnknownTopic.
func (c *Catalog) Resolve(labels []string) ([]string, error) {
	resolved := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))

	for _, label := range labels {
		topic, ok := c.Get(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, label)
		}
		if seen[topic.Name] {
			continue
		}
		seen[topic.Name] = true
		resolved = append(resolved, topic.Name)
	}

	return resolved, nil
}

// Query returns the search query for a topic, or the label itself when the
// topic is not in the catalog.
func (c *Catalog) Query(label string) string {
	if topic, ok := c.Get(label); ok {
		return topic.Query
	}
	return label
}

func (c *Catalog) parseCatalog(data []byte) ([]Topic, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	for i := range file.Topics {
		topic := &file.Topics[i]
		topic.Name = strings.TrimSpace(topic.Name)
		if topic.Query == "" {
			topic.Query = topic.Name
		}
		if err := c.validateTopic(topic); err != nil {
			return nil, fmt.Errorf("topic at index %d: %w", i, err)
		}
	}

	return file.Topics, nil
}

func (c *Catalog) validateTopic(topic *Topic) error {
	if topic.Name == "" {
		return fmt.Errorf("topic name is required")
	}

	validFields := map[string]bool{
		"title":       true,
		"description": true,
		"source":      true,
	}

	for i, filter := range topic.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

// cases.Caser is stateful, so each call gets its own.
func foldKey(label string) string {
	return cases.Fold().String(strings.TrimSpace(label))
}

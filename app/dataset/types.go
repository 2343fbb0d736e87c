package dataset

// NewsItem is one card of the published feed, in presentation order.
type NewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

const (
	DefaultSource       = "Unknown Source"
	DefaultDescription  = "No description available."
	DefaultPublishedAt  = "Just now"
	PlaceholderImageURL = "https://images.unsplash.com/photo-1504711434969-e33886168f5c?auto=format&fit=crop&q=80&w=1000"

	// DisplayTimeLayout is the format of PublishedAt in the published dataset.
	DisplayTimeLayout = "2006-01-02 15:04:05"
)

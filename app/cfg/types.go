package cfg

import "time"

const (
	CommandServe   = "serve"
	CommandCrawl   = "crawl"
	CommandPublish = "publish"
)

type Cfg struct {
	// Command selected on the command line (serve, crawl, publish)
	Command string

	// Storage
	DataDir    string
	TopicsFile string

	// HTTP server
	Port           string
	BaseUrl        string
	AdminAccessKey string
	SyncTimeout    time.Duration

	// Sync pipeline
	CrawlerCommand   []string
	PublisherCommand []string
	CrawlTimeout     time.Duration
	PublishTimeout   time.Duration
	BenignMarkers    []string

	// Crawler
	NewsSearchURL  string
	PerTopicLimit  int
	FetchTimeout   time.Duration
	RequestsPerSec float64

	// Background tasks
	WorkerCount         int
	SchedulerInterval   int
	RefreshInterval     time.Duration
	SourceCrawlInterval time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// Data file names, relative to DataDir.
const (
	PreferencesFile    = "user_preferences.json"
	IntermediateFile   = "news_data.json"
	PublishedFile      = "published_news.json"
	NotesFile          = "user_notes.json"
	VisualSettingsFile = "visual_settings.json"
	AdminCrawlFile     = "admin_crawl_data.json"
	DatabaseFile       = "flipnews.db"
)

package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DataDir    string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding preferences, datasets, notes and the database (use 'xdg' for the XDG data home)"`
	TopicsFile string `long:"topics-file" env:"TOPICS_FILE" description:"YAML topic catalog overriding the built-in one"`

	// HTTP server
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl        string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	AdminAccessKey string `long:"admin-key" env:"ADMIN_ACCESS_KEY" description:"Shared secret for admin endpoints (admin endpoints are disabled when empty)"`
	SyncTimeout    int    `long:"sync-timeout" env:"SYNC_TIMEOUT" default:"600" description:"Upper bound for a whole sync request in seconds"`

	// Sync pipeline
	CrawlerCommand   string `long:"crawler-command" env:"CRAWLER_COMMAND" description:"Command that fetches news into the intermediate dataset (defaults to '<self> crawl')"`
	PublisherCommand string `long:"publisher-command" env:"PUBLISHER_COMMAND" description:"External publisher command (the built-in publisher runs in-process when empty)"`
	CrawlTimeout     int    `long:"crawl-timeout" env:"CRAWL_TIMEOUT" default:"300" description:"Crawler timeout in seconds"`
	PublishTimeout   int    `long:"publish-timeout" env:"PUBLISH_TIMEOUT" default:"60" description:"Publisher timeout in seconds"`
	BenignMarkers    string `long:"benign-markers" env:"BENIGN_MARKERS" default:"notice" description:"Comma-separated stderr markers that are not reported as warnings"`

	// Crawler
	NewsSearchURL  string  `long:"news-search-url" env:"NEWS_SEARCH_URL" default:"https://news.google.com/rss/search" description:"RSS search endpoint queried per topic"`
	PerTopicLimit  int     `long:"per-topic" env:"PER_TOPIC" default:"10" description:"Maximum number of items kept per topic"`
	FetchTimeout   int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"HTTP fetch timeout in seconds"`
	RequestsPerSec float64 `long:"requests-per-sec" env:"REQUESTS_PER_SEC" default:"4" description:"Crawler HTTP request rate limit"`

	// Background tasks
	WorkerCount         int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval   int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	RefreshInterval     int `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"0" description:"Re-sync stored preferences every N seconds (0 disables)"`
	SourceCrawlInterval int `long:"source-crawl-interval" env:"SOURCE_CRAWL_INTERVAL" default:"3600" description:"Crawl admin sources every N seconds (0 disables)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FlipNews/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	EnvFile   string `long:"env-file" env:"ENV_FILE" default:".env" description:"Dotenv file loaded before parsing"`
}

type serveCmd struct{}
type crawlCmd struct{}
type publishCmd struct{}

var globalCfg *Cfg

// Load parses the process arguments and environment.
func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments (os.Args[1:] when nil). A nil Cfg with
// a nil error means help was printed.
func LoadArgs(args []string) (*Cfg, error) {
	envArgs := args
	if envArgs == nil {
		envArgs = os.Args[1:]
	}
	if err := loadEnvFile(envArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.AddCommand(CommandServe, "Run the HTTP server (default)", "", &serveCmd{}); err != nil {
		return nil, err
	}
	if _, err := parser.AddCommand(CommandCrawl, "Fetch news for the stored preferences into the intermediate dataset", "", &crawlCmd{}); err != nil {
		return nil, err
	}
	if _, err := parser.AddCommand(CommandPublish, "Validate the intermediate dataset and publish it", "", &publishCmd{}); err != nil {
		return nil, err
	}

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	command := CommandServe
	if parser.Active != nil {
		command = parser.Active.Name
	}

	cfg := &Cfg{
		Command:             command,
		DataDir:             resolveDataDir(raw.DataDir),
		TopicsFile:          raw.TopicsFile,
		Port:                raw.Port,
		BaseUrl:             strings.TrimRight(raw.BaseUrl, "/"),
		AdminAccessKey:      raw.AdminAccessKey,
		SyncTimeout:         seconds(raw.SyncTimeout),
		CrawlerCommand:      strings.Fields(raw.CrawlerCommand),
		PublisherCommand:    strings.Fields(raw.PublisherCommand),
		CrawlTimeout:        seconds(raw.CrawlTimeout),
		PublishTimeout:      seconds(raw.PublishTimeout),
		BenignMarkers:       splitList(raw.BenignMarkers),
		NewsSearchURL:       raw.NewsSearchURL,
		PerTopicLimit:       raw.PerTopicLimit,
		FetchTimeout:        seconds(raw.FetchTimeout),
		RequestsPerSec:      raw.RequestsPerSec,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		RefreshInterval:     seconds(raw.RefreshInterval),
		SourceCrawlInterval: seconds(raw.SourceCrawlInterval),
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs cfg as the global configuration. Used by tests and tools that
// build a Cfg without parsing flags.
func Set(c *Cfg) {
	globalCfg = c
}

// Path returns the absolute location of a data file.
func (c *Cfg) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

func validate(c *Cfg) error {
	positive := map[string]time.Duration{
		"crawl timeout":   c.CrawlTimeout,
		"publish timeout": c.PublishTimeout,
		"sync timeout":    c.SyncTimeout,
		"fetch timeout":   c.FetchTimeout,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	nonNegative := map[string]int{
		"per-topic limit":    c.PerTopicLimit,
		"worker count":       c.WorkerCount,
		"scheduler interval": c.SchedulerInterval,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}

	if c.RefreshInterval < 0 || c.SourceCrawlInterval < 0 {
		return fmt.Errorf("task intervals must be non-negative")
	}

	return nil
}

// loadEnvFile reads the dotenv file named by --env-file/ENV_FILE before flags
// are parsed so its values feed the env defaults. Existing variables win.
func loadEnvFile(args []string) error {
	envFile := cmp.Or(os.Getenv("ENV_FILE"), ".env")
	for i, arg := range args {
		if value, ok := strings.CutPrefix(arg, "--env-file="); ok {
			envFile = value
		} else if arg == "--env-file" && i+1 < len(args) {
			envFile = args[i+1]
		}
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file '%s': %w", envFile, err)
	}
	return nil
}

func resolveDataDir(dir string) string {
	if dir == "xdg" {
		return filepath.Join(xdg.DataHome, "flipnews")
	}
	return dir
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

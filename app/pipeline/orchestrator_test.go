package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/flipnews/app/database"
	"github.com/lysyi3m/flipnews/app/dataset"
	"github.com/lysyi3m/flipnews/app/process"
	"github.com/lysyi3m/flipnews/app/store"
)

type mockCrawler struct {
	calls int
	fn    func(ctx context.Context) (string, error)
}

func (m *mockCrawler) Crawl(ctx context.Context) (string, error) {
	m.calls++
	return m.fn(ctx)
}

type mockPublisher struct {
	calls  int
	result PublishResult
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context) (PublishResult, error) {
	m.calls++
	return m.result, m.err
}

type mockSyncRunRepository struct {
	mu       sync.Mutex
	started  []database.SyncRun
	finished []database.SyncRun
	startErr error
}

func (m *mockSyncRunRepository) Start(run database.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, run)
	return m.startErr
}

func (m *mockSyncRunRepository) Finish(run database.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, run)
	return nil
}

func (m *mockSyncRunRepository) Recent(limit int) ([]database.SyncRun, error) {
	return nil, nil
}

func (m *mockSyncRunRepository) Last() (*database.SyncRun, error) {
	return nil, nil
}

type fixture struct {
	dir              string
	preferencesPath  string
	intermediatePath string
	publishedPath    string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	return fixture{
		dir:              dir,
		preferencesPath:  filepath.Join(dir, "user_preferences.json"),
		intermediatePath: filepath.Join(dir, "news_data.json"),
		publishedPath:    filepath.Join(dir, "published_news.json"),
	}
}

func (f fixture) orchestrator(crawler Crawler, runs database.SyncRunRepository) *Orchestrator {
	publisher := NewDatasetPublisher(dataset.NewPublisher(f.intermediatePath, f.publishedPath), time.Minute)
	return NewOrchestrator(store.NewFilePreferenceStore(f.preferencesPath), crawler, publisher, runs)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func readTopics(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read preferences: %v", err)
	}
	var prefs store.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		t.Fatalf("Failed to decode preferences: %v", err)
	}
	return prefs.Topics
}

const threeItems = `[
	{"title": "Rocket lands", "link": "https://example.com/rocket"},
	{"title": "Markets rally", "link": "https://example.com/markets", "source": "Reuters"},
	{"title": "Mars rover", "link": "https://example.com/mars", "imageUrl": "https://example.com/mars.jpg"}
]`

func TestOrchestrator_SyncSucceeds(t *testing.T) {
	f := newFixture(t)
	runs := &mockSyncRunRepository{}

	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		topics := readTopics(t, f.preferencesPath)
		if len(topics) != 2 || topics[0] != "Space" || topics[1] != "Finance" {
			t.Errorf("Expected crawler to see saved topics, got %v", topics)
		}
		writeFile(t, f.intermediatePath, threeItems)
		return "Successfully saved 3 unique items.\n", nil
	}}

	report, err := f.orchestrator(crawler, runs).Sync(context.Background(), []string{"Space", "Finance"})
	if err != nil {
		t.Fatalf("Expected sync to succeed, got: %v", err)
	}

	if report.ItemCount != 3 {
		t.Errorf("Expected 3 items, got %d", report.ItemCount)
	}
	if report.CrawlOutput != "Successfully saved 3 unique items.\n" {
		t.Errorf("Expected crawler stdout in report, got %q", report.CrawlOutput)
	}
	if report.PublishOutput != "Successfully published 3 items.\n" {
		t.Errorf("Expected publish message in report, got %q", report.PublishOutput)
	}
	if report.RunID == "" {
		t.Error("Expected run ID to be set")
	}

	items, err := dataset.NewReader(f.publishedPath).Read()
	if err != nil {
		t.Fatalf("Failed to read published dataset: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("Expected 3 published items, got %d", len(items))
	}

	if len(runs.started) != 1 || len(runs.finished) != 1 {
		t.Fatalf("Expected one recorded run, got %d started %d finished", len(runs.started), len(runs.finished))
	}
	finished := runs.finished[0]
	if finished.Status != database.SyncStatusSucceeded {
		t.Errorf("Expected succeeded status, got %s", finished.Status)
	}
	if finished.ItemCount != 3 {
		t.Errorf("Expected 3 recorded items, got %d", finished.ItemCount)
	}
	if finished.Trigger != database.TriggerAPI {
		t.Errorf("Expected api trigger, got %s", finished.Trigger)
	}
	if finished.FinishedAt == nil {
		t.Error("Expected finish time to be recorded")
	}
}

func TestOrchestrator_CrawlFailureKeepsPublishedDataset(t *testing.T) {
	f := newFixture(t)
	runs := &mockSyncRunRepository{}

	previous := `[{"id":"old","title":"Old news"}]`
	writeFile(t, f.publishedPath, previous)

	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		return "", &process.Error{Kind: process.KindNonZeroExit, Command: "crawler", Code: 1}
	}}

	report, err := f.orchestrator(crawler, runs).Sync(context.Background(), []string{"World"})
	if err == nil {
		t.Fatal("Expected sync to fail")
	}
	if !errors.Is(err, ErrCrawlFailed) {
		t.Errorf("Expected ErrCrawlFailed, got: %v", err)
	}
	if !errors.Is(err, process.ErrNonZeroExit) {
		t.Errorf("Expected cause to be a non-zero exit, got: %v", err)
	}
	if errors.Is(err, ErrPublishFailed) {
		t.Error("Crawl failure should not match ErrPublishFailed")
	}
	if report.ItemCount != 0 {
		t.Errorf("Expected no items, got %d", report.ItemCount)
	}

	data, _ := os.ReadFile(f.publishedPath)
	if string(data) != previous {
		t.Errorf("Expected published dataset to be unchanged, got %s", data)
	}

	topics := readTopics(t, f.preferencesPath)
	if len(topics) != 1 || topics[0] != "World" {
		t.Errorf("Expected preferences to be updated to [World], got %v", topics)
	}

	if len(runs.finished) != 1 {
		t.Fatalf("Expected one finished run, got %d", len(runs.finished))
	}
	if runs.finished[0].Status != database.SyncStatusFailed {
		t.Errorf("Expected failed status, got %s", runs.finished[0].Status)
	}
	if runs.finished[0].FailedStep != string(StepCrawl) {
		t.Errorf("Expected failed step crawl, got %s", runs.finished[0].FailedStep)
	}
}

func TestOrchestrator_PublishSkippedAfterCrawlFailure(t *testing.T) {
	prefs := store.NewMemoryPreferenceStore()
	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	}}
	publisher := &mockPublisher{}

	_, err := NewOrchestrator(prefs, crawler, publisher, nil).Sync(context.Background(), []string{"World"})
	if !errors.Is(err, ErrCrawlFailed) {
		t.Errorf("Expected ErrCrawlFailed, got: %v", err)
	}
	if publisher.calls != 0 {
		t.Errorf("Expected publisher not to run, got %d calls", publisher.calls)
	}
}

func TestOrchestrator_MissingIntermediateFile(t *testing.T) {
	f := newFixture(t)

	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		return "No news found.\n", nil
	}}

	report, err := f.orchestrator(crawler, nil).Sync(context.Background(), []string{"World"})
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("Expected ErrPublishFailed, got: %v", err)
	}
	if !errors.Is(err, dataset.ErrMissingInput) {
		t.Errorf("Expected missing input cause, got: %v", err)
	}
	if report.CrawlOutput != "No news found.\n" {
		t.Errorf("Expected crawl output to be kept, got %q", report.CrawlOutput)
	}
	if _, statErr := os.Stat(f.publishedPath); !os.IsNotExist(statErr) {
		t.Error("Expected no published dataset to be written")
	}
}

func TestOrchestrator_PreferenceWriteFailure(t *testing.T) {
	prefs := store.NewMemoryPreferenceStore()
	prefs.Err = &store.IOError{Op: "write", Path: "user_preferences.json", Err: os.ErrPermission}
	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		return "", nil
	}}

	_, err := NewOrchestrator(prefs, crawler, &mockPublisher{}, nil).Sync(context.Background(), []string{"World"})
	if !errors.Is(err, ErrPreferenceWriteFailed) {
		t.Fatalf("Expected ErrPreferenceWriteFailed, got: %v", err)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepPreferences {
		t.Errorf("Expected preferences step error, got: %v", err)
	}
	if crawler.calls != 0 {
		t.Errorf("Expected crawler not to run, got %d calls", crawler.calls)
	}
}

func TestOrchestrator_SerializesSyncs(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		return "", nil
	}}
	publisher := &mockPublisher{result: PublishResult{Output: "ok", ItemCount: 1}}
	orchestrator := NewOrchestrator(store.NewMemoryPreferenceStore(), crawler, publisher, nil)

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.SyncWithTrigger(context.Background(), database.TriggerScheduler, []string{"World"})
		done <- err
	}()

	<-entered
	if !orchestrator.Busy() {
		t.Error("Expected orchestrator to be busy during sync")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := orchestrator.Sync(ctx, []string{"Space"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected second sync to wait for the lock and time out, got: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Expected first sync to succeed, got: %v", err)
	}
	if orchestrator.Busy() {
		t.Error("Expected lock to be released")
	}
}

func TestOrchestrator_RecordingFailureDoesNotFailSync(t *testing.T) {
	runs := &mockSyncRunRepository{startErr: errors.New("database is locked")}
	crawler := &mockCrawler{fn: func(ctx context.Context) (string, error) {
		return "", nil
	}}
	publisher := &mockPublisher{result: PublishResult{ItemCount: 2}}

	report, err := NewOrchestrator(store.NewMemoryPreferenceStore(), crawler, publisher, runs).Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected sync to succeed, got: %v", err)
	}
	if report.ItemCount != 2 {
		t.Errorf("Expected 2 items, got %d", report.ItemCount)
	}
}

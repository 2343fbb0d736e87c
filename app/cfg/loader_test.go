package cfg

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func testArgs(t *testing.T, args ...string) []string {
	t.Helper()
	// Point at a dotenv file that does not exist so a developer's .env is ignored
	return append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(testArgs(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Command != CommandServe {
		t.Errorf("Expected default command '%s', got '%s'", CommandServe, cfg.Command)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("Expected data dir './data', got '%s'", cfg.DataDir)
	}
	if cfg.CrawlTimeout != 300*time.Second {
		t.Errorf("Expected crawl timeout 300s, got %v", cfg.CrawlTimeout)
	}
	if cfg.PublishTimeout != 60*time.Second {
		t.Errorf("Expected publish timeout 60s, got %v", cfg.PublishTimeout)
	}
	if !reflect.DeepEqual(cfg.BenignMarkers, []string{"notice"}) {
		t.Errorf("Expected benign markers [notice], got %v", cfg.BenignMarkers)
	}
	if cfg.PerTopicLimit != 10 {
		t.Errorf("Expected per-topic limit 10, got %d", cfg.PerTopicLimit)
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsSubcommands(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"serve"}, CommandServe},
		{[]string{"crawl"}, CommandCrawl},
		{[]string{"publish"}, CommandPublish},
		{[]string{"--port", "9090", "crawl"}, CommandCrawl},
	}

	for _, tt := range tests {
		cfg, err := LoadArgs(testArgs(t, tt.args...))
		if err != nil {
			t.Fatalf("args %v: expected no error, got: %v", tt.args, err)
		}
		if cfg.Command != tt.expected {
			t.Errorf("args %v: expected command '%s', got '%s'", tt.args, tt.expected, cfg.Command)
		}
	}
}

func TestLoadArgsCommandsAndMarkers(t *testing.T) {
	cfg, err := LoadArgs(testArgs(t,
		"--crawler-command", "python crawler/personalized_crawler.py",
		"--benign-markers", "notice, DeprecationWarning ,",
		"--data-dir", "/srv/flipnews",
	))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !reflect.DeepEqual(cfg.CrawlerCommand, []string{"python", "crawler/personalized_crawler.py"}) {
		t.Errorf("Unexpected crawler command: %v", cfg.CrawlerCommand)
	}
	if len(cfg.PublisherCommand) != 0 {
		t.Errorf("Expected empty publisher command, got %v", cfg.PublisherCommand)
	}
	if !reflect.DeepEqual(cfg.BenignMarkers, []string{"notice", "DeprecationWarning"}) {
		t.Errorf("Unexpected benign markers: %v", cfg.BenignMarkers)
	}
	if cfg.Path(PreferencesFile) != filepath.Join("/srv/flipnews", "user_preferences.json") {
		t.Errorf("Unexpected preferences path: %s", cfg.Path(PreferencesFile))
	}
}

func TestLoadArgsXDGDataDir(t *testing.T) {
	cfg, err := LoadArgs(testArgs(t, "--data-dir", "xdg"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if filepath.Base(cfg.DataDir) != "flipnews" || cfg.DataDir == "xdg" {
		t.Errorf("Expected data dir under XDG data home, got '%s'", cfg.DataDir)
	}
}

func TestLoadArgsRejectsInvalidTimeouts(t *testing.T) {
	if _, err := LoadArgs(testArgs(t, "--crawl-timeout=0")); err == nil {
		t.Error("Expected error for zero crawl timeout")
	}
	if _, err := LoadArgs(testArgs(t, "--per-topic=-1")); err == nil {
		t.Error("Expected error for negative per-topic limit")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.env")
	if err := os.WriteFile(valid, []byte("FLIPNEWS_TEST_ENV_VALUE=1\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FLIPNEWS_TEST_ENV_VALUE") })

	malformed := filepath.Join(dir, "malformed.env")
	if err := os.WriteFile(malformed, []byte("BAD-NAME=1\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"missing file is ignored", []string{"--env-file", filepath.Join(dir, "missing.env")}, false},
		{"valid file", []string{"--env-file=" + valid}, false},
		{"malformed file", []string{"--env-file", malformed}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadEnvFile(tt.args)
			if tt.wantErr && err == nil {
				t.Error("Expected an error for the malformed env file")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFeedsConfig_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feeds.json", `{
  "feeds": [
    {"url": "https://a.example/rss", "source": "A", "category": ["crypto", "general"]},
    {"url": "https://b.example/rss", "source": "B", "category": ["forex"]}
  ]
}`)

	config, err := LoadFeedsConfig(path)
	if err != nil {
		t.Fatalf("LoadFeedsConfig() error = %v", err)
	}
	if len(config.Feeds) != 2 {
		t.Fatalf("got %d feeds, want 2", len(config.Feeds))
	}
	if config.Feeds[0].PrimaryCategory() != "crypto" || config.Feeds[1].SourceName != "B" {
		t.Errorf("unexpected feeds: %+v", config.Feeds)
	}
}

func TestLoadFeedsConfig_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feeds.yaml", `feeds:
  - url: https://a.example/rss
    source: A
    category: [crypto]
  - url: https://c.example/rss
    source: C
    category:
      - technology
      - business
`)

	config, err := LoadFeedsConfig(path)
	if err != nil {
		t.Fatalf("LoadFeedsConfig() error = %v", err)
	}
	if len(config.Feeds) != 2 {
		t.Fatalf("got %d feeds, want 2", len(config.Feeds))
	}
	if got := config.Feeds[1].Categories; len(got) != 2 || got[1] != "business" {
		t.Errorf("Categories = %v", got)
	}
}

func TestLoadFeedsConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"bad json", writeFile(t, dir, "bad.json", "{not json")},
		{"bad yaml", writeFile(t, dir, "bad.yml", "feeds: [unclosed")},
		{"empty", writeFile(t, dir, "empty.json", `{"feeds": []}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFeedsConfig(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFindFeedsConfig_EnvPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", "feeds: []")
	t.Setenv("FEEDS_CONFIG_PATH", path)

	if got := FindFeedsConfig(); got != path {
		t.Errorf("FindFeedsConfig() = %q, want %q", got, path)
	}
}

func TestGetDefaultFeedsConfig(t *testing.T) {
	if got := len(GetDefaultFeedsConfig().Feeds); got != 52 {
		t.Errorf("default config has %d feeds, want 52", got)
	}
}

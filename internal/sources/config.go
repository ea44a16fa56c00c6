package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnrirwin/marketwire/internal/models"
)

// FeedsConfig is the on-disk feed registry file.
type FeedsConfig struct {
	Feeds []models.FeedSource `json:"feeds" yaml:"feeds"`
}

// LoadFeedsConfig reads a feeds file. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func LoadFeedsConfig(configPath string) (*FeedsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var config FeedsConfig
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse feeds config %s: %w", configPath, err)
	}
	if len(config.Feeds) == 0 {
		return nil, fmt.Errorf("feeds config %s has no feeds", configPath)
	}

	return &config, nil
}

// FindFeedsConfig searches for a feeds file in common locations
func FindFeedsConfig() string {
	var locations []string
	for _, dir := range []string{".", "..", "/app", "config"} {
		for _, name := range []string{"feeds.json", "feeds.yaml", "feeds.yml"} {
			locations = append(locations, filepath.Join(dir, name))
		}
	}

	if envPath := os.Getenv("FEEDS_CONFIG_PATH"); envPath != "" {
		locations = append([]string{envPath}, locations...)
	}

	for _, loc := range locations {
		if info, err := os.Stat(loc); err == nil && !info.IsDir() {
			absPath, _ := filepath.Abs(loc)
			return absPath
		}
	}

	return ""
}

// GetDefaultFeedsConfig wraps DefaultFeeds.
func GetDefaultFeedsConfig() *FeedsConfig {
	return &FeedsConfig{Feeds: DefaultFeeds()}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedsFile is the YAML schedule and source list.
type FeedsFile struct {
	Label              string   `yaml:"label"`
	ReportHours        []int    `yaml:"report_hours"`
	TimeZone           string   `yaml:"time_zone"`
	MinimumReportCount int      `yaml:"minimum_report_count"`
	MaxItemsPerSource  int      `yaml:"max_items_per_source"`
	Feeds              []string `yaml:"feeds"`
}

// LoadFeeds reads the feeds file at path.
func LoadFeeds(path string) (*FeedsFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ff FeedsFile
	if err := yaml.NewDecoder(f).Decode(&ff); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	feeds := ff.Feeds[:0]
	seen := make(map[string]bool, len(ff.Feeds))
	for _, u := range ff.Feeds {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		feeds = append(feeds, u)
	}
	ff.Feeds = feeds
	return &ff, nil
}

func (c *Config) applyFeedsFile() error {
	ff, err := LoadFeeds(c.FeedsConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if ff.Label != "" {
		c.Label = ff.Label
	}
	if len(ff.ReportHours) > 0 {
		c.ReportHours = ff.ReportHours
	}
	if ff.TimeZone != "" {
		c.TimeZone = ff.TimeZone
	}
	if ff.MinimumReportCount > 0 {
		c.MinReportCount = ff.MinimumReportCount
	}
	if ff.MaxItemsPerSource > 0 {
		c.MaxItemsPerSource = ff.MaxItemsPerSource
	}
	c.Feeds = ff.Feeds
	return nil
}

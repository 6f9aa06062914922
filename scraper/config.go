package scraper

import "github.com/pevans/tally/links"

// ScraperConfig defines how to read the folder, month and item pages of the
// source system.
type ScraperConfig struct {
	FolderConfig FolderConfig `json:"folder_config" yaml:"folders"`
	MonthConfig  MonthConfig  `json:"month_config" yaml:"months"`
	ItemConfig   ItemConfig   `json:"item_config" yaml:"items"`
}

// FolderConfig defines how to find folder links on the folder listing page.
type FolderConfig struct {
	// Selectors are tried in order; the first that matches any link wins,
	// otherwise every link on the page is a candidate.
	Selectors     []string `json:"selectors" yaml:"selectors"`
	PathPatterns  []string `json:"path_patterns" yaml:"path_patterns"`
	MinNameLength int      `json:"min_name_length" yaml:"min_name_length" validate:"gte=0"`
	MaxNameLength int      `json:"max_name_length" yaml:"max_name_length" validate:"gte=0"`
}

// MonthConfig defines how to find monthly links on a folder page.
type MonthConfig struct {
	Selectors []string `json:"selectors" yaml:"selectors"`
}

// ItemConfig defines how to read dated item entries on a monthly page.
type ItemConfig struct {
	Selector       string `json:"selector" yaml:"selector"`
	Pattern        string `json:"pattern,omitempty" yaml:"pattern"`
	ExcludePattern string `json:"exclude_pattern,omitempty" yaml:"exclude_pattern"`
}

// NewScraperConfig creates a configuration with default selectors.
func NewScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		FolderConfig: FolderConfig{
			Selectors: []string{
				"[data-folder] a",
				".folder-list a",
				"table.folders a",
			},
			PathPatterns:  []string{"/folder", "/pasta"},
			MinNameLength: links.DefaultMinNameLength,
			MaxNameLength: links.DefaultMaxNameLength,
		},
		MonthConfig: MonthConfig{
			Selectors: []string{
				"[data-month] a",
				".month-list a",
			},
		},
		ItemConfig: ItemConfig{
			Selector: ".item, li.entry, tr.item",
		},
	}
}

package reader

import (
	"encoding/json"
	"fmt"
	"os"
)

// SiteConfig binds one attached reader to the site name recorded on
// every event it produces.
type SiteConfig struct {
	Site        string `json:"site"`
	ReaderName  string `json:"reader_name"`
	ReaderIndex int    `json:"reader_index"`
}

type Config struct {
	Sites []SiteConfig `json:"sites"`
}

// LoadConfig reads the readers file. A terminal with two doors lists
// two sites, each bound to its own reader.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read readers config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse readers config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("readers config: at least one site required")
	}
	seen := make(map[string]bool, len(c.Sites))
	for _, s := range c.Sites {
		if s.Site == "" {
			return fmt.Errorf("readers config: site name required")
		}
		if seen[s.Site] {
			return fmt.Errorf("readers config: duplicate site %q", s.Site)
		}
		seen[s.Site] = true
	}
	return nil
}

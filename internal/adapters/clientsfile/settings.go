package clientsfile

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okian/sentivision/internal/domain/model"
)

// GlobalSource is a feed shared by every client, declared in the
// pipeline settings file.
type GlobalSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Tier int    `yaml:"tier"`
}

// Type is always rss for global sources.
func (GlobalSource) Type() model.SourceType { return model.SourceRSS }

// LoadGlobalSources reads the global_sources list of a settings file.
// A missing list yields no sources. Tiers default to the major tier.
func LoadGlobalSources(path string) ([]GlobalSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	var doc struct {
		GlobalSources []GlobalSource `yaml:"global_sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: settings: %w", ErrInvalid, err)
	}

	out := make([]GlobalSource, 0, len(doc.GlobalSources))
	for i, s := range doc.GlobalSources {
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimSpace(s.URL)
		if s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("%w: global source at index %d: missing name or url", ErrInvalid, i)
		}
		if s.Tier == 0 {
			s.Tier = int(model.TierMajor)
		}
		if !model.Tier(s.Tier).Valid() {
			return nil, fmt.Errorf("%w: global source %q: tier must be 1-4, got %d", ErrInvalid, s.Name, s.Tier)
		}
		out = append(out, s)
	}
	return out, nil
}

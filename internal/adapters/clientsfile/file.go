// Package clientsfile reads and writes the YAML client configuration
// consumed by the fetch pipeline.
package clientsfile

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okian/sentivision/internal/domain/model"
)

// searchURLPrefix is the Google News query feed the pipeline generates for
// every competitor and industry term.
const searchURLPrefix = "https://news.google.com/rss/search?q="

// File is the top-level document.
type File struct {
	Clients []Client `yaml:"clients"`
}

// Client is one monitored entity with its sources.
type Client struct {
	Name        string   `yaml:"name"`
	Industries  []string `yaml:"industries"`
	Competitors []string `yaml:"competitors"`
	Sources     []Source `yaml:"sources"`
}

// Source is a feed owned by one client.
type Source struct {
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
	Tier int    `yaml:"tier,omitempty"`
}

// SearchURL returns the generated news search feed for term.
func SearchURL(term string) string {
	return searchURLPrefix + url.QueryEscape(term)
}

// Load reads and validates a clients file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read clients file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a clients document. Missing source names
// default to the url and missing tiers to the industry tier.
func Parse(data []byte) (File, error) {
	var raw struct {
		Clients *[]Client `yaml:"clients"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if raw.Clients == nil {
		return File{}, fmt.Errorf("%w: missing top-level 'clients' key", ErrInvalid)
	}

	f := File{Clients: *raw.Clients}
	for i := range f.Clients {
		c := &f.Clients[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return File{}, fmt.Errorf("%w: client at index %d is missing a name", ErrInvalid, i)
		}
		if len(c.Sources) == 0 {
			return File{}, fmt.Errorf("%w: client %q has no sources defined", ErrInvalid, c.Name)
		}
		for j := range c.Sources {
			s := &c.Sources[j]
			s.Type = strings.ToLower(strings.TrimSpace(s.Type))
			s.URL = strings.TrimSpace(s.URL)
			if !model.SourceType(s.Type).Valid() {
				return File{}, fmt.Errorf("%w: client %q, source index %d: invalid type %q", ErrInvalid, c.Name, j, s.Type)
			}
			if s.URL == "" {
				return File{}, fmt.Errorf("%w: client %q, source index %d: missing url", ErrInvalid, c.Name, j)
			}
			if s.Name == "" {
				s.Name = s.URL
			}
			if s.Tier == 0 {
				s.Tier = int(model.DefaultTier)
			}
			if !model.Tier(s.Tier).Valid() {
				return File{}, fmt.Errorf("%w: client %q, source index %d: tier must be 1-4", ErrInvalid, c.Name, j)
			}
		}
	}
	return f, nil
}

// FetchSources returns the client's sources plus the generated search feeds
// for its competitors and industries, skipping urls already present.
func (c Client) FetchSources() []Source {
	out := append([]Source(nil), c.Sources...)
	seen := make(map[string]struct{}, len(out))
	for _, s := range out {
		seen[s.URL] = struct{}{}
	}
	for _, term := range append(append([]string(nil), c.Competitors...), c.Industries...) {
		u := SearchURL(term)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, Source{Name: "Google News - " + term, Type: string(model.SourceSearch), URL: u, Tier: int(model.DefaultTier)})
	}
	return out
}

// FromStore builds a clients document from stored clients and sources.
// Global sources and generated search feeds are left out; enablement lives
// in the store only.
// Clients left without sources cannot be loaded by the pipeline, so they
// are omitted and their names returned.
func FromStore(clients []model.Client, sources []model.Source) (File, []string) {
	byClient := make(map[int64][]model.Source)
	for _, s := range sources {
		if s.Global || s.ClientID == nil {
			continue
		}
		byClient[*s.ClientID] = append(byClient[*s.ClientID], s)
	}

	f := File{Clients: make([]Client, 0, len(clients))}
	var skipped []string
	for _, c := range clients {
		generated := make(map[string]struct{})
		for _, term := range append(append([]string(nil), c.Competitors...), c.Industries...) {
			generated[SearchURL(term)] = struct{}{}
		}
		out := Client{
			Name:        c.Name,
			Industries:  nonNil(c.Industries),
			Competitors: nonNil(c.Competitors),
		}
		for _, s := range byClient[c.ID] {
			if _, ok := generated[s.URL]; ok {
				continue
			}
			out.Sources = append(out.Sources, Source{Name: s.Name, Type: string(s.Type), URL: s.URL, Tier: int(s.MediaTier)})
		}
		if len(out.Sources) == 0 {
			skipped = append(skipped, c.Name)
			continue
		}
		f.Clients = append(f.Clients, out)
	}
	return f, skipped
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

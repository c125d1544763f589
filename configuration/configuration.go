package configuration

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/zvonler/chanspy/database"
	"github.com/zvonler/chanspy/fetch"
	"github.com/zvonler/chanspy/fourchan"
	"github.com/zvonler/chanspy/site"
	"github.com/zvonler/chanspy/vichan"
)

var ErrUnknownSiteKind = errors.New("unknown site kind")

const (
	KindFourchan = "fourchan"
	KindVichan   = "vichan"
)

// DefaultSites is used when the sites file does not exist.
const DefaultSites = `
sites:
  - name: 4chan
    kind: fourchan
    url: https://a.4cdn.org
    web_url: https://boards.4chan.org
    media_hosts: [boards.4chan.org, 4chan.org, 4channel.org]
`

type SiteConfig struct {
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	URL          string        `yaml:"url"`
	WebURL       string        `yaml:"web_url"`
	Enabled      *bool         `yaml:"enabled"`
	BoardsType   string        `yaml:"boards_type"`
	MediaHosts   []string      `yaml:"media_hosts"`
	RequestDelay time.Duration `yaml:"request_delay"`
}

type sitesFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

func (c SiteConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Config converts the file entry into the shared site configuration.
func (c SiteConfig) Config() (site.Config, error) {
	bt, err := site.ParseBoardsType(c.BoardsType)
	if err != nil {
		return site.Config{}, fmt.Errorf("site %q: %w", c.Name, err)
	}
	return site.Config{
		Name:       c.Name,
		Enabled:    c.IsEnabled(),
		BoardsType: bt,
		MediaHosts: c.MediaHosts,
	}, nil
}

// ParseSites decodes and validates a sites document.
func ParseSites(data []byte) ([]SiteConfig, error) {
	var f sitesFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sites: %w", err)
	}

	seen := make(map[string]bool)
	for i, c := range f.Sites {
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("site #%d has no name", i+1)
		case seen[c.Name]:
			return nil, fmt.Errorf("duplicate site %q", c.Name)
		case c.Kind != KindFourchan && c.Kind != KindVichan:
			return nil, fmt.Errorf("site %q: %w %q", c.Name, ErrUnknownSiteKind, c.Kind)
		case c.URL == "":
			return nil, fmt.Errorf("site %q has no url", c.Name)
		}
		if _, err := c.Config(); err != nil {
			return nil, err
		}
		seen[c.Name] = true
	}
	return f.Sites, nil
}

// LoadSites reads the sites file at path, falling back to DefaultSites when
// it does not exist.
func LoadSites(path string) ([]SiteConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ParseSites([]byte(DefaultSites))
	}
	if err != nil {
		return nil, err
	}
	return ParseSites(data)
}

func NewSite(c SiteConfig, client *fetch.Client, deps site.Deps) (site.Site, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case KindFourchan:
		s, err := fourchan.New(cfg, c.URL, c.WebURL, client, deps)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindVichan:
		s, err := vichan.New(cfg, c.URL, vichan.Options{RequestDelay: c.RequestDelay}, deps)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("site %q: %w %q", c.Name, ErrUnknownSiteKind, c.Kind)
}

func NewSiteManager(cfgs []SiteConfig, client *fetch.Client, deps site.Deps) (*site.Manager, error) {
	m, err := site.NewManager()
	if err != nil {
		return nil, err
	}
	for _, c := range cfgs {
		s, err := NewSite(c, client, deps)
		if err != nil {
			return nil, err
		}
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OpenDatabase opens the database named by the "database" setting, creating
// it when needed.
func OpenDatabase() (*database.BoardDB, error) {
	return database.OpenBoardDB(viper.GetString("database"))
}

func OpenExistingDatabase() (*database.BoardDB, error) {
	return database.OpenExistingBoardDB(viper.GetString("database"))
}

func LoadConfiguredSites() ([]SiteConfig, error) {
	return LoadSites(viper.GetString("sites"))
}

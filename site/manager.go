package site

import (
	"fmt"
	"net/url"

	"github.com/zvonler/chanspy/descriptor"
)

// Manager holds the configured sites and finds the one a name or URL
// belongs to.
type Manager struct {
	sites  []Site
	byName map[string]Site
}

func NewManager(sites ...Site) (*Manager, error) {
	m := &Manager{byName: make(map[string]Site, len(sites))}
	for _, s := range sites {
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) Add(s Site) error {
	if _, ok := m.byName[s.Name()]; ok {
		return fmt.Errorf("duplicate site %q", s.Name())
	}
	m.byName[s.Name()] = s
	m.sites = append(m.sites, s)
	return nil
}

// Sites returns every site in configuration order.
func (m *Manager) Sites() []Site {
	return append([]Site(nil), m.sites...)
}

func (m *Manager) Enabled() []Site {
	var res []Site
	for _, s := range m.sites {
		if s.Enabled() {
			res = append(res, s)
		}
	}
	return res
}

func (m *Manager) ByName(name string) (Site, error) {
	if s, ok := m.byName[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSite, name)
}

// ByURL returns the site whose media hosts serve u.
func (m *Manager) ByURL(u *url.URL) (Site, error) {
	for _, s := range m.sites {
		if ContainsMediaHostURL(u, s.MediaHosts()) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: no site serves %s", ErrUnknownSite, u.Host)
}

// ResolveThread parses rawURL and maps it to a thread of the site serving it.
func (m *Manager) ResolveThread(rawURL string) (Site, *descriptor.ThreadDescriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	s, err := m.ByURL(u)
	if err != nil {
		return nil, nil, err
	}
	td, err := s.ResolveThread(u)
	if err != nil {
		return nil, nil, err
	}
	return s, td, nil
}

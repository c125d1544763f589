package thread

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/configuration"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/fetch"
	"github.com/zvonler/chanspy/site"
)

func newSites(t *testing.T) (*site.Manager, *descriptor.Registry) {
	t.Helper()

	cfgs, err := configuration.ParseSites([]byte(`
sites:
  - name: 4chan
    kind: fourchan
    url: https://a.4cdn.org
    web_url: https://boards.4chan.org
    media_hosts: [boards.4chan.org]
`))
	require.NoError(t, err)

	client, err := fetch.New(fetch.Options{Transport: http.DefaultTransport})
	require.NoError(t, err)
	reg := descriptor.NewRegistry()
	sites, err := configuration.NewSiteManager(cfgs, client, site.Deps{Registry: reg, Store: boards.NewManager(reg)})
	require.NoError(t, err)
	return sites, reg
}

func TestLookupThread(t *testing.T) {
	sites, reg := newSites(t)

	s, byURL, err := lookupThread(sites, reg, "https://boards.4chan.org/g/thread/98765")
	require.NoError(t, err)
	require.Equal(t, "4chan", s.Name())

	_, byDescriptor, err := lookupThread(sites, reg, "TD_4chan_g_98765")
	require.NoError(t, err)
	require.Same(t, byURL, byDescriptor)

	_, _, err = lookupThread(sites, reg, "CD_4chan_g")
	require.Error(t, err)
	_, _, err = lookupThread(sites, reg, "TD_8kun_g_1")
	require.ErrorIs(t, err, site.ErrUnknownSite)
	_, _, err = lookupThread(sites, reg, "gibberish")
	require.ErrorIs(t, err, descriptor.ErrMalformedDescriptor)
}

func TestPrintThread(t *testing.T) {
	sites, reg := newSites(t)
	s, td, err := lookupThread(sites, reg, "TD_4chan_g_42")
	require.NoError(t, err)

	var buf bytes.Buffer
	printThread(&buf, td, s.ThreadURL(td), false)
	require.Equal(t, "TD_4chan_g_42 https://boards.4chan.org/g/thread/42\n", buf.String())
}

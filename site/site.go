// Package site holds what every imageboard site shares: its configuration,
// the board synchronization pipeline and lookups across configured sites.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
)

var (
	ErrNotThreadURL = errors.New("not a thread URL")
	ErrUnknownSite  = errors.New("unknown site")
)

// BoardsType says whether a site's board list can be fetched.
type BoardsType int

const (
	// BoardsDynamic sites publish a board list.
	BoardsDynamic BoardsType = iota
	// BoardsStatic sites have a fixed, configured set of boards.
	BoardsStatic
	// BoardsInfinite sites let users create boards, so no list is complete.
	BoardsInfinite
)

func (t BoardsType) CanList() bool { return t == BoardsDynamic }

func (t BoardsType) String() string {
	switch t {
	case BoardsDynamic:
		return "dynamic"
	case BoardsStatic:
		return "static"
	case BoardsInfinite:
		return "infinite"
	}
	return fmt.Sprintf("boards_type(%d)", int(t))
}

func ParseBoardsType(s string) (BoardsType, error) {
	switch strings.ToLower(s) {
	case "", "dynamic":
		return BoardsDynamic, nil
	case "static":
		return BoardsStatic, nil
	case "infinite":
		return BoardsInfinite, nil
	}
	return 0, fmt.Errorf("unknown boards type %q", s)
}

// Actions performs a site's network requests.
//
//go:generate mockgen -destination=mocks/mock_actions.go -package=mocks github.com/zvonler/chanspy/site Actions
type Actions interface {
	// Boards fetches and decodes the site's board list in one attempt.
	Boards(ctx context.Context) result.Outcome[model.SiteBoards]
}

// Site is one configured imageboard.
type Site interface {
	Name() string
	Descriptor() *descriptor.SiteDescriptor
	Enabled() bool
	BoardsType() BoardsType
	MediaHosts() []string

	LoadBoards(ctx context.Context) (result.Outcome[model.SiteBoards], error)
	Board(code string) (model.ChanBoard, bool)
	CreateBoard(ctx context.Context, name, code string) (model.ChanBoard, error)

	// ThreadURL returns the web page of td.
	ThreadURL(td *descriptor.ThreadDescriptor) string

	// ResolveThread maps a thread page URL of this site back to its
	// descriptor, or fails with ErrNotThreadURL.
	ResolveThread(u *url.URL) (*descriptor.ThreadDescriptor, error)
}

// ContainsMediaHostURL reports whether u is served by one of hosts, with or
// without a leading "www.".
func ContainsMediaHostURL(u *url.URL, hosts []string) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		h = strings.ToLower(h)
		if host == h || host == "www."+h {
			return true
		}
	}
	return false
}

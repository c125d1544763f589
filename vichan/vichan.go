// Package vichan implements sites running the vichan/infinity imageboard
// software, whose board list is read from the navigation bar of the front
// page.
package vichan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"go.uber.org/zap"

	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/fetch"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
	"github.com/zvonler/chanspy/site"
	"github.com/zvonler/chanspy/utils"
)

const boardListSelector = "div.boardlist a"

type Options struct {
	// Transport defaults to fetch.NewTransport().
	Transport http.RoundTripper

	// RequestDelay spaces out requests to the same site.
	RequestDelay time.Duration
	Timeout      time.Duration
}

type Site struct {
	*site.Base

	siteURL *url.URL
	opts    Options
}

var _ site.Site = (*Site)(nil)

func New(cfg site.Config, siteURL string, opts Options, deps site.Deps) (*Site, error) {
	u, err := utils.ParseSiteURL(siteURL)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", cfg.Name, err)
	}
	if opts.Transport == nil {
		if opts.Transport, err = fetch.NewTransport(); err != nil {
			return nil, fmt.Errorf("site %q: %w", cfg.Name, err)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}

	s := &Site{siteURL: u, opts: opts}
	s.Base = site.NewBase(cfg, s, deps)
	return s, nil
}

// ctxTransport ties every request of a collector to one context.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// newCollector returns a fresh collector, since a collector refuses to visit a
// URL twice.
func (s *Site) newCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.UserAgent(fetch.DefaultUserAgent),
	)
	collector.ParseHTTPErrorResponse = true
	collector.SetRequestTimeout(s.opts.Timeout)
	collector.WithTransport(ctxTransport{ctx: ctx, base: s.opts.Transport})
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.opts.RequestDelay,
	})
	return collector
}

func (s *Site) Boards(ctx context.Context) result.Outcome[model.SiteBoards] {
	collector := s.newCollector(ctx)

	var (
		status int
		found  bool
		res    = model.SiteBoards{Site: s.Descriptor()}
		seen   = make(map[string]bool)
	)

	collector.OnRequest(func(r *colly.Request) {
		s.Logger().Debug("Fetching board list", zap.Stringer("url", r.URL))
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		if status < 200 || status > 299 {
			return
		}
		e.DOM.Find(boardListSelector).Each(func(_ int, a *goquery.Selection) {
			found = true
			code, ok := s.boardCode(e.Request.URL, a.AttrOr("href", ""))
			if !ok || seen[code] {
				return
			}
			seen[code] = true

			bd, err := s.Registry().BoardDescriptor(s.Name(), code)
			if err != nil {
				s.Logger().Debug("Skipping board link", zap.String("code", code), zap.Error(err))
				return
			}
			name := strings.TrimSpace(a.AttrOr("title", ""))
			if name == "" {
				name = strings.TrimSpace(a.Text())
			}
			board := model.NewChanBoard(bd, name)
			board.Order = len(res.Boards)
			res.Boards = append(res.Boards, board)
		})
	})

	if err := collector.Visit(s.siteURL.JoinPath("/").String()); err != nil {
		return result.TransportOrUnknownError[model.SiteBoards](fmt.Errorf("visiting front page: %w", err))
	}
	collector.Wait()

	switch {
	case status < 200 || status > 299:
		return result.ServerError[model.SiteBoards](status)
	case !found || len(res.Boards) == 0:
		return result.DecodeError[model.SiteBoards](errors.New("front page has no board list"))
	}
	return result.Success(res)
}

// boardCode extracts the board from a navigation link pointing at /<code>/ or
// /<code>/index.html on this site.
func (s *Site) boardCode(page *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	target := page.ResolveReference(ref)
	if !strings.EqualFold(target.Hostname(), s.siteURL.Hostname()) {
		return "", false
	}

	rel := strings.TrimPrefix(target.Path, s.siteURL.Path)
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "" && strings.HasSuffix(target.Path, "/"):
	case len(parts) == 2 && parts[1] == "index.html":
	default:
		return "", false
	}
	if strings.ContainsAny(parts[0], "_.") {
		return "", false
	}
	return parts[0], true
}

func (s *Site) ThreadURL(td *descriptor.ThreadDescriptor) string {
	return s.siteURL.JoinPath(td.BoardCode(), "res", strconv.FormatInt(td.ThreadNo(), 10)+".html").String()
}

// ResolveThread accepts /<board>/res/<no>.html and the /<no>+50.html
// variant.
func (s *Site) ResolveThread(u *url.URL) (*descriptor.ThreadDescriptor, error) {
	rel := strings.TrimPrefix(u.Path, s.siteURL.Path)
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	if len(parts) != 3 || parts[1] != "res" || !strings.HasSuffix(parts[2], ".html") {
		return nil, fmt.Errorf("%w: %s", site.ErrNotThreadURL, u)
	}
	noStr, _, _ := strings.Cut(strings.TrimSuffix(parts[2], ".html"), "+")
	no, err := strconv.ParseInt(noStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", site.ErrNotThreadURL, u)
	}
	bd, err := s.Registry().BoardDescriptor(s.Name(), parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", site.ErrNotThreadURL, u, err)
	}
	return s.Registry().ThreadDescriptor(bd, no)
}

// Package fourchan implements sites speaking the 4chan read-only JSON API.
package fourchan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/fetch"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
	"github.com/zvonler/chanspy/site"
	"github.com/zvonler/chanspy/utils"
)

// Fetcher is satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url string) result.Outcome[[]byte]
}

type Site struct {
	*site.Base

	apiURL *url.URL
	webURL *url.URL
	client Fetcher
}

var _ site.Site = (*Site)(nil)

// New returns a site reading its API below apiURL. Thread pages live below
// webURL, which defaults to apiURL.
func New(cfg site.Config, apiURL, webURL string, client Fetcher, deps site.Deps) (*Site, error) {
	api, err := utils.ParseSiteURL(apiURL)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", cfg.Name, err)
	}
	web := api
	if webURL != "" {
		if web, err = utils.ParseSiteURL(webURL); err != nil {
			return nil, fmt.Errorf("site %q: %w", cfg.Name, err)
		}
	}

	s := &Site{apiURL: api, webURL: web, client: client}
	s.Base = site.NewBase(cfg, s, deps)
	return s, nil
}

func (s *Site) Boards(ctx context.Context) result.Outcome[model.SiteBoards] {
	endpoint := s.apiURL.JoinPath("boards.json").String()
	s.Logger().Debug("Fetching board list", zap.String("url", endpoint))
	return fetch.Decode(s.client.Get(ctx, endpoint), s.decodeBoards)
}

func (s *Site) decodeBoards(body []byte) (model.SiteBoards, error) {
	if !gjson.ValidBytes(body) {
		return model.SiteBoards{}, errors.New("board list is not valid JSON")
	}
	list := gjson.GetBytes(body, "boards")
	if !list.IsArray() {
		return model.SiteBoards{}, errors.New("board list has no boards array")
	}

	res := model.SiteBoards{Site: s.Descriptor()}
	for order, b := range list.Array() {
		code := b.Get("board").String()
		bd, err := s.Registry().BoardDescriptor(s.Name(), code)
		if err != nil {
			s.Logger().Debug("Skipping board", zap.Int("order", order), zap.Error(err))
			continue
		}
		res.Boards = append(res.Boards, s.decodeBoard(bd, order, b))
	}
	return res, nil
}

func (s *Site) decodeBoard(bd *descriptor.BoardDescriptor, order int, b gjson.Result) model.ChanBoard {
	board := model.NewChanBoard(bd, utils.PlainText(b.Get("title").String()))
	board.Order = order
	board.PerPage = intOr(b, "per_page", model.DefaultPerPage)
	board.Pages = intOr(b, "pages", model.DefaultPages)
	board.MaxFileSize = intOr(b, "max_filesize", model.Unknown)
	board.MaxWebmSize = intOr(b, "max_webm_filesize", model.Unknown)
	board.MaxCommentChars = intOr(b, "max_comment_chars", model.Unknown)
	board.BumpLimit = intOr(b, "bump_limit", model.Unknown)
	board.ImageLimit = intOr(b, "image_limit", model.Unknown)
	board.Cooldowns = model.Cooldowns{
		Threads: intOr(b, "cooldowns.threads", 0),
		Replies: intOr(b, "cooldowns.replies", 0),
		Images:  intOr(b, "cooldowns.images", 0),
	}
	board.CustomSpoilers = intOr(b, "custom_spoilers", model.Unknown)
	board.Description = utils.PlainText(b.Get("meta_description").String())
	board.WorkSafe = b.Get("ws_board").Bool()
	board.Spoilers = b.Get("spoilers").Bool()
	board.UserIDs = b.Get("user_ids").Bool()
	board.CodeTags = b.Get("code_tags").Bool()
	board.CountryFlags = b.Get("country_flags").Bool()
	board.MathTags = b.Get("math_tags").Bool()
	return board
}

func intOr(b gjson.Result, path string, def int) int {
	if v := b.Get(path); v.Exists() {
		return int(v.Int())
	}
	return def
}

func (s *Site) ThreadURL(td *descriptor.ThreadDescriptor) string {
	return s.webURL.JoinPath(td.BoardCode(), "thread", strconv.FormatInt(td.ThreadNo(), 10)).String()
}

// ResolveThread accepts /<board>/thread/<no> with an optional slug and
// fragment.
func (s *Site) ResolveThread(u *url.URL) (*descriptor.ThreadDescriptor, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "thread" {
		return nil, fmt.Errorf("%w: %s", site.ErrNotThreadURL, u)
	}
	no, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", site.ErrNotThreadURL, u)
	}
	bd, err := s.Registry().BoardDescriptor(s.Name(), parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", site.ErrNotThreadURL, u, err)
	}
	return s.Registry().ThreadDescriptor(bd, no)
}

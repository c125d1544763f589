package board

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
	"github.com/zvonler/chanspy/site"
	"github.com/zvonler/chanspy/site/mocks"
)

type stubSite struct {
	*site.Base
}

func (stubSite) ThreadURL(*descriptor.ThreadDescriptor) string { return "" }

func (stubSite) ResolveThread(*url.URL) (*descriptor.ThreadDescriptor, error) {
	return nil, site.ErrNotThreadURL
}

type fixture struct {
	reg   *descriptor.Registry
	store *boards.Manager
	ctrl  *gomock.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	retryInterval = time.Millisecond
	t.Cleanup(func() { retryInterval = time.Second })

	f := &fixture{reg: descriptor.NewRegistry(), ctrl: gomock.NewController(t)}
	f.store = boards.NewManager(f.reg)
	require.NoError(t, f.store.Initialize(context.Background(), nil))
	return f
}

func (f *fixture) site(name string) (stubSite, *mocks.MockActions) {
	actions := mocks.NewMockActions(f.ctrl)
	base := site.NewBase(site.Config{Name: name, Enabled: true}, actions, site.Deps{Registry: f.reg, Store: f.store})
	return stubSite{base}, actions
}

func (f *fixture) boards(site string, codes ...string) model.SiteBoards {
	sb := model.SiteBoards{Site: f.reg.SiteDescriptor(site)}
	for _, c := range codes {
		sb.Boards = append(sb.Boards, model.NewChanBoard(f.reg.MustBoardDescriptor(site, c), c))
	}
	return sb
}

func TestSyncSitesRetriesServerErrors(t *testing.T) {
	f := newFixture(t)
	flaky, flakyActions := f.site("flaky")
	gomock.InOrder(
		flakyActions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](503)),
		flakyActions.EXPECT().Boards(gomock.Any()).Return(result.Success(f.boards("flaky", "g"))),
	)
	gone, goneActions := f.site("gone")
	goneActions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](404)).Times(1)

	reports := syncSites(context.Background(), []site.Site{flaky, gone}, 2, 2, zap.NewNop())
	require.Len(t, reports, 2)

	require.Equal(t, "flaky", reports[0].site)
	require.NoError(t, reports[0].err)
	require.True(t, reports[0].outcome.IsSuccess())

	require.Equal(t, "gone", reports[1].site)
	require.NoError(t, reports[1].err)
	require.Equal(t, 404, reports[1].outcome.StatusCode())

	require.Equal(t, 1, f.store.Len())
}

func TestSyncSitesGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)
	s, actions := f.site("down")
	actions.EXPECT().Boards(gomock.Any()).
		Return(result.TransportOrUnknownError[model.SiteBoards](errors.New("connection refused"))).
		Times(3)

	reports := syncSites(context.Background(), []site.Site{s}, 2, 1, zap.NewNop())
	require.NoError(t, reports[0].err)
	require.Equal(t, result.KindTransportOrUnknownError, reports[0].outcome.Kind())
}

func TestSyncSitesReportsPipelineErrors(t *testing.T) {
	f := newFixture(t)
	s, _ := f.site("cancelled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uninitialized := boards.NewManager(f.reg)
	s.Base = site.NewBase(site.Config{Name: "cancelled", Enabled: true}, mocks.NewMockActions(f.ctrl),
		site.Deps{Registry: f.reg, Store: uninitialized})

	reports := syncSites(ctx, []site.Site{s}, 2, 1, zap.NewNop())
	require.ErrorIs(t, reports[0].err, context.Canceled)
}

type failingPersister struct{}

func (failingPersister) SaveBoards(context.Context, []model.ChanBoard) error {
	return errors.New("disk full")
}

func TestSyncSitesMergeFailureAfterRetry(t *testing.T) {
	f := newFixture(t)
	store := boards.NewManager(f.reg, boards.WithPersister(failingPersister{}))
	require.NoError(t, store.Initialize(context.Background(), nil))

	actions := mocks.NewMockActions(f.ctrl)
	s := stubSite{site.NewBase(site.Config{Name: "full", Enabled: true}, actions,
		site.Deps{Registry: f.reg, Store: store})}
	gomock.InOrder(
		actions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](503)),
		actions.EXPECT().Boards(gomock.Any()).Return(result.Success(f.boards("full", "g"))),
	)

	reports := syncSites(context.Background(), []site.Site{s}, 2, 1, zap.NewNop())
	require.ErrorIs(t, reports[0].err, boards.ErrMergeFailed)
	require.False(t, reports[0].outcome.IsSuccess())
	require.Equal(t, result.KindUnknown, reports[0].outcome.Kind())
	require.Zero(t, reports[0].outcome.StatusCode())
}

func TestPrintReport(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer

	printReport(&buf, syncReport{site: "4chan", outcome: result.Success(f.boards("4chan", "g", "a"))}, false)
	printReport(&buf, syncReport{site: "ex", outcome: result.ServerError[model.SiteBoards](503)}, false)
	printReport(&buf, syncReport{site: "db", err: errors.New("disk full")}, false)

	require.Equal(t,
		"4chan: ok (2 boards)\n"+
			"ex: server_error (server error: HTTP 503)\n"+
			"db: failed (disk full)\n",
		buf.String())
}

func TestPrintBoards(t *testing.T) {
	f := newFixture(t)
	sb := f.boards("4chan", "g", "vip")
	sb.Boards[0].Active = true
	sb.Boards[1].Name = ""

	var buf bytes.Buffer
	printBoards(&buf, sb.Boards, false)
	require.Equal(t, "* /g  / g\n  /vip/ No board name\n", buf.String())
}

package site

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
	"github.com/zvonler/chanspy/site/mocks"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []string
	merged   map[string]int
}

func (r *recorder) RecordOutcome(site, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, site+":"+outcome)
}

func (r *recorder) SetMergedBoards(site string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.merged == nil {
		r.merged = make(map[string]int)
	}
	r.merged[site] = n
}

type failingPersister struct{}

func (failingPersister) SaveBoards(context.Context, []model.ChanBoard) error {
	return errors.New("disk full")
}

type fixture struct {
	reg     *descriptor.Registry
	store   *boards.Manager
	actions *mocks.MockActions
	metrics *recorder
	logs    *observer.ObservedLogs
	phases  []Phase
	deps    Deps
}

func newFixture(t *testing.T, opts ...boards.Option) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		reg:     descriptor.NewRegistry(),
		actions: mocks.NewMockActions(gomock.NewController(t)),
		metrics: &recorder{},
		logs:    logs,
	}
	f.store = boards.NewManager(f.reg, opts...)
	f.deps = Deps{
		Registry: f.reg,
		Store:    f.store,
		Logger:   zap.New(core),
		Metrics:  f.metrics,
		Observer: func(_ string, p Phase) { f.phases = append(f.phases, p) },
	}
	return f
}

func (f *fixture) base(cfg Config) *Base {
	return NewBase(cfg, f.actions, f.deps)
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Initialize(context.Background(), nil))
}

func exampleConfig() Config {
	return Config{Name: "example", Enabled: true, BoardsType: BoardsDynamic}
}

func siteBoards(reg *descriptor.Registry, site string, pairs ...string) model.SiteBoards {
	sb := model.SiteBoards{Site: reg.SiteDescriptor(site)}
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.Boards = append(sb.Boards, model.NewChanBoard(reg.MustBoardDescriptor(site, pairs[i]), pairs[i+1]))
	}
	return sb
}

func TestLoadBoardsSkipsWhenCannotList(t *testing.T) {
	for _, cfg := range []Config{
		{Name: "example", Enabled: false, BoardsType: BoardsDynamic},
		{Name: "example", Enabled: true, BoardsType: BoardsStatic},
		{Name: "example", Enabled: true, BoardsType: BoardsInfinite},
	} {
		f := newFixture(t)
		// The store is never initialized and the mock expects no call.
		outcome, err := f.base(cfg).LoadBoards(context.Background())
		require.NoError(t, err)
		sb, ok := outcome.Value()
		require.True(t, ok)
		require.Empty(t, sb.Boards)
		require.Same(t, f.reg.SiteDescriptor("example"), sb.Site)
		require.Equal(t, []string{"example:skipped"}, f.metrics.outcomes)
		require.Equal(t, []Phase{PhaseCheckingPreconditions, PhaseCompleted}, f.phases)
	}
}

func TestLoadBoardsServerErrorLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	_, err := f.store.CreateOrUpdateBoards(context.Background(), siteBoards(f.reg, "example", "g", "Technology").Boards)
	require.NoError(t, err)
	before := f.store.Boards(nil)

	f.actions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](503))

	outcome, err := f.base(exampleConfig()).LoadBoards(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.KindServerError, outcome.Kind())
	require.Equal(t, 503, outcome.StatusCode())
	require.Equal(t, before, f.store.Boards(nil))

	entries := f.logs.FilterMessage("Failed to load boards").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	require.EqualValues(t, 503, entries[0].ContextMap()["status"])
	require.Equal(t, "example", entries[0].ContextMap()["site"])
	require.Equal(t, []string{"example:server_error"}, f.metrics.outcomes)
}

func TestLoadBoardsTransportAndDecodeErrors(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	b := f.base(exampleConfig())

	f.actions.EXPECT().Boards(gomock.Any()).Return(result.TransportOrUnknownError[model.SiteBoards](errors.New("connection reset")))
	outcome, err := b.LoadBoards(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.KindTransportOrUnknownError, outcome.Kind())
	require.EqualError(t, outcome.Cause(), "connection reset")

	f.actions.EXPECT().Boards(gomock.Any()).Return(result.DecodeError[model.SiteBoards](errors.New("no boards array")))
	outcome, err = b.LoadBoards(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.KindDecodeError, outcome.Kind())

	require.Zero(t, f.store.Len())
	require.Equal(t, []string{"example:transport_error", "example:decode_error"}, f.metrics.outcomes)
}

func TestLoadBoardsMergesFetchedBoards(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	// Descriptors built by another registry are mapped to ours.
	foreign := descriptor.NewRegistry()
	f.actions.EXPECT().Boards(gomock.Any()).
		Return(result.Success(siteBoards(foreign, "example", "g", "Technology", "a", "Anime"))).
		Times(2)

	b := f.base(exampleConfig())
	for range 2 {
		outcome, err := b.LoadBoards(context.Background())
		require.NoError(t, err)
		sb, ok := outcome.Value()
		require.True(t, ok)
		require.Len(t, sb.Boards, 2)
		for _, board := range sb.Boards {
			require.Same(t, f.reg.MustBoardDescriptor("example", board.BoardCode()), board.Descriptor)
		}
	}

	require.Equal(t, 2, f.store.Len())
	g, ok := f.store.ByBoardDescriptor(f.reg.MustBoardDescriptor("example", "g"))
	require.True(t, ok)
	require.Equal(t, "Technology", g.Name)
	require.Same(t, f.reg.MustBoardDescriptor("example", "g"), g.Descriptor)
	require.Same(t, f.reg.MustBoardDescriptor("example", "g"), f.reg.MustBoardDescriptor("example", "g"))

	a, ok := b.Board("a")
	require.True(t, ok)
	require.Equal(t, "Anime", a.Name)

	require.Equal(t, 2, f.metrics.merged["example"])
	require.Len(t, f.logs.FilterMessage("Loaded boards").All(), 2)
	require.Equal(t, []Phase{
		PhaseCheckingPreconditions, PhaseAwaitingStoreReady, PhaseFetching, PhaseClassifying, PhaseMerging, PhaseCompleted,
	}, f.phases[:6])
}

func TestLoadBoardsSkipsUnmergeableBoards(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	fetched := siteBoards(f.reg, "example", "g", "Technology")
	fetched.Boards = append(fetched.Boards,
		model.NewChanBoard(f.reg.MustBoardDescriptor("other", "a"), "Anime"),
		model.ChanBoard{Name: "Orphan"})
	f.actions.EXPECT().Boards(gomock.Any()).Return(result.Success(fetched))

	outcome, err := f.base(exampleConfig()).LoadBoards(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.IsSuccess())
	require.Equal(t, 1, f.store.Len())
	_, ok := f.store.ByBoardDescriptor(f.reg.MustBoardDescriptor("example", "a"))
	require.False(t, ok)
	_, ok = f.store.ByBoardDescriptor(f.reg.MustBoardDescriptor("other", "a"))
	require.False(t, ok)
	require.Equal(t, 1, f.metrics.merged["example"])

	foreign := f.logs.FilterMessage("Skipping fetched board of another site").All()
	require.Len(t, foreign, 1)
	require.Equal(t, zapcore.WarnLevel, foreign[0].Level)
	orphan := f.logs.FilterMessage("Skipping fetched board without descriptor").All()
	require.Len(t, orphan, 1)
	require.Equal(t, "Orphan", orphan[0].ContextMap()["name"])
}

func TestLoadBoardsMergeFailure(t *testing.T) {
	f := newFixture(t, boards.WithPersister(failingPersister{}))
	f.initialize(t)
	f.actions.EXPECT().Boards(gomock.Any()).Return(result.Success(siteBoards(f.reg, "example", "g", "Technology")))

	outcome, err := f.base(exampleConfig()).LoadBoards(context.Background())
	require.ErrorIs(t, err, boards.ErrMergeFailed)
	require.False(t, outcome.IsSuccess())
	require.Equal(t, result.KindUnknown, outcome.Kind())
	require.Zero(t, f.store.Len())
	require.Equal(t, []string{"example:merge_failure"}, f.metrics.outcomes)
	require.Len(t, f.logs.FilterMessage("Failed to merge boards").All(), 1)
}

func TestLoadBoardsCancelledWhileAwaitingStore(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.base(exampleConfig()).LoadBoards(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, f.metrics.outcomes)
}

func TestLoadBoardsFailedStoreInit(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.store.Initialize(context.Background(), failingLoader{}))

	_, err := f.base(exampleConfig()).LoadBoards(context.Background())
	require.ErrorIs(t, err, boards.ErrNotInitialized)
}

type failingLoader struct{}

func (failingLoader) LoadBoards(context.Context, *descriptor.Registry) ([]model.ChanBoard, error) {
	return nil, errors.New("corrupt database")
}

func TestLoadBoardsCapturesPanic(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	f.actions.EXPECT().Boards(gomock.Any()).DoAndReturn(func(context.Context) result.Outcome[model.SiteBoards] {
		panic("decoder bug")
	})

	_, err := f.base(exampleConfig()).LoadBoards(context.Background())
	require.ErrorContains(t, err, "decoder bug")
}

func TestLoadBoardsAsync(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	f.actions.EXPECT().Boards(gomock.Any()).Return(result.Success(siteBoards(f.reg, "example", "g", "Technology")))

	var got []result.Result[result.Outcome[model.SiteBoards]]
	<-f.base(exampleConfig()).LoadBoardsAsync(context.Background(), func(r result.Result[result.Outcome[model.SiteBoards]]) {
		got = append(got, r)
	})
	require.Len(t, got, 1)
	require.False(t, got[0].IsError())
	require.True(t, got[0].ValueOrZero().IsSuccess())
}

func TestLoadBoardsAsyncEscalatesWithoutCallback(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	var unhandled []error
	f.deps.OnUnhandledError = func(site string, err error) {
		require.Equal(t, "example", site)
		unhandled = append(unhandled, err)
	}
	f.actions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](500))
	<-f.base(exampleConfig()).LoadBoardsAsync(context.Background(), nil)

	require.Len(t, unhandled, 1)
	var fetchErr *result.FetchError
	require.ErrorAs(t, unhandled[0], &fetchErr)
	require.Equal(t, 500, fetchErr.StatusCode)
}

func TestLoadBoardsAsyncDefaultHandlerLogs(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	f.actions.EXPECT().Boards(gomock.Any()).Return(result.ServerError[model.SiteBoards](502))

	<-f.base(exampleConfig()).LoadBoardsAsync(context.Background(), nil)
	require.Len(t, f.logs.FilterMessage("Unhandled board load error").All(), 1)
}

func TestCreateBoard(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)
	b := f.base(exampleConfig())
	ctx := context.Background()

	rich := model.NewChanBoard(f.reg.MustBoardDescriptor("example", "g"), "Technology")
	rich.BumpLimit = 300
	_, err := f.store.CreateOrUpdateBoards(ctx, []model.ChanBoard{rich})
	require.NoError(t, err)

	existing, err := b.CreateBoard(ctx, "placeholder", "g")
	require.NoError(t, err)
	require.Equal(t, rich, existing)

	created, err := b.CreateBoard(ctx, "Anime", "a")
	require.NoError(t, err)
	require.Equal(t, "Anime", created.Name)
	require.Equal(t, model.DefaultPerPage, created.PerPage)
	require.Same(t, f.reg.MustBoardDescriptor("example", "a"), created.Descriptor)

	again, err := b.CreateBoard(ctx, "Other", "a")
	require.NoError(t, err)
	require.Equal(t, "Anime", again.Name)
	require.Equal(t, 2, f.store.Len())

	_, err = b.CreateBoard(ctx, "x", " ")
	require.ErrorIs(t, err, descriptor.ErrInvalidArgument)
	_, err = b.CreateBoard(ctx, "x", "a_b")
	require.ErrorIs(t, err, descriptor.ErrInvalidArgument)
	require.Equal(t, 2, f.store.Len())

	_, ok := b.Board("a/b")
	require.False(t, ok)
}

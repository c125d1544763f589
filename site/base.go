package site

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
	"github.com/zvonler/chanspy/result"
)

// Outcome labels recorded besides the result.Kind strings.
const (
	OutcomeMergeFailure = "merge_failure"
	OutcomeSkipped      = "skipped"
)

type Config struct {
	Name       string
	Enabled    bool
	BoardsType BoardsType
	MediaHosts []string
}

// Recorder receives one outcome per completed LoadBoards.
type Recorder interface {
	RecordOutcome(site, outcome string)
	SetMergedBoards(site string, n int)
}

// Deps are the collaborators shared by every site.
type Deps struct {
	Registry *descriptor.Registry
	Store    boards.Store
	Logger   *zap.Logger

	Metrics  Recorder
	Observer PhaseObserver

	// OnUnhandledError receives failures of LoadBoardsAsync calls made
	// without a callback. It defaults to logging them.
	OnUnhandledError func(site string, err error)
}

// Base implements the parts of Site that do not depend on the site kind.
type Base struct {
	cfg        Config
	descriptor *descriptor.SiteDescriptor
	actions    Actions

	registry    *descriptor.Registry
	store       boards.Store
	logger      *zap.Logger
	metrics     Recorder
	observer    PhaseObserver
	onUnhandled func(site string, err error)
}

func NewBase(cfg Config, actions Actions, deps Deps) *Base {
	b := &Base{
		cfg:         cfg,
		descriptor:  deps.Registry.SiteDescriptor(cfg.Name),
		actions:     actions,
		registry:    deps.Registry,
		store:       deps.Store,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		observer:    deps.Observer,
		onUnhandled: deps.OnUnhandledError,
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.logger = b.logger.With(zap.String("site", cfg.Name))
	if b.onUnhandled == nil {
		b.onUnhandled = func(site string, err error) {
			b.logger.Error("Unhandled board load error", zap.Error(err))
		}
	}
	return b
}

func (b *Base) Name() string                           { return b.cfg.Name }
func (b *Base) Descriptor() *descriptor.SiteDescriptor { return b.descriptor }
func (b *Base) Enabled() bool                          { return b.cfg.Enabled }
func (b *Base) BoardsType() BoardsType                 { return b.cfg.BoardsType }
func (b *Base) MediaHosts() []string                   { return b.cfg.MediaHosts }
func (b *Base) Registry() *descriptor.Registry         { return b.registry }
func (b *Base) Logger() *zap.Logger                    { return b.logger }

// LoadBoards fetches the board list once and merges it into the store.
//
// A disabled site, or one whose boards cannot be listed, yields an empty
// Success without touching the network. Fetch failures come back as the
// matching Outcome with a nil error and leave the store unchanged. The error
// is non-nil only when the merge failed, the store never became ready, or ctx
// ended the run.
func (b *Base) LoadBoards(ctx context.Context) (result.Outcome[model.SiteBoards], error) {
	res, fatal := result.Try(func() (result.Outcome[model.SiteBoards], error) {
		return b.loadBoards(ctx)
	})
	if fatal != nil {
		b.logger.Debug("Board load abandoned", zap.Error(fatal))
		return result.Outcome[model.SiteBoards]{}, fatal
	}
	return res.Unwrap()
}

func (b *Base) loadBoards(ctx context.Context) (result.Outcome[model.SiteBoards], error) {
	var none result.Outcome[model.SiteBoards]

	b.enter(PhaseCheckingPreconditions)
	if !b.cfg.Enabled || !b.cfg.BoardsType.CanList() {
		b.logger.Debug("Not fetching board list",
			zap.Bool("enabled", b.cfg.Enabled),
			zap.Stringer("boardsType", b.cfg.BoardsType))
		b.record(OutcomeSkipped)
		b.enter(PhaseCompleted)
		return result.Success(model.SiteBoards{Site: b.descriptor}), nil
	}

	b.enter(PhaseAwaitingStoreReady)
	if err := b.store.AwaitUntilInitialized(ctx); err != nil {
		if result.IsFatal(err) {
			return none, err
		}
		return none, fmt.Errorf("waiting for board store: %w", err)
	}

	b.enter(PhaseFetching)
	outcome := b.actions.Boards(ctx)
	if err := ctx.Err(); err != nil {
		return none, err
	}

	b.enter(PhaseClassifying)
	if !outcome.IsSuccess() {
		b.logFailure(outcome)
		b.record(outcome.Kind().String())
		b.enter(PhaseCompleted)
		return outcome, nil
	}

	b.enter(PhaseMerging)
	fetched, _ := outcome.Value()
	merged := make([]model.ChanBoard, 0, len(fetched.Boards))
	for _, board := range fetched.Boards {
		if board.Descriptor == nil {
			b.logger.Warn("Skipping fetched board without descriptor", zap.String("name", board.Name))
			continue
		}
		if board.SiteName() != b.cfg.Name {
			b.logger.Warn("Skipping fetched board of another site", zap.Stringer("board", board.Descriptor))
			continue
		}
		board.Descriptor = b.registry.MustBoardDescriptor(b.cfg.Name, board.BoardCode())
		merged = append(merged, board)
	}

	changed, err := b.store.CreateOrUpdateBoards(ctx, merged)
	if err != nil {
		if result.IsFatal(err) {
			return none, err
		}
		b.logger.Error("Failed to merge boards", zap.Int("boards", len(merged)), zap.Error(err))
		b.record(OutcomeMergeFailure)
		b.enter(PhaseCompleted)
		return none, err
	}

	b.logger.Info("Loaded boards", zap.Int("boards", len(merged)), zap.Bool("changed", changed))
	b.record(result.KindSuccess.String())
	if b.metrics != nil {
		b.metrics.SetMergedBoards(b.cfg.Name, len(merged))
	}
	b.enter(PhaseCompleted)
	return result.Success(model.SiteBoards{Site: b.descriptor, Boards: merged}), nil
}

// LoadBoardsAsync runs LoadBoards in its own goroutine and hands the result
// to cb exactly once. Without cb, a failed load or an error outcome goes to
// the unhandled error handler. The returned channel closes when the run is
// over.
func (b *Base) LoadBoardsAsync(ctx context.Context, cb func(result.Result[result.Outcome[model.SiteBoards]])) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		outcome, err := b.LoadBoards(ctx)
		if cb != nil {
			if err != nil {
				cb(result.Error[result.Outcome[model.SiteBoards]](err))
			} else {
				cb(result.Value(outcome))
			}
			return
		}

		if err == nil {
			err = outcome.Err()
		}
		if err != nil {
			b.onUnhandled(b.cfg.Name, err)
		}
	}()
	return done
}

func (b *Base) Board(code string) (model.ChanBoard, bool) {
	bd, err := b.registry.BoardDescriptor(b.cfg.Name, code)
	if err != nil {
		return model.ChanBoard{}, false
	}
	return b.store.ByBoardDescriptor(bd)
}

// CreateBoard returns the stored board for code, or stores and returns a
// placeholder with only name and code when there is none. An existing board
// is never replaced.
func (b *Base) CreateBoard(ctx context.Context, name, code string) (model.ChanBoard, error) {
	code = strings.TrimSpace(code)
	bd, err := b.registry.BoardDescriptor(b.cfg.Name, code)
	if err != nil {
		return model.ChanBoard{}, err
	}
	if existing, ok := b.store.ByBoardDescriptor(bd); ok {
		return existing, nil
	}

	board, created, err := b.store.CreateBoardIfAbsent(ctx, model.NewChanBoard(bd, name))
	if err != nil {
		return model.ChanBoard{}, err
	}
	if created {
		b.logger.Info("Created board", zap.String("board", code))
	}
	return board, nil
}

func (b *Base) logFailure(o result.Outcome[model.SiteBoards]) {
	switch o.Kind() {
	case result.KindServerError:
		b.logger.Error("Failed to load boards", zap.Stringer("kind", o.Kind()), zap.Int("status", o.StatusCode()))
	default:
		b.logger.Error("Failed to load boards", zap.Stringer("kind", o.Kind()), zap.Error(o.Cause()))
	}
}

func (b *Base) record(outcome string) {
	if b.metrics != nil {
		b.metrics.RecordOutcome(b.cfg.Name, outcome)
	}
}

func (b *Base) enter(p Phase) {
	b.logger.Debug("Board load phase", zap.Stringer("phase", p))
	if b.observer != nil {
		b.observer(b.cfg.Name, p)
	}
}

package boards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
)

type Option func(*Manager)

func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager is the in-memory Store. Every batch is applied under one write
// lock, so readers see either none or all of a merge.
type Manager struct {
	registry  *descriptor.Registry
	persister Persister
	logger    *zap.Logger

	ready    chan struct{}
	initOnce sync.Once
	initErr  error

	mu     sync.RWMutex
	boards map[*descriptor.BoardDescriptor]*model.ChanBoard
}

var _ Store = (*Manager)(nil)

func NewManager(reg *descriptor.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		logger:   zap.NewNop(),
		ready:    make(chan struct{}),
		boards:   make(map[*descriptor.BoardDescriptor]*model.ChanBoard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads persisted boards from loader, which may be nil, and then
// releases everyone waiting in AwaitUntilInitialized. A failed load still
// releases the waiters; they receive ErrNotInitialized.
func (m *Manager) Initialize(ctx context.Context, loader Loader) error {
	err := ErrAlreadyInitialized
	m.initOnce.Do(func() {
		err = m.load(ctx, loader)
		m.initErr = err
		close(m.ready)
	})
	return err
}

func (m *Manager) load(ctx context.Context, loader Loader) error {
	if loader == nil {
		return nil
	}

	loaded, err := loader.LoadBoards(ctx, m.registry)
	if err != nil {
		return fmt.Errorf("loading boards: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range loaded {
		b.Descriptor = m.canonical(b.Descriptor)
		m.boards[b.Descriptor] = &b
	}
	m.logger.Info("Board store initialized", zap.Int("boards", len(loaded)))
	return nil
}

func (m *Manager) AwaitUntilInitialized(ctx context.Context) error {
	select {
	case <-m.ready:
		if m.initErr != nil {
			return fmt.Errorf("%w: %v", ErrNotInitialized, m.initErr)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) isReady() bool {
	select {
	case <-m.ready:
		return m.initErr == nil
	default:
		return false
	}
}

// CreateOrUpdateBoards upserts boards keyed by descriptor. Fetched fields
// replace stored ones; the Active flag is the user's and is kept. Changed
// boards are handed to the persister before anything becomes visible, and a
// persister failure leaves the store untouched.
func (m *Manager) CreateOrUpdateBoards(ctx context.Context, boards []model.ChanBoard) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(boards) == 0 {
		return false, nil
	}
	if !m.isReady() {
		return false, m.mergeError(boards, ErrNotInitialized)
	}

	incoming := make([]model.ChanBoard, 0, len(boards))
	for _, b := range boards {
		if b.Descriptor == nil {
			return false, m.mergeError(boards, errors.New("board without descriptor"))
		}
		b.Descriptor = m.canonical(b.Descriptor)
		incoming = append(incoming, b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var changed []model.ChanBoard
	index := make(map[*descriptor.BoardDescriptor]int, len(incoming))
	for _, b := range incoming {
		if i, ok := index[b.Descriptor]; ok {
			b.Active = changed[i].Active
			changed[i] = b
			continue
		}
		if existing, ok := m.boards[b.Descriptor]; ok {
			b.Active = existing.Active
			if *existing == b {
				continue
			}
		}
		index[b.Descriptor] = len(changed)
		changed = append(changed, b)
	}
	if len(changed) == 0 {
		return false, nil
	}

	if m.persister != nil {
		if err := m.persister.SaveBoards(ctx, changed); err != nil {
			return false, m.mergeError(boards, err)
		}
	}

	for i := range changed {
		b := changed[i]
		m.boards[b.Descriptor] = &b
	}
	return true, nil
}

func (m *Manager) CreateBoardIfAbsent(ctx context.Context, board model.ChanBoard) (model.ChanBoard, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.ChanBoard{}, false, err
	}
	if board.Descriptor == nil {
		return model.ChanBoard{}, false, m.mergeError(nil, errors.New("board without descriptor"))
	}
	if !m.isReady() {
		return model.ChanBoard{}, false, m.mergeError([]model.ChanBoard{board}, ErrNotInitialized)
	}
	board.Descriptor = m.canonical(board.Descriptor)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.boards[board.Descriptor]; ok {
		return *existing, false, nil
	}
	if m.persister != nil {
		if err := m.persister.SaveBoards(ctx, []model.ChanBoard{board}); err != nil {
			return model.ChanBoard{}, false, m.mergeError([]model.ChanBoard{board}, err)
		}
	}
	m.boards[board.Descriptor] = &board
	return board, true, nil
}

func (m *Manager) ByBoardDescriptor(bd *descriptor.BoardDescriptor) (model.ChanBoard, bool) {
	if bd == nil {
		return model.ChanBoard{}, false
	}
	bd = m.canonical(bd)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if b, ok := m.boards[bd]; ok {
		return *b, true
	}
	return model.ChanBoard{}, false
}

// Boards returns the boards of site ordered by Order then code. A nil site
// returns every board.
func (m *Manager) Boards(site *descriptor.SiteDescriptor) []model.ChanBoard {
	m.mu.RLock()
	res := make([]model.ChanBoard, 0, len(m.boards))
	for bd, b := range m.boards {
		if site == nil || bd.SiteName() == site.SiteName() {
			res = append(res, *b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].SiteName() != res[j].SiteName() {
			return res[i].SiteName() < res[j].SiteName()
		}
		if res[i].Order != res[j].Order {
			return res[i].Order < res[j].Order
		}
		return res[i].BoardCode() < res[j].BoardCode()
	})
	return res
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boards)
}

func (m *Manager) canonical(bd *descriptor.BoardDescriptor) *descriptor.BoardDescriptor {
	return m.registry.MustBoardDescriptor(bd.SiteName(), bd.BoardCode())
}

func (m *Manager) mergeError(boards []model.ChanBoard, err error) error {
	site := ""
	if len(boards) > 0 && boards[0].Descriptor != nil {
		site = boards[0].SiteName()
	}
	return &MergeError{Site: site, Boards: len(boards), Err: err}
}

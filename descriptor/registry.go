package descriptor

import (
	"fmt"
	"strings"
	"sync"
)

type boardKey struct {
	siteName  string
	boardCode string
}

type threadKey struct {
	board    *BoardDescriptor
	threadNo int64
}

// Registry creates and owns canonical descriptors. Each descriptor kind is
// guarded by its own lock, and no lock is held while another is acquired.
//
// Entries are never evicted. The number of distinct boards and threads a
// client touches in one process is small and bounded by user activity.
type Registry struct {
	pool *StringPool

	siteMu sync.Mutex
	sites  map[string]*SiteDescriptor

	boardMu sync.Mutex
	boards  map[boardKey]*BoardDescriptor

	catalogMu sync.Mutex
	catalogs  map[*BoardDescriptor]*CatalogDescriptor

	threadMu sync.Mutex
	threads  map[threadKey]*ThreadDescriptor
}

func NewRegistry() *Registry {
	return NewRegistryWithPool(NewStringPool())
}

// NewRegistryWithPool creates a registry that interns names through pool,
// letting several registries or other components share one pool.
func NewRegistryWithPool(pool *StringPool) *Registry {
	return &Registry{
		pool:     pool,
		sites:    make(map[string]*SiteDescriptor),
		boards:   make(map[boardKey]*BoardDescriptor),
		catalogs: make(map[*BoardDescriptor]*CatalogDescriptor),
		threads:  make(map[threadKey]*ThreadDescriptor),
	}
}

func (r *Registry) Pool() *StringPool { return r.pool }

func (r *Registry) SiteDescriptor(siteName string) *SiteDescriptor {
	siteName = r.pool.Intern(siteName)

	r.siteMu.Lock()
	defer r.siteMu.Unlock()

	if sd, ok := r.sites[siteName]; ok {
		return sd
	}
	sd := &SiteDescriptor{siteName: siteName}
	r.sites[siteName] = sd
	return sd
}

// BoardDescriptor returns the canonical descriptor of a board. The site name
// must be non-empty and the board code non-empty without '_' or '/', so the
// serialized forms parse back to the same descriptor.
func (r *Registry) BoardDescriptor(siteName, boardCode string) (*BoardDescriptor, error) {
	if err := ValidBoard(siteName, boardCode); err != nil {
		return nil, err
	}
	return r.boardDescriptor(siteName, boardCode), nil
}

// MustBoardDescriptor is like BoardDescriptor but panics on invalid
// arguments.
func (r *Registry) MustBoardDescriptor(siteName, boardCode string) *BoardDescriptor {
	bd, err := r.BoardDescriptor(siteName, boardCode)
	if err != nil {
		panic(err)
	}
	return bd
}

// ValidBoard returns ErrInvalidArgument unless siteName and boardCode can form
// a board descriptor.
func ValidBoard(siteName, boardCode string) error {
	switch {
	case siteName == "":
		return fmt.Errorf("%w: empty site name", ErrInvalidArgument)
	case boardCode == "":
		return fmt.Errorf("%w: empty board code", ErrInvalidArgument)
	case strings.ContainsAny(boardCode, "_/"):
		return fmt.Errorf("%w: bad board code %q", ErrInvalidArgument, boardCode)
	}
	return nil
}

func (r *Registry) boardDescriptor(siteName, boardCode string) *BoardDescriptor {
	site := r.SiteDescriptor(siteName)
	boardCode = r.pool.Intern(boardCode)

	r.boardMu.Lock()
	defer r.boardMu.Unlock()

	key := boardKey{siteName: site.siteName, boardCode: boardCode}
	if bd, ok := r.boards[key]; ok {
		return bd
	}
	bd := &BoardDescriptor{site: site, boardCode: boardCode}
	r.boards[key] = bd
	return bd
}

// CatalogDescriptor returns the canonical catalog for bd. A board descriptor
// from another registry is first mapped to this registry's instance.
func (r *Registry) CatalogDescriptor(bd *BoardDescriptor) *CatalogDescriptor {
	if bd == nil {
		panic("descriptor: nil board descriptor")
	}
	bd = r.canonicalBoard(bd)

	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	if cd, ok := r.catalogs[bd]; ok {
		return cd
	}
	cd := &CatalogDescriptor{board: bd}
	r.catalogs[bd] = cd
	return cd
}

func (r *Registry) ThreadDescriptor(bd *BoardDescriptor, threadNo int64) (*ThreadDescriptor, error) {
	if threadNo <= 0 {
		return nil, fmt.Errorf("%w: bad thread number %d", ErrInvalidArgument, threadNo)
	}
	if bd == nil {
		return nil, fmt.Errorf("%w: nil board descriptor", ErrInvalidArgument)
	}
	catalog := r.CatalogDescriptor(bd)

	r.threadMu.Lock()
	defer r.threadMu.Unlock()

	key := threadKey{board: catalog.board, threadNo: threadNo}
	if td, ok := r.threads[key]; ok {
		return td, nil
	}
	td := &ThreadDescriptor{catalog: catalog, threadNo: threadNo}
	r.threads[key] = td
	return td, nil
}

// MustThreadDescriptor is like ThreadDescriptor but panics on invalid
// arguments.
func (r *Registry) MustThreadDescriptor(bd *BoardDescriptor, threadNo int64) *ThreadDescriptor {
	td, err := r.ThreadDescriptor(bd, threadNo)
	if err != nil {
		panic(err)
	}
	return td
}

// ToThreadDescriptor converts d into the descriptor of thread threadNo. A
// catalog yields the thread on its board, a thread yields itself only when the
// numbers agree.
func (r *Registry) ToThreadDescriptor(d ChanDescriptor, threadNo int64) (*ThreadDescriptor, error) {
	switch v := d.(type) {
	case *ThreadDescriptor:
		if v.threadNo != threadNo {
			return nil, fmt.Errorf("%w: cannot convert %v into thread %d", ErrDescriptorMismatch, v, threadNo)
		}
		return v, nil
	case *CatalogDescriptor:
		return r.ThreadDescriptor(v.board, threadNo)
	default:
		panic(fmt.Sprintf("unexpected descriptor type %T", d))
	}
}

func (r *Registry) canonicalBoard(bd *BoardDescriptor) *BoardDescriptor {
	r.boardMu.Lock()
	existing, ok := r.boards[boardKey{siteName: bd.site.siteName, boardCode: bd.boardCode}]
	r.boardMu.Unlock()

	if ok && existing == bd {
		return bd
	}
	return r.boardDescriptor(bd.SiteName(), bd.BoardCode())
}

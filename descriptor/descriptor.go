// Package descriptor provides canonical identities for sites, boards,
// catalogs and threads.
//
// Every descriptor is created by a Registry, which guarantees that for a given
// logical identity exactly one instance exists. Descriptors can therefore be
// compared with == and used directly as map keys.
package descriptor

import "fmt"

type SiteDescriptor struct {
	siteName string
}

func (sd *SiteDescriptor) SiteName() string { return sd.siteName }

func (sd *SiteDescriptor) String() string {
	return fmt.Sprintf("SD{%s}", sd.siteName)
}

type BoardDescriptor struct {
	site      *SiteDescriptor
	boardCode string
}

func (bd *BoardDescriptor) SiteDescriptor() *SiteDescriptor { return bd.site }
func (bd *BoardDescriptor) SiteName() string                { return bd.site.siteName }
func (bd *BoardDescriptor) BoardCode() string               { return bd.boardCode }

func (bd *BoardDescriptor) String() string {
	return fmt.Sprintf("BD{%s/%s}", bd.site.siteName, bd.boardCode)
}

// ChanDescriptor is either a *CatalogDescriptor or a *ThreadDescriptor. The
// set is closed; no other package can add a case.
type ChanDescriptor interface {
	SiteDescriptor() *SiteDescriptor
	BoardDescriptor() *BoardDescriptor
	SiteName() string
	BoardCode() string
	CatalogDescriptor() *CatalogDescriptor
	Serialize() string
	String() string

	chanDescriptor()
}

// CatalogDescriptor identifies the catalog view of a board.
type CatalogDescriptor struct {
	board *BoardDescriptor
}

func (cd *CatalogDescriptor) SiteDescriptor() *SiteDescriptor       { return cd.board.site }
func (cd *CatalogDescriptor) BoardDescriptor() *BoardDescriptor     { return cd.board }
func (cd *CatalogDescriptor) SiteName() string                      { return cd.board.SiteName() }
func (cd *CatalogDescriptor) BoardCode() string                     { return cd.board.boardCode }
func (cd *CatalogDescriptor) CatalogDescriptor() *CatalogDescriptor { return cd }
func (*CatalogDescriptor) chanDescriptor()                          {}

func (cd *CatalogDescriptor) String() string {
	return fmt.Sprintf("CD{%s/%s}", cd.SiteName(), cd.BoardCode())
}

// ThreadDescriptor identifies a single thread on a board. ThreadNo is always
// positive.
type ThreadDescriptor struct {
	catalog  *CatalogDescriptor
	threadNo int64
}

func (td *ThreadDescriptor) SiteDescriptor() *SiteDescriptor       { return td.catalog.board.site }
func (td *ThreadDescriptor) BoardDescriptor() *BoardDescriptor     { return td.catalog.board }
func (td *ThreadDescriptor) SiteName() string                      { return td.catalog.SiteName() }
func (td *ThreadDescriptor) BoardCode() string                     { return td.catalog.BoardCode() }
func (td *ThreadDescriptor) CatalogDescriptor() *CatalogDescriptor { return td.catalog }
func (td *ThreadDescriptor) ThreadNo() int64                       { return td.threadNo }
func (*ThreadDescriptor) chanDescriptor()                          {}

func (td *ThreadDescriptor) String() string {
	return fmt.Sprintf("TD{%s/%s/%d}", td.SiteName(), td.BoardCode(), td.threadNo)
}

// ThreadNo returns the thread number of d, or false for catalogs.
func ThreadNo(d ChanDescriptor) (int64, bool) {
	switch v := d.(type) {
	case *ThreadDescriptor:
		return v.threadNo, true
	case *CatalogDescriptor:
		return 0, false
	default:
		panic(fmt.Sprintf("unexpected descriptor type %T", d))
	}
}

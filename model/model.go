package model

import (
	"github.com/zvonler/chanspy/descriptor"
)

const (
	DefaultPerPage = 15
	DefaultPages   = 10

	// Unknown marks a numeric board limit the site did not report.
	Unknown = -1
)

type Cooldowns struct {
	Threads int
	Replies int
	Images  int
}

// ChanBoard is the locally known state of one board. It is keyed by its
// canonical BoardDescriptor.
type ChanBoard struct {
	Descriptor *descriptor.BoardDescriptor

	Active bool
	Order  int
	Name   string

	PerPage int
	Pages   int

	MaxFileSize     int
	MaxWebmSize     int
	MaxCommentChars int
	BumpLimit       int
	ImageLimit      int
	Cooldowns       Cooldowns
	CustomSpoilers  int

	Description      string
	WorkSafe         bool
	Spoilers         bool
	UserIDs          bool
	CodeTags         bool
	PreuploadCaptcha bool
	CountryFlags     bool
	MathTags         bool
}

// NewChanBoard returns a board with only a descriptor and name, every limit
// left at its default.
func NewChanBoard(bd *descriptor.BoardDescriptor, name string) ChanBoard {
	return ChanBoard{
		Descriptor:      bd,
		Name:            name,
		PerPage:         DefaultPerPage,
		Pages:           DefaultPages,
		MaxFileSize:     Unknown,
		MaxWebmSize:     Unknown,
		MaxCommentChars: Unknown,
		BumpLimit:       Unknown,
		ImageLimit:      Unknown,
		CustomSpoilers:  Unknown,
	}
}

func (b ChanBoard) BoardName() string {
	if b.Name == "" {
		return "No board name"
	}
	return b.Name
}

func (b ChanBoard) SiteName() string  { return b.Descriptor.SiteName() }
func (b ChanBoard) BoardCode() string { return b.Descriptor.BoardCode() }

// SiteBoards is the board list a site reported in one fetch.
type SiteBoards struct {
	Site   *descriptor.SiteDescriptor
	Boards []ChanBoard
}

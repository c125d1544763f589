package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zvonler/chanspy/descriptor"
)

func TestNewChanBoard(t *testing.T) {
	reg := descriptor.NewRegistry()
	b := NewChanBoard(reg.MustBoardDescriptor("4chan", "g"), "")

	require.Equal(t, "4chan", b.SiteName())
	require.Equal(t, "g", b.BoardCode())
	require.Equal(t, "No board name", b.BoardName())
	require.Equal(t, DefaultPerPage, b.PerPage)
	require.Equal(t, DefaultPages, b.Pages)
	require.Equal(t, Unknown, b.BumpLimit)
	require.False(t, b.Active)

	b.Name = "Technology"
	require.Equal(t, "Technology", b.BoardName())
}

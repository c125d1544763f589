package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	threadPrefix  = "TD_"
	catalogPrefix = "CD_"
)

// Serialize renders the descriptor as TD_<site>_<board>_<no>.
func (td *ThreadDescriptor) Serialize() string {
	return fmt.Sprintf("%s%s_%s_%d", threadPrefix, td.SiteName(), td.BoardCode(), td.threadNo)
}

// Serialize renders the descriptor as CD_<site>_<board>.
func (cd *CatalogDescriptor) Serialize() string {
	return fmt.Sprintf("%s%s_%s", catalogPrefix, cd.SiteName(), cd.BoardCode())
}

// ParseDescriptor returns the canonical descriptor for a string produced by
// Serialize. Site names may contain underscores, board codes may not.
func (r *Registry) ParseDescriptor(s string) (ChanDescriptor, error) {
	switch {
	case strings.HasPrefix(s, threadPrefix):
		rest, noStr, ok := cutLast(strings.TrimPrefix(s, threadPrefix))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedDescriptor, s)
		}
		threadNo, err := strconv.ParseInt(noStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedDescriptor, s, err)
		}
		siteName, boardCode, ok := cutLast(rest)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedDescriptor, s)
		}
		bd, err := r.BoardDescriptor(siteName, boardCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedDescriptor, s, err)
		}
		return r.ThreadDescriptor(bd, threadNo)

	case strings.HasPrefix(s, catalogPrefix):
		siteName, boardCode, ok := cutLast(strings.TrimPrefix(s, catalogPrefix))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedDescriptor, s)
		}
		bd, err := r.BoardDescriptor(siteName, boardCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedDescriptor, s, err)
		}
		return r.CatalogDescriptor(bd), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrMalformedDescriptor, s)
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

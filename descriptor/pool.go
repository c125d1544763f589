package descriptor

import (
	"strings"
	"sync"
)

// StringPool hands out a single canonical copy of each distinct string. Two
// Intern calls with equal content return strings sharing one backing array, so
// pooled values can be compared by identity as well as by content.
//
// The pool only grows; entries live as long as the pool does.
type StringPool struct {
	mu      sync.Mutex
	strings map[string]string
}

func NewStringPool() *StringPool {
	return &StringPool{strings: make(map[string]string)}
}

func (p *StringPool) Intern(s string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if canonical, ok := p.strings[s]; ok {
		return canonical
	}

	// Cloned so the pool never pins a larger buffer that s was sliced from
	canonical := strings.Clone(s)
	p.strings[canonical] = canonical
	return canonical
}

// Len reports the number of distinct strings held by the pool.
func (p *StringPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strings)
}

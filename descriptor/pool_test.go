package descriptor

import (
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func sameBacking(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestInternReturnsCanonicalInstance(t *testing.T) {
	pool := NewStringPool()

	first := pool.Intern(strings.Repeat("g", 1))
	second := pool.Intern(string([]byte{'g'}))

	require.Equal(t, "g", first)
	require.True(t, sameBacking(first, second))
	require.Equal(t, 1, pool.Len())

	other := pool.Intern("a")
	require.False(t, sameBacking(first, other))
	require.Equal(t, 2, pool.Len())
}

func TestInternConcurrent(t *testing.T) {
	pool := NewStringPool()

	const callers = 64
	results := make([]string, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = pool.Intern(string([]byte("technology")))
		}()
	}
	wg.Wait()

	for _, s := range results {
		require.True(t, sameBacking(results[0], s))
	}
	require.Equal(t, 1, pool.Len())
}

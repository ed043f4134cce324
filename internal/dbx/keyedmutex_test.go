package dbx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SameKeySameMutex(t *testing.T) {
	t.Parallel()
	var km KeyedMutex

	require.Same(t, km.Get("alice"), km.Get("alice"))
	require.NotSame(t, km.Get("alice"), km.Get("bob"))
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	t.Parallel()
	var km KeyedMutex

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := km.Get("alice")
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

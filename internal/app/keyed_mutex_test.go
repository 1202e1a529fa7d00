package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := newKeyedMutex()

	const workers = 16
	counters := [2]int{}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		for key := int64(1); key <= 2; key++ {
			wg.Add(1)
			go func(key int64) {
				defer wg.Done()
				unlock := km.lock(key)
				defer unlock()
				counters[key-1]++
			}(key)
		}
	}
	wg.Wait()

	require.Equal(t, workers, counters[0])
	require.Equal(t, workers, counters[1])
}

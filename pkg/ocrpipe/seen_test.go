package ocrpipe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenSetFirstCallWins(t *testing.T) {
	s := NewSeenSet()

	assert.True(t, s.MarkSeen("doc-1"))
	assert.False(t, s.MarkSeen("doc-1"))
	assert.True(t, s.MarkSeen("doc-2"), "identifiers are independent")
	assert.False(t, s.MarkSeen("doc-2"))
}

func TestSeenSetConcurrent(t *testing.T) {
	s := NewSeenSet()
	const workers = 32

	var firsts int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkSeen("shared-doc") {
				atomic.AddInt64(&firsts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), firsts, "exactly one caller observes the first sighting")
}

func TestSeenSetManyIDs(t *testing.T) {
	s := NewSeenSet()
	for i := 0; i < 100; i++ {
		assert.True(t, s.MarkSeen(fmt.Sprintf("doc-%d", i)))
	}
	for i := 0; i < 100; i++ {
		assert.False(t, s.MarkSeen(fmt.Sprintf("doc-%d", i)))
	}
}

package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingSendsOnce(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	p := NewPending(func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, p.Send(context.Background()), boom)
	assert.ErrorIs(t, p.Send(context.Background()), boom)
	assert.Equal(t, 1, calls)
}

func TestPendingConcurrentSend(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	p := NewPending(func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Send(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

package msgworker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Start(context.Background())
	defer pool.Stop()

	start := time.Now()
	ok := pool.TryDispatch(Job{
		TenantKey: "PNID",
		EndUser:   "573001",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})
	assert.True(t, ok)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

// Turnos del mismo usuario se procesan en orden
func TestPool_SameUserSequential(t *testing.T) {
	pool := NewPool(4, 100)
	pool.Start(context.Background())

	var (
		mu      sync.Mutex
		results []int
	)
	for i := 1; i <= 5; i++ {
		val := i
		require.True(t, pool.TryDispatch(Job{
			TenantKey: "PNID",
			EndUser:   "573001",
			Handler: func(ctx context.Context) error {
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		}))
	}

	// Stop espera a que se vacíen las colas
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, results)
}

func TestPool_QueueFullDrops(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start(context.Background())

	release := make(chan struct{})
	block := Job{TenantKey: "a", EndUser: "b", Handler: func(ctx context.Context) error {
		<-release
		return nil
	}}

	require.True(t, pool.TryDispatch(block))
	// el worker puede o no haber tomado el primero; llenamos hasta que falle
	dropped := false
	for i := 0; i < 3; i++ {
		if !pool.TryDispatch(block) {
			dropped = true
			break
		}
	}
	close(release)
	pool.Stop()

	assert.True(t, dropped)
	assert.GreaterOrEqual(t, pool.GetStats().TotalDropped, int64(1))
}

func TestPool_PanicAndErrorAreCounted(t *testing.T) {
	pool := NewPool(1, 10)
	pool.Start(context.Background())

	var ran int32
	pool.TryDispatch(Job{Handler: func(ctx context.Context) error { panic("boom") }})
	pool.TryDispatch(Job{Handler: func(ctx context.Context) error { return errors.New("fail") }})
	pool.TryDispatch(Job{Handler: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})
	pool.Stop()

	stats := pool.GetStats()
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
	assert.EqualValues(t, 3, stats.TotalProcessed)
	assert.EqualValues(t, 2, stats.TotalErrors)
}

func TestPool_DispatchAfterStop(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()

	assert.False(t, pool.TryDispatch(Job{Handler: func(ctx context.Context) error { return nil }}))
}

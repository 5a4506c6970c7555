package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, items := range []int{1, 7, 1000, 4097} {
		hits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("items=%d: index %d visited %d times", items, i, h)
			}
		}
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, DefaultThreshold, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("got range [%d, %d), want [0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("sequential path called fn %d times, want 1", calls)
	}

	var total int64
	ParallelizeWithThreshold(5000, DefaultThreshold, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 5000 {
		t.Errorf("parallel path covered %d items, want 5000", total)
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	ParallelizeWithThreshold(0, DefaultThreshold, func(int, int) { called = true })
	Parallelize(0, func(int, int) { called = true })
	if called {
		t.Error("fn should not be called for zero items")
	}
}

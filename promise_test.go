package rubix

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoResolves(t *testing.T) {
	p := Go(func() (int, error) {
		return 42, nil
	})

	v, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}
	if v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
}

func TestGoRejects(t *testing.T) {
	boom := errors.New("boom")
	p := Go(func() (string, error) {
		return "", boom
	})

	if _, err := p.Wait(); !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	p := Go(func() (int, error) {
		panic("unexpected")
	})

	_, err := p.Wait()
	if err == nil || !strings.Contains(err.Error(), "unexpected") {
		t.Errorf("Expected panic to reject the promise, got %v", err)
	}
}

func TestPromiseSettlesOnce(t *testing.T) {
	p := newPromise[int]()

	if !p.settle(1, nil) {
		t.Fatal("First settle should succeed")
	}
	if p.settle(2, errors.New("late")) {
		t.Error("Second settle should be ignored")
	}

	v, err := p.Wait()
	if v != 1 || err != nil {
		t.Errorf("Wait() = (%d, %v), want (1, nil)", v, err)
	}
}

func TestPromiseConcurrentSettle(t *testing.T) {
	p := newPromise[int]()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if p.settle(i, nil) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Expected exactly one winner, got %d", wins.Load())
	}
}

func TestPromiseWaitContext(t *testing.T) {
	release := make(chan struct{})
	p := Go(func() (int, error) {
		<-release
		return 7, nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	select {
	case <-p.Done():
		t.Error("Promise should still be pending")
	default:
	}
}

func TestResolvedAndRejected(t *testing.T) {
	if v, err := Resolved("ok").Wait(); v != "ok" || err != nil {
		t.Errorf("Resolved().Wait() = (%q, %v)", v, err)
	}

	boom := errors.New("boom")
	if _, err := Rejected[[]float64](boom).Wait(); !errors.Is(err, boom) {
		t.Errorf("Rejected().Wait() error = %v", err)
	}

	select {
	case <-Resolved(1).Done():
	default:
		t.Error("Resolved promise should be done")
	}
}

// Package singleflight coalesces concurrent calls that would fetch the same
// value so that only one of them does the work.
package singleflight

import "sync"

// Group runs at most one call per key at a time. Callers arriving while a
// call is in flight wait for it and share its result. The zero value is
// ready to use.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

type call[T any] struct {
	wg  sync.WaitGroup
	val T
	err error
	dup int
}

// Do executes fn for key unless a call for key is already running, in which
// case it waits for that call instead. shared reports whether the result was
// handed to more than one caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (v T, err error, shared bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[string]*call[T])
	}
	if c, ok := g.m[key]; ok {
		c.dup++
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, true
	}

	c := &call[T]{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	return c.val, c.err, c.dup > 0
}

func (g *Group[T]) run(key string, c *call[T], fn func() (T, error)) {
	defer func() {
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		c.wg.Done()
	}()
	c.val, c.err = fn()
}

// Forget drops key so the next Do starts a fresh call even if one is still
// running.
func (g *Group[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}

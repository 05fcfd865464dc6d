// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package target

import "github.com/aclements/corefile"

// MemRegisterCache is a minimal corefile.RegisterCache backed by a
// map from discriminator to raw bytes, sufficient for tests and for
// an embedder that hasn't wired in a real register cache yet.
type MemRegisterCache struct {
	supplied    map[int][]byte
	unavailable bool
}

func NewMemRegisterCache() *MemRegisterCache {
	return &MemRegisterCache{supplied: make(map[int][]byte)}
}

func (c *MemRegisterCache) Supply(discriminator int, raw []byte) error {
	c.supplied[discriminator] = append([]byte(nil), raw...)
	return nil
}

func (c *MemRegisterCache) MarkUnavailable() { c.unavailable = true }

// Raw returns the bytes supplied for discriminator, if any.
func (c *MemRegisterCache) Raw(discriminator int) ([]byte, bool) {
	b, ok := c.supplied[discriminator]
	return b, ok
}

// Unavailable reports whether MarkUnavailable was ever called.
func (c *MemRegisterCache) Unavailable() bool { return c.unavailable }

type memThread struct {
	id   corefile.ThreadID
	regs *MemRegisterCache
}

func (t *memThread) ID() corefile.ThreadID          { return t.id }
func (t *memThread) Registers() corefile.RegisterCache { return t.regs }

// MemRegistry is a combined InferiorRegistry/ThreadRegistry/FrameCache
// backed by plain slices and maps, used by this module's tests and
// available to an embedder with no richer bookkeeping of its own.
type MemRegistry struct {
	inferiors []*corefile.Inferior
	threads   map[*corefile.Inferior][]*memThread

	frameResets int
}

func NewMemRegistry() *MemRegistry {
	return &MemRegistry{threads: make(map[*corefile.Inferior][]*memThread)}
}

func (r *MemRegistry) CreateInferior(pid int, fakePID bool) *corefile.Inferior {
	inf := &corefile.Inferior{PID: pid, FakePID: fakePID}
	r.inferiors = append(r.inferiors, inf)
	return inf
}

func (r *MemRegistry) RemoveInferior(inf *corefile.Inferior) {
	for i, x := range r.inferiors {
		if x == inf {
			r.inferiors = append(r.inferiors[:i], r.inferiors[i+1:]...)
			break
		}
	}
	delete(r.threads, inf)
}

func (r *MemRegistry) CreateThread(id corefile.ThreadID) Thread {
	// Find the inferior these threads belong to by PID; in this
	// lightweight registry threads are grouped per-inferior lazily.
	var inf *corefile.Inferior
	for _, x := range r.inferiors {
		if x.PID == id.PID {
			inf = x
			break
		}
	}
	t := &memThread{id: id, regs: NewMemRegisterCache()}
	r.threads[inf] = append(r.threads[inf], t)
	return t
}

func (r *MemRegistry) Threads(inf *corefile.Inferior) []Thread {
	ts := r.threads[inf]
	out := make([]Thread, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func (r *MemRegistry) RemoveThreads(inf *corefile.Inferior) {
	delete(r.threads, inf)
}

func (r *MemRegistry) Reset() { r.frameResets++ }

// FrameResets reports how many times Reset was called, for tests that
// assert the frame cache was invalidated at the right points.
func (r *MemRegistry) FrameResets() int { return r.frameResets }

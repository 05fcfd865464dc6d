// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package target defines the narrow collaborator interfaces spec.md
// §1 names as external to the core-file backend: the target stack,
// the thread registry, the inferior registry, and the frame cache.
// These are deliberately thin — just enough surface for
// corefile/session to drive and for this module's own tests to
// exercise the Session Manager end to end — not a full debugger
// target-stack implementation.
package target

import "github.com/aclements/corefile"

// A Backend is anything that can be pushed onto the target Stack. The
// core-file backend (corefile/session.Session) is one implementation;
// others (process, remote, file) are out of scope here.
type Backend interface {
	// ThreadAlive, HasMemory, HasStack, HasRegisters, and the rest of
	// spec.md §4.7's trivial services are implemented directly on
	// *session.Session; Backend only needs enough identity for the
	// Stack to manage push/pop/top.
	Name() string
}

// A Stack is the debugger's layered stack of backends (spec.md's
// "target stack"). At most one corefile backend instance may be
// pushed at a time (spec.md's CoreSession invariant); Push does not
// remove anything, so the caller pops any previous instance first
// (session.Session.Open does, at spec.md §4.5 step 3).
type Stack interface {
	// Push installs b on top of the stack.
	Push(b Backend)

	// Pop removes b from the stack if it is present. Popping a
	// backend that isn't on the stack is a silent no-op (detach is
	// idempotent, per spec.md §4.5's close/detach semantics).
	Pop(b Backend)

	// Top returns the topmost backend, or nil if the stack is empty.
	Top() Backend
}

// A FrameCache is the debugger's cache of unwound stack frames for the
// current thread. Reset is called whenever the register state
// underneath it changes (spec.md §4.5 steps 12 and 18, and §4.5
// detach).
type FrameCache interface {
	Reset()
}

// An InferiorRegistry creates and tracks Inferior records. The core
// backend creates exactly one per successful open (spec.md §8
// invariant 1).
type InferiorRegistry interface {
	CreateInferior(pid int, fakePID bool) *corefile.Inferior
	RemoveInferior(inf *corefile.Inferior)
}

// A ThreadRegistry creates and tracks per-thread records on behalf of
// an Inferior. Each Thread owns a corefile.RegisterCache the Register
// Reader supplies into.
type ThreadRegistry interface {
	CreateThread(id corefile.ThreadID) Thread
	Threads(inf *corefile.Inferior) []Thread
	RemoveThreads(inf *corefile.Inferior)
}

// A Thread is one thread record created by a ThreadRegistry.
type Thread interface {
	ID() corefile.ThreadID
	Registers() corefile.RegisterCache
}

// MemStack is a minimal in-memory Stack sufficient to host exactly one
// CoreSession, used by this module's own tests and usable as a
// starting point by an embedder that has no richer target stack of its
// own.
type MemStack struct {
	stack []Backend
}

func NewMemStack() *MemStack { return &MemStack{} }

func (s *MemStack) Push(b Backend) {
	s.stack = append(s.stack, b)
}

func (s *MemStack) Pop(b Backend) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == b {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			return
		}
	}
}

func (s *MemStack) Top() Backend {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session is the Session Manager (spec.md §4.5): it owns the
// open container, the resolved architecture, the chosen handler, the
// section table, and the lifetime of the inferior and its threads. It
// also hosts the Register Reader, Memory Service, and Partial-Transfer
// Router, which all operate on a live Session.
//
// Session never logs; like perfsession.Session it collects non-fatal
// diagnostics into Warnings() and lets the caller (cmd/coredump)
// decide how to present them.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/aclements/corefile"
	"github.com/aclements/corefile/arch"
	"github.com/aclements/corefile/elfcore"
	"github.com/aclements/corefile/target"
)

// Collaborators bundles the external target-stack contracts a Session
// needs to drive (spec.md §1's out-of-scope collaborators, stood up as
// the interfaces in corefile/target).
type Collaborators struct {
	Stack     target.Stack
	Frames    target.FrameCache
	Inferiors target.InferiorRegistry
	Threads   target.ThreadRegistry

	// PostCreate, if non-nil, runs at open step 15 (shared-library
	// loading, symbol resolution). Its error is reported via
	// Warnings(), never fatal to open.
	PostCreate func(*Session) error
}

// A Session is a CoreSession (spec.md §3): created on successful
// Open, torn down on Close or a failed Open. At most one is ever
// pushed onto a given Collaborators.Stack at a time.
type Session struct {
	collab Collaborators
	opener func(path string, writable bool) (corefile.Container, error)

	path      string
	container corefile.Container
	handler   *corefile.CoreHandler
	archDesc  corefile.ArchDescriptor
	table     *corefile.SectionTable

	inferior   *corefile.Inferior
	threadList []target.Thread
	current    target.Thread

	command    string
	exitSignal int
	hasSignal  bool

	warnings []string
}

// New creates an unopened Session bound to the given collaborators,
// using elfcore.Open as its container parser.
func New(collab Collaborators) *Session {
	return NewWithOpener(collab, openELFCore)
}

// NewWithOpener creates an unopened Session with an explicit container
// opener, letting tests substitute a fake corefile.Container without
// needing a real ELF core file on disk.
func NewWithOpener(collab Collaborators, opener func(path string, writable bool) (corefile.Container, error)) *Session {
	return &Session{collab: collab, opener: opener}
}

func openELFCore(path string, writable bool) (corefile.Container, error) {
	c, err := elfcore.Open(path, writable)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// closeContainer releases c if it implements io.Closer. The
// corefile.Container contract itself carries no Close method (a
// container that never needs releasing, e.g. an in-memory test
// double, shouldn't be forced to grow one).
func closeContainer(c corefile.Container) {
	if closer, ok := c.(io.Closer); ok {
		closer.Close()
	}
}

// Name implements target.Backend.
func (s *Session) Name() string { return "core" }

// IsOpen reports whether a container is currently attached.
func (s *Session) IsOpen() bool { return s.container != nil }

// Warnings returns every non-fatal diagnostic accumulated since the
// last Open, oldest first. Open clears this list before running.
func (s *Session) Warnings() []string { return s.warnings }

func (s *Session) warn(v interface{}) {
	switch e := v.(type) {
	case string:
		s.warnings = append(s.warnings, e)
	case error:
		s.warnings = append(s.warnings, e.Error())
	default:
		s.warnings = append(s.warnings, fmt.Sprint(v))
	}
}

// Inferior returns the session's inferior record, or nil if not open.
func (s *Session) Inferior() *corefile.Inferior { return s.inferior }

// Sections returns the section table built by the most recent Open, or
// nil if not open. Used by tools (cmd/coredump's -sizes and
// -memmap-png) that need to walk the raw section list rather than go
// through the Memory Service or Register Reader.
func (s *Session) Sections() *corefile.SectionTable { return s.table }

// Container returns the underlying corefile.Container, or nil if not
// open. Used by tools that need format-specific metadata the
// container interface doesn't expose directly, such as
// elfcore.BuildID.
func (s *Session) Container() corefile.Container { return s.container }

// Threads returns the thread ids created by the most recent Open, in
// creation order.
func (s *Session) Threads() []corefile.ThreadID {
	out := make([]corefile.ThreadID, len(s.threadList))
	for i, t := range s.threadList {
		out[i] = t.ID()
	}
	return out
}

// CurrentThread returns the thread designated current by Open, if
// any.
func (s *Session) CurrentThread() (corefile.ThreadID, bool) {
	if s.current == nil {
		return corefile.ThreadID{}, false
	}
	return s.current.ID(), true
}

// Command returns the container's recorded failing command, if any.
func (s *Session) Command() (string, bool) { return s.command, s.command != "" }

// ExitSignal returns the host signal number corresponding to the
// container's recorded failing signal, translated per step 17.
func (s *Session) ExitSignal() (int, bool) { return s.exitSignal, s.hasSignal }

// archAware is implemented by container parsers that can report a
// Go-style architecture name; elfcore.Container is the only one today.
type archAware interface {
	Arch() string
}

// OpenOrClose implements the supplemented `core-file` behaviour from
// original_source/gdb/corelow.c: an empty path detaches the current
// core instead of erroring, matching `core-file` with no argument.
func (s *Session) OpenOrClose(path string, writable bool) error {
	if path == "" {
		return s.Close()
	}
	return s.Open(path, writable)
}

// Open attaches path as a new core file, per spec.md §4.5. If the
// parser cannot open path, any previously attached core stays
// attached. Otherwise the previous core is popped first, and a fatal
// error after that point leaves the session closed: no container, no
// inferior, no stack entry.
func (s *Session) Open(path string, writable bool) error {
	s.warnings = nil

	// Step 1: open the container via the parser.
	c, err := s.opener(path, writable)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return &corefile.OpenFailedError{Path: path, Err: err}
		}
		// Step 2: the parser rejected path outright. spec.md §4.5 step
		// 2 also accepts a file the parser rejects if some registered
		// handler's CheckFormat claims it — but CheckFormat takes an
		// already-open Container, and this module's opener *is* the
		// parser, so a parser rejection here never produces one to
		// check against. The OR's second branch is unreachable in
		// this single-container-format module rather than skipped.
		return &corefile.NotACoreError{Path: path, Reason: err}
	}
	// Step 2 is otherwise satisfied: the parser already accepted c, so
	// no handler's CheckFormat gets a second veto over it.

	// Step 3: pop any previous instance of this backend; idempotent
	// whether or not one was pushed.
	s.collab.Stack.Pop(s)
	s.teardownState()

	// From here, any fatal failure must release c before returning.
	cleanup := true
	defer func() {
		if cleanup {
			closeContainer(c)
		}
	}()

	// Step 4: install the container.
	s.path = path
	s.container = c

	// Step 5: resolve the architecture.
	archName := ""
	if aw, ok := c.(archAware); ok {
		archName = aw.Arch()
	}
	s.archDesc = archDescriptorOrNil(arch.Lookup(archName))

	// Step 6: sniff a handler.
	handler, warning, err := corefile.Sniff(c, s.archDesc)
	if err != nil {
		s.container = nil
		return err
	}
	if warning != "" {
		s.warn(warning)
	}
	s.handler = handler

	// Step 7: exec/container consistency is delegated to the symbol
	// manager, out of scope here.

	// Step 8: build the section table.
	s.table = corefile.NewSectionTable(c.Sections())

	// Step 9: adopting the architecture from the container in
	// preference to an already-loaded executable's architecture is a
	// no-op here: this module tracks no separately loaded executable.

	// Step 10: push this backend. Nothing before this point is
	// observable by another caller; release state instead of pushing
	// if anything above failed, which the deferred cleanup +
	// `cleanup = true` default already guarantees.
	s.collab.Stack.Push(s)
	cleanup = false

	// Step 11: reset the thread list and current thread.
	s.threadList = nil
	s.current = nil

	// Step 12: invalidate caches.
	s.collab.Frames.Reset()

	// Step 13/14: populate the inferior and thread list.
	s.populateThreads(c)

	// Step 15: post-create hooks, non-fatal.
	if s.collab.PostCreate != nil {
		if err := s.collab.PostCreate(s); err != nil {
			s.warn(&corefile.PostCreateError{Step: "post-create", Err: err})
		}
	}

	// Step 16: re-enumerate threads, tolerating errors. Our
	// ThreadRegistry interface has no error return, so this is a
	// best-effort refresh of the cached list.
	if s.inferior != nil {
		s.threadList = s.collab.Threads.Threads(s.inferior)
	}

	// Step 17: command and signal handling.
	s.command, _ = c.Command()
	if raw := c.FailingSignal(); raw > 0 {
		host, ok := 0, false
		if st, isSt := s.archDesc.(corefile.SignalTranslator); isSt {
			host, ok = st.SignalFromTarget(raw)
		}
		if !ok {
			host, ok = raw, true // fall back to the host signal table (identity on Linux)
		}
		s.exitSignal, s.hasSignal = host, ok
	} else {
		s.exitSignal, s.hasSignal = 0, false
	}

	// Step 18: fetch registers for the current thread and reset the
	// frame cache again, now that registers are populated.
	if s.current != nil {
		s.FetchAll(s.current.Registers())
	}
	s.collab.Frames.Reset()

	return nil
}

// archDescriptorOrNil turns a nil *arch.Descriptor into a nil
// corefile.ArchDescriptor: a literal-nil *arch.Descriptor stored in an
// interface value is non-nil as an interface, which would defeat the
// "architecture has no native iterator" checks throughout this
// package.
func archDescriptorOrNil(d *arch.Descriptor) corefile.ArchDescriptor {
	if d == nil {
		return nil
	}
	return d
}

// populateThreads implements open steps 13-14: walk the section
// table for ".reg/<lwp>" sections, create one thread per lwp, and
// designate whichever shares its file offset with the bare ".reg"
// section as current.
func (s *Session) populateThreads(c corefile.Container) {
	pid := c.Pid()
	fakePID := pid == 0
	if fakePID {
		pid = corefile.SyntheticPID
	}
	s.inferior = s.collab.Inferiors.CreateInferior(pid, fakePID)

	baseReg, hasBaseReg := s.table.ByName(".reg")

	var threads []target.Thread
	var current target.Thread
	for _, sec := range s.table.All() {
		lwp, ok := corefile.RegLWP(sec.Name)
		if !ok {
			continue
		}
		th := s.collab.Threads.CreateThread(corefile.ThreadID{PID: pid, LWP: lwp})
		threads = append(threads, th)
		if hasBaseReg && sec.FileOffset == baseReg.FileOffset {
			current = th
		}
	}

	if len(threads) == 0 {
		// No per-thread register sections at all: synthesize a single
		// thread, current by construction.
		th := s.collab.Threads.CreateThread(corefile.ThreadID{PID: pid, LWP: 0})
		threads = append(threads, th)
		current = th
	} else if current == nil {
		current = threads[0]
	}

	s.threadList = threads
	s.current = current
}

// teardownState clears every piece of session state without touching
// the target stack (the caller is responsible for popping first).
// Idempotent.
func (s *Session) teardownState() {
	if s.container != nil {
		closeContainer(s.container)
	}
	s.container = nil
	s.handler = nil
	s.archDesc = nil
	s.table = nil
	if s.inferior != nil {
		s.collab.Threads.RemoveThreads(s.inferior)
		s.collab.Inferiors.RemoveInferior(s.inferior)
	}
	s.inferior = nil
	s.threadList = nil
	s.current = nil
	s.command = ""
	s.exitSignal = 0
	s.hasSignal = false
	s.path = ""
}

// Close implements spec.md §4.5's close: clears the current thread,
// silently exits the inferior, clears shared-object state (no-op
// here; this module tracks none), drops the container reference, and
// frees the section table. Idempotent.
func (s *Session) Close() error {
	if s.container == nil {
		return nil
	}
	s.collab.Stack.Pop(s)
	s.teardownState()
	return nil
}

// Detach implements spec.md §4.5's detach: no arguments are
// permitted. It pops this backend, reinitializes the frame cache, and
// reports whether an interactive "No core file now." notice should be
// shown.
func (s *Session) Detach(args []string, interactive bool) (notice string, err error) {
	if len(args) > 0 {
		return "", &corefile.UsageError{Msg: "detach: too many arguments"}
	}
	s.collab.Stack.Pop(s)
	s.teardownState()
	s.collab.Frames.Reset()
	if interactive {
		return "No core file now.", nil
	}
	return "", nil
}

// byteOrderAware is implemented by container parsers that know their
// own endianness; elfcore.Container does. Absent this, the
// Partial-Transfer Router defaults to little-endian, matching the
// overwhelmingly common case among the architectures corefile/arch
// knows about.
type byteOrderAware interface {
	ByteOrder() binary.ByteOrder
}

func (s *Session) byteOrder() binary.ByteOrder {
	if bo, ok := s.container.(byteOrderAware); ok {
		return bo.ByteOrder()
	}
	return binary.LittleEndian
}

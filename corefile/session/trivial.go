// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"fmt"

	"github.com/aclements/corefile"
)

// ThreadAlive always reports true (spec.md §4.7): a dead thread from
// a core file still appears in listings.
func (s *Session) ThreadAlive(corefile.ThreadID) bool { return true }

// InsertBreakpoint is a silent no-op: stepping and execution control
// are out of scope for a post-mortem target.
func (s *Session) InsertBreakpoint(corefile.Address) error { return nil }

// RemoveBreakpoint is a silent no-op, mirroring InsertBreakpoint.
func (s *Session) RemoveBreakpoint(corefile.Address) error { return nil }

// HasMemory reports whether a container is open.
func (s *Session) HasMemory() bool { return s.IsOpen() }

// HasStack reports whether a container is open; the core target
// never distinguishes "has memory" from "has a callable stack" since
// both come from the same section table.
func (s *Session) HasStack() bool { return s.IsOpen() }

// HasRegisters reports whether a container is open.
func (s *Session) HasRegisters() bool { return s.IsOpen() }

// readDescriptionProvider is an optional architecture capability for
// a core-specific target description; no arch.Descriptor in this
// module implements it today, so ReadDescription always delegates.
type readDescriptionProvider interface {
	ReadDescription() (string, bool)
}

// ReadDescription returns the architecture's core-specific target
// description, if available, else reports that the caller should
// delegate to the generic description.
func (s *Session) ReadDescription() (string, bool) {
	if rd, ok := s.archDesc.(readDescriptionProvider); ok {
		return rd.ReadDescription()
	}
	return "", false
}

// PidToStr implements spec.md §4.7's pid_to_str: the architecture's
// own formatter takes precedence; otherwise a non-zero lwp is shown
// as "process <lwp>", a real pid as "process <pid>", and a fake pid
// as the fixed "<main task>" string.
func (s *Session) PidToStr(tid corefile.ThreadID) string {
	if pf, ok := s.archDesc.(corefile.PidFormatter); ok {
		if str, ok := pf.PidToStr(tid); ok {
			return str
		}
	}
	if tid.LWP != 0 {
		return fmt.Sprintf("process %d", tid.LWP)
	}
	if s.inferior != nil && !s.inferior.FakePID {
		return fmt.Sprintf("process %d", tid.PID)
	}
	return "<main task>"
}

// infoProcProvider is an optional architecture capability for
// architecture-specific `info proc` output.
type infoProcProvider interface {
	InfoProc(args []string, request string) (string, error)
}

// InfoProc implements spec.md §4.7's info_proc: architecture-specific
// handling if available, else silent (empty result, no error).
func (s *Session) InfoProc(args []string, request string) (string, error) {
	if ip, ok := s.archDesc.(infoProcProvider); ok {
		return ip.InfoProc(args, request)
	}
	return "", nil
}

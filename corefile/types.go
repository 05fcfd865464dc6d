// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corefile processes core dump files produced when a program
// terminates abnormally, and serves a read-only, uniform view of the
// dead process's threads, registers, memory, auxiliary vector, shared
// library list, and fatal signal.
//
// There's nothing container-specific about the types in this package;
// the concrete container parser (ELF, or any other flavour) lives in a
// sibling package such as corefile/elfcore and registers itself with
// this package's Format Registry.
package corefile

import "fmt"

// An Address is a virtual memory address in the inferior.
type Address uint64

func (a Address) Add(n int64) Address { return a + Address(n) }
func (a Address) Sub(b Address) int64 { return int64(a - b) }

func (a Address) String() string { return fmt.Sprintf("%#x", uint64(a)) }

// Perm is a set of access permissions for a memory mapping.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)

func (p Perm) String() string {
	r, w, x := "-", "-", "-"
	if p&Read != 0 {
		r = "r"
	}
	if p&Write != 0 {
		w = "w"
	}
	if p&Exec != 0 {
		x = "x"
	}
	return r + w + x
}

// A ThreadID identifies a single thread of an Inferior. LWP zero means
// "no thread discriminator" (a single-threaded core). Extra is unused
// by this package; it exists so callers can carry an opaque
// discriminator through the target stack's thread-identity contract.
type ThreadID struct {
	PID   int
	LWP   int
	Extra int
}

func (t ThreadID) String() string {
	if t.LWP == 0 {
		return fmt.Sprintf("pid %d", t.PID)
	}
	return fmt.Sprintf("pid %d, lwp %d", t.PID, t.LWP)
}

// An Inferior is the debugger's record of the process that dumped
// core. Exactly one exists per CoreSession.
type Inferior struct {
	// PID is the inferior's process id, taken from the container.
	PID int

	// FakePID is true when the container reported no process id and
	// PID was synthesized (always 1).
	FakePID bool
}

// SyntheticPID is the process id used when a container reports no
// pid of its own.
const SyntheticPID = 1

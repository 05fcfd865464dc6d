// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "github.com/aclements/corefile"

// ReadMemory implements the Memory Service (spec.md §4.4): it finds
// the loadable section covering vma, clips the request to that
// section's extent, and reads the clipped range from the container at
// the corresponding file offset into buf. A short read is reported as
// such (N < len(buf)); the caller retries at vma+N for the remainder.
// An address with no covering section is reported as EOF, never as an
// I/O error: spec.md's round-trip property only promises bytes for
// addresses the container actually backs.
func (s *Session) ReadMemory(vma corefile.Address, buf []byte) corefile.TransferResult {
	if len(buf) == 0 {
		return corefile.TransferResult{EOF: true}
	}
	sec, ok := s.table.AtVMA(vma)
	if !ok {
		return corefile.TransferResult{EOF: true}
	}

	secEnd := sec.VMA.Add(int64(sec.Size))
	avail := secEnd.Sub(vma)
	n := int64(len(buf))
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return corefile.TransferResult{EOF: true}
	}

	off := sec.FileOffset + vma.Sub(sec.VMA)
	read, err := s.container.ReadAt(buf[:n], off)
	if err != nil {
		return corefile.TransferResult{Err: &corefile.TransferIoError{Kind: corefile.ObjectMemory, Err: err}}
	}
	if read == 0 {
		return corefile.TransferResult{EOF: true}
	}
	return corefile.TransferResult{N: read, Ok: true}
}

// WriteMemory always fails: spec.md's Non-goals exclude writing to
// the core, regardless of whether the container itself was opened
// read-write.
func (s *Session) WriteMemory(vma corefile.Address, buf []byte) corefile.TransferResult {
	return corefile.TransferResult{Err: &corefile.TransferIoError{Kind: corefile.ObjectMemory, Err: errWriteUnsupported}}
}

var errWriteUnsupported = writeUnsupportedError{}

type writeUnsupportedError struct{}

func (writeUnsupportedError) Error() string { return "core file memory is read-only" }

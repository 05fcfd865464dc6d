// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch holds the architecture descriptors spec.md §4.3 and
// §4.7 delegate to: register-section iterators that supersede the
// legacy handler registry when present, and arch-specific signal and
// thread-id formatting. This is a stand-in for the "architecture
// descriptor" spec.md names as an external collaborator (spec.md §1);
// only enough is implemented here to drive the Register Reader and
// trivial target-stack services end to end.
package arch

import "github.com/aclements/corefile"

// Descriptor implements corefile.ArchDescriptor plus the extra hooks
// spec.md §4.6/§4.7 route through the architecture when available.
type Descriptor struct {
	name string

	registerSections func(report corefile.RegisterSectionFunc)

	// signalFromTarget maps a container-recorded signal number to the
	// host's; nil means "use the host signal table directly" (spec.md
	// §4.5 step 17).
	signalFromTarget func(targetSignal int) (hostSignal int, ok bool)

	// pidToStr, if non-nil, formats a ThreadID for display, taking
	// precedence over the generic formatter in spec.md §4.7.
	pidToStr func(corefile.ThreadID) (string, bool)
}

var _ corefile.ArchDescriptor = (*Descriptor)(nil)

func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) RegisterSections() func(report corefile.RegisterSectionFunc) {
	return d.registerSections
}

// SignalFromTarget implements the architecture's signal-number
// translation, or reports ok=false to let the caller fall back to the
// host signal table.
func (d *Descriptor) SignalFromTarget(targetSignal int) (hostSignal int, ok bool) {
	if d.signalFromTarget == nil {
		return 0, false
	}
	return d.signalFromTarget(targetSignal)
}

// PidToStr implements the architecture-specific thread-id formatter
// from spec.md §4.7, or reports ok=false to fall back to the generic
// formatter.
func (d *Descriptor) PidToStr(tid corefile.ThreadID) (string, bool) {
	if d.pidToStr == nil {
		return "", false
	}
	return d.pidToStr(tid)
}

// byName is the process-wide table of known architecture descriptors,
// keyed the way debug/elf reports machine types translated to Go's
// GOARCH-style names ("amd64", "386", "arm64").
var byName = map[string]*Descriptor{
	"amd64": amd64Descriptor,
	"386":   i386Descriptor,
	"arm64": arm64Descriptor,
}

// Lookup returns the Descriptor for the named architecture, or nil if
// none is known — the architecture then has no native register
// iterator and the legacy handler chain is used exclusively.
func Lookup(name string) *Descriptor {
	return byName[name]
}

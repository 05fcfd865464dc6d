// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corefile

import "fmt"

// A RegisterCache is the debugger's per-thread mirror of CPU
// registers. This package never implements one; it's an external
// collaborator (spec.md §1) that a RegisterSet's Supply function
// writes into.
type RegisterCache interface {
	// Supply stores raw register contents for the named register
	// set. discriminator identifies which subset was supplied (the
	// architecture descriptor and the legacy handler use differing
	// conventions for this; corefile treats it as opaque).
	Supply(discriminator int, raw []byte) error

	// MarkUnavailable marks every register still unknown after all
	// register sets have been supplied as unavailable, distinct from
	// uninitialized.
	MarkUnavailable()
}

// A Container is the minimal contract a concrete parser (e.g.
// corefile/elfcore) must satisfy for the Format Registry, Section
// Classifier, and Session Manager to operate on it. It is the
// "BFD-equivalent" external collaborator named in spec.md §1.
type Container interface {
	// Sections returns every section the container carries, in
	// container order. Memory-bearing sections are flagged with
	// SectionLoad.
	Sections() []Section

	// Pid returns the process id recorded by the container, or 0 if
	// unknown.
	Pid() int

	// Command returns the failing command's name, if known.
	Command() (string, bool)

	// FailingSignal returns the fatal signal number the container
	// recorded, or <= 0 if unknown.
	FailingSignal() int

	// ReadAt reads n bytes at file offset off, the same contract as
	// io.ReaderAt.
	ReadAt(p []byte, off int64) (int, error)

	// Flavour names the concrete container format, e.g. "elf-core".
	Flavour() string
}

// A RegisterSet is an architecture-described contract for decoding a
// named chunk of register bytes into a RegisterCache.
type RegisterSet struct {
	// VariableSize indicates the set's natural size may legitimately
	// vary between cores (e.g. with XSAVE extensions); a size larger
	// than the expected minimum is then accepted without an
	// unexpected-size warning.
	VariableSize bool

	// Supply decodes raw into the cache. discriminator is
	// DiscriminatorAll when dispatched through an architecture
	// iterator; see session.Session.FetchAll.
	Supply func(cache RegisterCache, discriminator int, raw []byte) error
}

// DiscriminatorAll is the discriminator value read_section passes to
// RegisterSet.Supply (spec.md §4.3): "supply everything in this
// section".
const DiscriminatorAll = -1

// A CoreHandler is a registration describing a core container
// variant. Handlers are immutable after registration and are
// registered once, at process startup; Register is not safe to call
// concurrently with Sniff/CheckFormat, matching the single-threaded
// model of spec.md §5.
type CoreHandler struct {
	// Flavour names the container variant this handler claims, e.g.
	// "linux-elf-core", "freebsd-elf-core".
	Flavour string

	// Sniff reports whether this handler claims container c.
	Sniff func(c Container) bool

	// CheckFormat reports whether c looks like a core file of this
	// handler's flavour, used when the generic parser has already
	// rejected the file outright.
	CheckFormat func(c Container) bool

	// DecodeRegisters decodes raw register bytes for regset
	// (0 = general purpose, 2 = floating point, by this package's
	// convention matching spec.md §4.3) into cache, given the
	// section's base virtual address.
	DecodeRegisters func(cache RegisterCache, raw []byte, regset int, base Address) error
}

// registeredHandlers is the process-wide Format Registry. It is
// populated during startup (by package init funcs in concrete
// container packages, or by an explicit call to Register) and treated
// as read-only once any Open runs.
var registeredHandlers []*CoreHandler

// Register adds handler to the process-wide Format Registry. It is
// intended to be called from package init funcs of concrete container
// implementations.
func Register(handler *CoreHandler) {
	registeredHandlers = append(registeredHandlers, handler)
}

// Handlers returns every registered CoreHandler, in registration
// order.
func Handlers() []*CoreHandler {
	return registeredHandlers
}

// An ArchDescriptor optionally supersedes the legacy handler registry
// for register decoding. A nil ArchDescriptor (or one whose
// RegisterSections returns nil) falls back to the chosen CoreHandler.
type ArchDescriptor interface {
	// Name identifies the architecture, e.g. "amd64".
	Name() string

	// RegisterSections, if non-nil, supplies the architecture's own
	// register-section iterator: it's passed a reporter function and
	// must call it once per register set the architecture knows how
	// to decode from a core file. A nil return value (as opposed to a
	// non-nil function that reports nothing) means "this architecture
	// has no native iterator; fall back to the legacy handler."
	RegisterSections() func(report RegisterSectionFunc)
}

// RegisterSectionFunc is called by an ArchDescriptor's register
// iterator once per register set it knows how to read from a core
// file.
type RegisterSectionFunc func(name string, set RegisterSet, minSize int, discriminator int, humanName string, required bool)

// SignalTranslator is an optional capability of an ArchDescriptor
// (spec.md §4.5 step 17): it maps a container-recorded signal number
// to the host's. When an ArchDescriptor doesn't implement this, the
// caller falls back to the host signal table directly.
type SignalTranslator interface {
	SignalFromTarget(targetSignal int) (hostSignal int, ok bool)
}

// PidFormatter is an optional capability of an ArchDescriptor (spec.md
// §4.7's pid_to_str): when present and it reports ok, its formatting
// takes precedence over the generic one.
type PidFormatter interface {
	PidToStr(tid ThreadID) (string, bool)
}

// Sniff implements the Format Registry's sniff operation (spec.md
// §4.1). If arch provides a native register-section iterator, Sniff
// returns (nil, false): the architecture supersedes legacy handlers
// and no CoreHandler is chosen. Otherwise every registered handler's
// Sniff predicate is consulted; zero matches is UnrecognizedFormat,
// more than one is AmbiguousFormat (a warning, not a failure) and the
// *last* match is kept — see DESIGN.md's Open Question decision.
func Sniff(c Container, arch ArchDescriptor) (handler *CoreHandler, warning string, err error) {
	if arch != nil && arch.RegisterSections() != nil {
		return nil, "", nil
	}

	var matches int
	for _, h := range registeredHandlers {
		if h.Sniff(c) {
			matches++
			handler = h // last-wins, deliberately
		}
	}
	switch matches {
	case 0:
		return nil, "", &UnrecognizedFormatError{Flavour: c.Flavour()}
	case 1:
		return handler, "", nil
	default:
		return handler, fmt.Sprintf("ambiguous core format, %d handlers match", matches), nil
	}
}

// CheckFormat implements the Format Registry's check-format operation:
// it reports true iff any registered handler's CheckFormat predicate
// accepts c. corefile/session does not call it: there a parser
// rejection produces no container to check, and is reported as
// NotACore directly.
func CheckFormat(c Container) bool {
	for _, h := range registeredHandlers {
		if h.CheckFormat(c) {
			return true
		}
	}
	return false
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "github.com/aclements/corefile"

// FetchAll implements the Register Reader's entry point (spec.md
// §4.3): it prefers the architecture descriptor's own register-section
// iterator, falls back to the session's legacy handler, and otherwise
// reports the core as unreadable. Every register the supplied cache
// never heard about is marked unavailable at the end.
func (s *Session) FetchAll(cache corefile.RegisterCache) {
	switch {
	case s.archDesc != nil && s.archDesc.RegisterSections() != nil:
		iter := s.archDesc.RegisterSections()
		iter(func(name string, set corefile.RegisterSet, minSize int, discriminator int, humanName string, required bool) {
			s.readSection(cache, name, set, minSize, discriminator, humanName, required)
		})
	case s.handler != nil && s.handler.DecodeRegisters != nil:
		s.readSection(cache, ".reg", corefile.RegisterSet{}, 0, 0, "general-purpose", true)
		s.readSection(cache, ".reg2", corefile.RegisterSet{}, 0, 2, "floating-point", false)
	default:
		s.warn("cannot fetch registers from this core")
		cache.MarkUnavailable()
		return
	}
	cache.MarkUnavailable()
}

// readSection implements spec.md §4.3's read_section helper. name is
// the section's thread-independent base name (".reg", ".reg2", ...);
// minSize is 0 when the caller (the legacy path) has no expected size
// to enforce, which skips the too-small/unexpected-size checks
// entirely — the legacy handler's own DecodeRegisters is trusted to
// validate raw's length itself.
func (s *Session) readSection(cache corefile.RegisterCache, name string, set corefile.RegisterSet, minSize int, discriminator int, humanName string, required bool) {
	lwp := 0
	if s.current != nil {
		lwp = s.current.ID().LWP
	}
	effective := corefile.RegSectionName(name, lwp)

	sec, ok := s.table.ByName(effective)
	if !ok {
		if required {
			s.warn(&corefile.RegisterSectionWarning{Kind: corefile.WarnSectionMissing, Section: humanName})
		}
		return
	}

	if minSize > 0 {
		if sec.Size < uint64(minSize) {
			s.warn(&corefile.RegisterSectionWarning{Kind: corefile.WarnSectionTooSmall, Section: effective})
			return
		}
		if sec.Size != uint64(minSize) && !set.VariableSize {
			s.warn(&corefile.RegisterSectionWarning{Kind: corefile.WarnUnexpectedSectionSize, Section: effective})
			// Not fatal: continue and supply what's there.
		}
	}

	buf := make([]byte, sec.Size)
	if _, err := s.container.ReadAt(buf, sec.FileOffset); err != nil {
		s.warn(&corefile.RegisterSectionWarning{Kind: corefile.WarnSectionReadFailed, Section: effective, Detail: err.Error()})
		return
	}

	var err error
	if set.Supply != nil {
		err = set.Supply(cache, corefile.DiscriminatorAll, buf)
	} else if s.handler != nil {
		err = s.handler.DecodeRegisters(cache, buf, discriminator, sec.VMA)
	}
	if err != nil {
		s.warn(err)
	}
}

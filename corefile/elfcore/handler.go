// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfcore

import (
	"fmt"

	"github.com/aclements/corefile"
)

func init() {
	corefile.Register(&corefile.CoreHandler{
		Flavour:         "linux-elf-core",
		Sniff:           sniff,
		CheckFormat:     checkFormat,
		DecodeRegisters: decodeRegisters,
	})
}

// sniff and checkFormat are the same predicate here: our Container is
// only ever constructed from a file that debug/elf already accepted as
// ET_CORE, so by the time a Container reaches the registry it always
// claims this handler. A container implementation for another OS would
// register its own handler and give a narrower Sniff (e.g. checking an
// OS-specific note vendor name).
func sniff(c corefile.Container) bool {
	_, ok := c.(*Container)
	return ok
}

func checkFormat(c corefile.Container) bool {
	_, ok := c.(*Container)
	return ok
}

// decodeRegisters is the legacy fallback register decoder, consulted
// only when the architecture descriptor has no native register-section
// iterator (spec.md §4.3 step 2/3). regset 0 is general-purpose, 2 is
// floating point, matching this package's convention.
func decodeRegisters(cache corefile.RegisterCache, raw []byte, regset int, base corefile.Address) error {
	switch regset {
	case 0, 2:
		return cache.Supply(regset, raw)
	default:
		return fmt.Errorf("elfcore: unknown register set %d", regset)
	}
}

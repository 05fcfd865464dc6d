// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import "github.com/aclements/corefile"

// amd64RegSize is sizeof(elf_gregset_t) on Linux/amd64: 27 64-bit
// slots. amd64FPRegSize is sizeof(elf_fpregset_t) (struct
// user_fpregs_struct), 512 bytes.
const (
	amd64RegSize   = 27 * 8
	amd64FPRegSize = 512
)

var amd64Descriptor = &Descriptor{
	name: "amd64",
	registerSections: func(report corefile.RegisterSectionFunc) {
		report(".reg", corefile.RegisterSet{Supply: supplyAMD64GP}, amd64RegSize, 0, "general-purpose", true)
		report(".reg2", corefile.RegisterSet{Supply: supplyAMD64FP}, amd64FPRegSize, 2, "floating-point", false)
	},
	signalFromTarget: linuxSignalFromTarget,
}

// supplyAMD64GP and supplyAMD64FP are called with DiscriminatorAll
// (the whole set); they store it under the set's own number, 0 for
// general-purpose and 2 for floating-point, as the legacy decoder does.
func supplyAMD64GP(cache corefile.RegisterCache, discriminator int, raw []byte) error {
	return cache.Supply(0, raw)
}

func supplyAMD64FP(cache corefile.RegisterCache, discriminator int, raw []byte) error {
	return cache.Supply(2, raw)
}

// linuxSignalFromTarget maps a core file's raw Linux signal number to
// the host's, which on a host that is itself Linux is the identity
// mapping. Cross-OS translation (e.g. examining a Linux core on a
// BSD host) would live here; this module only targets Linux hosts.
func linuxSignalFromTarget(targetSignal int) (int, bool) {
	if targetSignal <= 0 {
		return 0, false
	}
	return targetSignal, true
}

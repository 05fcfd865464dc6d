// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import "github.com/aclements/corefile"

// arm64RegSize is sizeof(struct user_pt_regs) on Linux/arm64: 34
// 64-bit slots (31 GP regs + sp + pc + pstate).
// arm64FPRegSize is the struct user_fpsimd_state payload: 32 16-byte
// vregs plus the 4-byte fpsr and fpcr, without trailing padding.
const (
	arm64RegSize   = 34 * 8
	arm64FPRegSize = 32*16 + 4 + 4
)

var arm64Descriptor = &Descriptor{
	name: "arm64",
	registerSections: func(report corefile.RegisterSectionFunc) {
		report(".reg", corefile.RegisterSet{Supply: supplyGeneric(0)}, arm64RegSize, 0, "general-purpose", true)
		report(".reg2", corefile.RegisterSet{Supply: supplyGeneric(2)}, arm64FPRegSize, 2, "floating-point", false)
	},
	signalFromTarget: linuxSignalFromTarget,
}

// supplyGeneric returns a Supply function that stores the whole set
// (it is called with DiscriminatorAll) under regset, the set's own
// number.
func supplyGeneric(regset int) func(corefile.RegisterCache, int, []byte) error {
	return func(cache corefile.RegisterCache, discriminator int, raw []byte) error {
		return cache.Supply(regset, raw)
	}
}

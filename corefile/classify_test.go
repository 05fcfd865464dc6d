// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corefile

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want SectionRole
	}{
		{".reg", RoleGeneral},
		{".reg/17", RoleGeneral},
		{".reg2", RoleFloat},
		{".reg2/17", RoleFloat},
		{".auxv", RoleAux},
		{".wcookie", RoleStackCookie},
		{".note.linuxcore.siginfo", RoleSiginfo},
		{".note.linuxcore.siginfo/9", RoleSiginfo},
		{"SPU/3/regs", RoleSpuRegs},
		{"SPU/3/mem", RoleSpuContext},
		{"SPU/3", RoleSpuContext},
		{".regfoo", RoleOther},
		{".reg/notanumber", RoleOther},
		{"", RoleOther},
	}
	for _, c := range cases {
		if got := Classify(c.name); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRegLWP(t *testing.T) {
	if lwp, ok := RegLWP(".reg/42"); !ok || lwp != 42 {
		t.Errorf("RegLWP(.reg/42) = %d, %v, want 42, true", lwp, ok)
	}
	if _, ok := RegLWP(".reg"); ok {
		t.Errorf("RegLWP(.reg) claimed a match for the bare name")
	}
	if _, ok := RegLWP(".reg/-1"); ok {
		t.Errorf("RegLWP(.reg/-1) claimed a match for a negative lwp")
	}
}

func TestSpuRegsID(t *testing.T) {
	id, ok := SpuRegsID("SPU/3/regs")
	if !ok || id != 3 {
		t.Errorf("SpuRegsID(SPU/3/regs) = %d, %v, want 3, true", id, ok)
	}
	if _, ok := SpuRegsID("SPU/3/xregs"); ok {
		t.Errorf("SpuRegsID(SPU/3/xregs) incorrectly matched a non-regs suffix")
	}
	if _, ok := SpuRegsID("SPU/3/mem"); ok {
		t.Errorf("SpuRegsID(SPU/3/mem) incorrectly matched a non-regs annex")
	}
}

func TestSiginfoName(t *testing.T) {
	if got := SiginfoName(0); got != ".note.linuxcore.siginfo" {
		t.Errorf("SiginfoName(0) = %q", got)
	}
	if got := SiginfoName(5); got != ".note.linuxcore.siginfo/5" {
		t.Errorf("SiginfoName(5) = %q", got)
	}
}

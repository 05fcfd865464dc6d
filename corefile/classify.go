// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corefile

import (
	"strconv"
	"strings"
)

// A SectionRole is the semantic classification of a section, derived
// purely from its name. Roles are never stored; they're recomputed
// from Section.Name whenever a caller needs to know what a section is
// for.
type SectionRole int

const (
	RoleOther SectionRole = iota
	RoleGeneral
	RoleFloat
	RoleAux
	RoleStackCookie
	RoleSiginfo
	RoleSpuContext
	RoleSpuRegs
	RoleMemory
)

func (r SectionRole) String() string {
	switch r {
	case RoleGeneral:
		return "general-purpose registers"
	case RoleFloat:
		return "floating-point registers"
	case RoleAux:
		return "auxiliary vector"
	case RoleStackCookie:
		return "stack cookie"
	case RoleSiginfo:
		return "signal info"
	case RoleSpuContext:
		return "SPU context"
	case RoleSpuRegs:
		return "SPU registers"
	case RoleMemory:
		return "memory"
	default:
		return "other"
	}
}

const (
	prefixReg      = ".reg"
	prefixReg2     = ".reg2"
	nameAuxv       = ".auxv"
	nameWcookie    = ".wcookie"
	prefixSiginfo  = ".note.linuxcore.siginfo"
	prefixSpu      = "SPU/"
	suffixSpuRegs  = "/regs"
)

// Classify derives the SectionRole of a section from its name. It
// never consults Flags; RoleMemory is assigned by the container's
// standard segment walk (see SectionFlags), not by name, so Classify
// never returns RoleMemory for a named note/register section even if
// that section also happens to be backed by loadable data.
func Classify(name string) SectionRole {
	switch {
	case name == prefixReg:
		return RoleGeneral
	case hasLWPSuffix(name, prefixReg):
		return RoleGeneral
	case name == prefixReg2:
		return RoleFloat
	case hasLWPSuffix(name, prefixReg2):
		return RoleFloat
	case name == nameAuxv:
		return RoleAux
	case name == nameWcookie:
		return RoleStackCookie
	case name == prefixSiginfo || hasLWPSuffix(name, prefixSiginfo):
		return RoleSiginfo
	case strings.HasPrefix(name, prefixSpu):
		if strings.HasSuffix(name, suffixSpuRegs) {
			return RoleSpuRegs
		}
		return RoleSpuContext
	default:
		return RoleOther
	}
}

// hasLWPSuffix reports whether name is exactly "prefix/NNN" for some
// non-negative decimal NNN. A non-numeric tail (or a prefix match with
// no slash, such as bare ".reg") is not a per-thread match: exact-name
// matches take precedence over prefix matches, and ".reg" alone is
// never classified as General for a specific thread.
func hasLWPSuffix(name, prefix string) bool {
	_, ok := lwpSuffix(name, prefix)
	return ok
}

// lwpSuffix extracts the decimal LWP from "prefix/NNN". It returns
// false if name doesn't have that shape or NNN isn't a valid unsigned
// decimal.
func lwpSuffix(name, prefix string) (int, bool) {
	p := prefix + "/"
	if !strings.HasPrefix(name, p) {
		return 0, false
	}
	tail := name[len(p):]
	n, err := strconv.ParseUint(tail, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// RegLWP extracts the LWP from a ".reg/<lwp>" section name.
func RegLWP(name string) (int, bool) { return lwpSuffix(name, prefixReg) }

// SiginfoName returns the siginfo section name for the given thread:
// the bare name for lwp zero (or when the thread has no discriminator),
// and "<name>/<lwp>" otherwise.
func SiginfoName(lwp int) string {
	if lwp == 0 {
		return prefixSiginfo
	}
	return prefixSiginfo + "/" + strconv.Itoa(lwp)
}

// RegSectionName returns the ".reg" (or ".reg2") section name
// effective for the given thread.
func RegSectionName(base string, lwp int) string {
	if lwp == 0 {
		return base
	}
	return base + "/" + strconv.Itoa(lwp)
}

// SpuAnnex extracts the annex (everything after "SPU/") from an
// arbitrary-annex SPU section name, e.g. "SPU/3/mem" -> "3/mem".
func SpuAnnex(name string) (string, bool) {
	if !strings.HasPrefix(name, prefixSpu) {
		return "", false
	}
	return name[len(prefixSpu):], true
}

// SpuRegsID extracts <id> from a "SPU/<id>/regs" section name.
func SpuRegsID(name string) (int, bool) {
	annex, ok := SpuAnnex(name)
	if !ok || !strings.HasSuffix(annex, suffixSpuRegs) {
		return 0, false
	}
	idStr := strings.TrimSuffix(annex, suffixSpuRegs)
	n, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfcore

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"testing"

	"github.com/aclements/corefile"
)

const (
	ptLoad = 1
	ptNote = 4
	pfX    = 1
	pfW    = 2
	pfR    = 4

	etCore    = 4
	emX86_64  = 62
	ntPRStatus = 1
	ntPRPSInfo = 3
)

// buildNote appends one ELF note record (name, type, desc) to b, with
// standard 4-byte padding on both the name and the descriptor.
func buildNote(b *bytes.Buffer, name string, typ uint32, desc []byte) {
	nameBytes := append([]byte(name), 0)
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(nameBytes)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(desc)))
	binary.LittleEndian.PutUint32(hdr[8:], typ)
	b.Write(hdr[:])
	b.Write(nameBytes)
	pad(b, len(nameBytes))
	b.Write(desc)
	pad(b, len(desc))
}

func pad(b *bytes.Buffer, n int) {
	if rem := n % 4; rem != 0 {
		b.Write(make([]byte, 4-rem))
	}
}

// buildMinimalCore constructs a minimal single-threaded ELF64 core
// file for amd64: one PT_LOAD segment and one PT_NOTE segment carrying
// NT_PRSTATUS, NT_PRPSINFO, and NT_AUXV.
func buildMinimalCore(t *testing.T) string {
	t.Helper()

	prstatus := make([]byte, prstatusRegOff+prstatusRegSize)
	binary.LittleEndian.PutUint16(prstatus[prstatusCursigOff:], 11) // SIGSEGV
	binary.LittleEndian.PutUint32(prstatus[prstatusPidOff:], 4242)

	prpsinfo := make([]byte, prpsinfoFnameOff+prpsinfoFnameLen)
	binary.LittleEndian.PutUint32(prpsinfo[prpsinfoPidOff:], 4242)
	copy(prpsinfo[prpsinfoFnameOff:], "testprog")

	auxv := make([]byte, 16)

	buildID := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}

	var notes bytes.Buffer
	buildNote(&notes, "CORE", ntPRStatus, prstatus)
	buildNote(&notes, "CORE", ntPRPSInfo, prpsinfo)
	buildNote(&notes, "CORE", uint32(ntAuxv), auxv)
	buildNote(&notes, "GNU", uint32(ntGNUBuildID), buildID)

	loadData := bytes.Repeat([]byte{0xAA}, 0x100)

	const ehsize = 64
	const phentsize = 56
	const phnum = 2
	phoff := int64(ehsize)
	noteOff := phoff + phentsize*phnum
	loadOff := noteOff + int64(notes.Len())

	var buf bytes.Buffer

	// e_ident
	ident := make([]byte, 16)
	copy(ident, "\x7fELF")
	ident[4] = 2 // ELFCLASS64
	ident[5] = 1 // ELFDATA2LSB
	ident[6] = 1 // EV_CURRENT
	buf.Write(ident)

	writeU16 := func(v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); buf.Write(b[:]) }
	writeU32 := func(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); buf.Write(b[:]) }
	writeU64 := func(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); buf.Write(b[:]) }

	writeU16(etCore)
	writeU16(emX86_64)
	writeU32(1) // e_version
	writeU64(0) // e_entry
	writeU64(uint64(phoff))
	writeU64(0) // e_shoff
	writeU32(0) // e_flags
	writeU16(ehsize)
	writeU16(phentsize)
	writeU16(phnum)
	writeU16(0) // e_shentsize
	writeU16(0) // e_shnum
	writeU16(0) // e_shstrndx

	if buf.Len() != int(ehsize) {
		t.Fatalf("ELF header is %d bytes, want %d", buf.Len(), ehsize)
	}

	writePhdr := func(typ, flags uint32, off, vaddr, filesz uint64) {
		writeU32(typ)
		writeU32(flags)
		writeU64(off)
		writeU64(vaddr)
		writeU64(vaddr) // p_paddr
		writeU64(filesz)
		writeU64(filesz) // p_memsz
		writeU64(0x1000) // p_align
	}
	writePhdr(ptLoad, pfR|pfW, uint64(loadOff), 0x400000, uint64(len(loadData)))
	writePhdr(ptNote, 0, uint64(noteOff), 0, uint64(notes.Len()))

	buf.Write(notes.Bytes())
	buf.Write(loadData)

	f, err := ioutil.TempFile(t.TempDir(), "core")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestOpenMinimalCore(t *testing.T) {
	path := buildMinimalCore(t)
	defer os.Remove(path)

	c, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.Pid() != 4242 {
		t.Errorf("Pid() = %d, want 4242", c.Pid())
	}
	if cmd, ok := c.Command(); !ok || cmd != "testprog" {
		t.Errorf("Command() = %q, %v, want \"testprog\", true", cmd, ok)
	}
	if c.FailingSignal() != 11 {
		t.Errorf("FailingSignal() = %d, want 11", c.FailingSignal())
	}
	if c.Arch() != "amd64" {
		t.Errorf("Arch() = %q, want amd64", c.Arch())
	}
	if c.Flavour() != "linux-elf-core" {
		t.Errorf("Flavour() = %q, want linux-elf-core", c.Flavour())
	}

	var foundReg, foundAuxv, foundLoad bool
	for _, s := range c.Sections() {
		switch {
		case s.Name == ".reg":
			foundReg = true
			if s.Size != prstatusRegSize {
				t.Errorf(".reg size = %d, want %d", s.Size, prstatusRegSize)
			}
		case s.Name == ".auxv":
			foundAuxv = true
		case s.Flags&corefile.SectionLoad != 0:
			foundLoad = true
			if s.VMA != 0x400000 {
				t.Errorf("load section VMA = %v, want 0x400000", s.VMA)
			}
		}
	}
	if !foundReg || !foundAuxv || !foundLoad {
		t.Fatalf("missing expected sections: reg=%v auxv=%v load=%v", foundReg, foundAuxv, foundLoad)
	}

	id, ok := BuildID(c)
	if !ok {
		t.Fatalf("BuildID: not found")
	}
	if !bytes.Equal([]byte(id), []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("BuildID = %x, want deadbeef01020304", []byte(id))
	}
}

func TestProbe(t *testing.T) {
	path := buildMinimalCore(t)
	defer os.Remove(path)

	if !Probe(path) {
		t.Fatalf("Probe(%s) = false, want true", path)
	}
	if Probe("/nonexistent/path/to/nothing") {
		t.Fatalf("Probe(nonexistent) = true, want false")
	}
}

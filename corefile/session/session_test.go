// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/aclements/corefile"
	"github.com/aclements/corefile/target"
)

// fakeContainer is a corefile.Container test double backed by an
// in-memory blob, standing in for a real elfcore.Container so these
// tests never need an on-disk core file.
type fakeContainer struct {
	pid           int
	command       string
	failingSignal int
	sections      []corefile.Section
	blob          []byte
	archName      string // "" means "no archAware method"
	order         binary.ByteOrder
	ambiguous     bool
}

func (f *fakeContainer) Sections() []corefile.Section    { return f.sections }
func (f *fakeContainer) Pid() int                        { return f.pid }
func (f *fakeContainer) Command() (string, bool)         { return f.command, f.command != "" }
func (f *fakeContainer) FailingSignal() int               { return f.failingSignal }
func (f *fakeContainer) Flavour() string                  { return "fake" }
func (f *fakeContainer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(f.blob)) {
		return 0, io.EOF
	}
	n := copy(p, f.blob[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Arch is present unconditionally, but only "claims" an architecture
// when archName is set, matching what session.Open expects from an
// archAware container.
func (f *fakeContainer) Arch() string { return f.archName }

func (f *fakeContainer) ByteOrder() binary.ByteOrder {
	if f.order == nil {
		return binary.LittleEndian
	}
	return f.order
}

// fakeUnknownContainer is recognized by no handler at all (not even
// handlerSingle, since it isn't a *fakeContainer), used for the
// unrecognized-format scenario.
type fakeUnknownContainer struct{ fakeContainer }

func init() {
	corefile.Register(&corefile.CoreHandler{
		Flavour: "fake-single",
		Sniff: func(c corefile.Container) bool {
			_, ok := c.(*fakeContainer)
			return ok
		},
		CheckFormat: func(c corefile.Container) bool {
			_, ok := c.(*fakeContainer)
			return ok
		},
		DecodeRegisters: fakeDecodeRegisters,
	})
	corefile.Register(&corefile.CoreHandler{
		Flavour: "fake-ambiguous",
		Sniff: func(c corefile.Container) bool {
			fc, ok := c.(*fakeContainer)
			return ok && fc.ambiguous
		},
		CheckFormat: func(c corefile.Container) bool {
			fc, ok := c.(*fakeContainer)
			return ok && fc.ambiguous
		},
		DecodeRegisters: fakeDecodeRegisters,
	})
}

func fakeDecodeRegisters(cache corefile.RegisterCache, raw []byte, regset int, base corefile.Address) error {
	return cache.Supply(regset, raw)
}

// testHarness bundles a Session with in-memory collaborators and an
// opener that hands back a pre-built fakeContainer, so Open exercises
// the full Session Manager without touching the filesystem.
type testHarness struct {
	sess *Session
	reg  *target.MemRegistry
	st   *target.MemStack
}

func newHarness(c corefile.Container) *testHarness {
	reg := target.NewMemRegistry()
	st := target.NewMemStack()
	sess := NewWithOpener(Collaborators{
		Stack:     st,
		Frames:    reg,
		Inferiors: reg,
		Threads:   reg,
	}, func(path string, writable bool) (corefile.Container, error) {
		return c, nil
	})
	return &testHarness{sess: sess, reg: reg, st: st}
}

func regCache(th target.Thread) *target.MemRegisterCache {
	return th.Registers().(*target.MemRegisterCache)
}

// threadByLWP finds the session thread with the given lwp, for tests
// that need its register cache.
func threadByLWP(sess *Session, reg *target.MemRegistry, lwp int) target.Thread {
	inf := sess.Inferior()
	for _, th := range reg.Threads(inf) {
		if th.ID().LWP == lwp {
			return th
		}
	}
	return nil
}

func TestOpenS1SingleThreaded(t *testing.T) {
	c := &fakeContainer{
		pid:           4321,
		failingSignal: 11,
		archName:      "amd64",
		blob:          make([]byte, 4096),
		sections: []corefile.Section{
			{Name: ".reg", FileOffset: 0, Size: 216},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}

	inf := h.sess.Inferior()
	if inf.PID != 4321 || inf.FakePID {
		t.Errorf("inferior = %+v, want pid 4321, fake-pid false", inf)
	}
	threads := h.sess.Threads()
	if len(threads) != 1 || threads[0] != (corefile.ThreadID{PID: 4321, LWP: 0}) {
		t.Errorf("threads = %v, want [{4321 0 0}]", threads)
	}
	cur, ok := h.sess.CurrentThread()
	if !ok || cur.LWP != 0 {
		t.Errorf("current thread = %v, %v", cur, ok)
	}
	sig, hasSig := h.sess.ExitSignal()
	if !hasSig || sig != 11 {
		t.Errorf("exit signal = %d, %v, want 11, true", sig, hasSig)
	}

	th := threadByLWP(h.sess, h.reg, 0)
	cache := regCache(th)
	if raw, ok := cache.Raw(0); !ok || len(raw) != 216 {
		t.Errorf("GP registers not supplied correctly: %v %v", raw, ok)
	}
	if _, ok := cache.Raw(2); ok {
		t.Errorf("FP registers should not have been supplied")
	}
	if len(h.sess.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", h.sess.Warnings())
	}
}

func TestOpenS2PidLess(t *testing.T) {
	c := &fakeContainer{
		pid:      0,
		archName: "amd64",
		blob:     make([]byte, 4096),
		sections: []corefile.Section{
			{Name: ".reg/17", FileOffset: 2000, Size: 216},
			{Name: ".reg/18", FileOffset: 1000, Size: 216},
			{Name: ".reg", FileOffset: 1000, Size: 216},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}

	inf := h.sess.Inferior()
	if inf.PID != corefile.SyntheticPID || !inf.FakePID {
		t.Errorf("inferior = %+v, want synthetic pid, fake-pid true", inf)
	}
	want := []corefile.ThreadID{{PID: 1, LWP: 17}, {PID: 1, LWP: 18}}
	got := h.sess.Threads()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("threads = %v, want %v", got, want)
	}
	cur, ok := h.sess.CurrentThread()
	if !ok || cur.LWP != 18 {
		t.Errorf("current thread = %v, %v, want lwp 18", cur, ok)
	}
}

// TestOpenUnrecognizedFormat covers the Sniff half of spec.md's S3
// scenario: a container the parser accepts outright (the opener hands
// it back with no error) but that no registered handler's Sniff
// predicate claims, which fails open at step 6 with
// UnrecognizedFormatError.
func TestOpenUnrecognizedFormat(t *testing.T) {
	c := &fakeUnknownContainer{}
	h := newHarness(c)
	err := h.sess.Open("core", false)
	if err == nil {
		t.Fatal("Open succeeded, want UnrecognizedFormatError")
	}
	var unrecognized *corefile.UnrecognizedFormatError
	if !errors.As(err, &unrecognized) {
		t.Errorf("Open error = %v (%T), want *corefile.UnrecognizedFormatError", err, err)
	}
	if h.st.Top() != nil {
		t.Errorf("target stack not empty after failed open: %v", h.st.Top())
	}
	if h.sess.IsOpen() {
		t.Errorf("session reports open after failed open")
	}
}

// TestOpenParserRejection covers the other half of spec.md's S3
// scenario: the parser itself (the opener) rejects path outright, with
// no container produced — open's step 1/2 NotACore path, which no
// handler's CheckFormat can override since there is no container to
// check it against.
func TestOpenParserRejection(t *testing.T) {
	reg := target.NewMemRegistry()
	st := target.NewMemStack()
	sess := NewWithOpener(Collaborators{
		Stack:     st,
		Frames:    reg,
		Inferiors: reg,
		Threads:   reg,
	}, func(path string, writable bool) (corefile.Container, error) {
		return nil, errors.New("bad magic")
	})
	err := sess.Open("core", false)
	if err == nil {
		t.Fatal("Open succeeded, want NotACoreError")
	}
	var notACore *corefile.NotACoreError
	if !errors.As(err, &notACore) {
		t.Errorf("Open error = %v (%T), want *corefile.NotACoreError", err, err)
	}
	if st.Top() != nil {
		t.Errorf("target stack not empty after failed open: %v", st.Top())
	}
	if sess.IsOpen() {
		t.Errorf("session reports open after failed open")
	}
}

func TestOpenS4Ambiguous(t *testing.T) {
	c := &fakeContainer{
		pid:       99,
		ambiguous: true,
		blob:      make([]byte, 64),
		sections: []corefile.Section{
			{Name: ".reg", FileOffset: 0, Size: 8},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	found := false
	for _, w := range h.sess.Warnings() {
		if w == "ambiguous core format, 2 handlers match" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want ambiguous-format warning", h.sess.Warnings())
	}
}

func TestOpenS5CorruptFPSection(t *testing.T) {
	c := &fakeContainer{
		pid:      4321,
		archName: "amd64",
		blob:     make([]byte, 4096),
		sections: []corefile.Section{
			{Name: ".reg", FileOffset: 0, Size: 216},
			{Name: ".reg2", FileOffset: 216, Size: 256}, // half of 512
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	th := threadByLWP(h.sess, h.reg, 0)
	cache := regCache(th)
	if _, ok := cache.Raw(2); ok {
		t.Errorf("FP registers should not have been supplied for a too-small section")
	}
	want := "Section `.reg2' in core file too small."
	found := false
	for _, w := range h.sess.Warnings() {
		if w == want {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want %q", h.sess.Warnings(), want)
	}
}

func TestOpenS6SPUEnumeration(t *testing.T) {
	c := &fakeContainer{
		pid:   1,
		order: binary.BigEndian,
		blob:  make([]byte, 64),
		sections: []corefile.Section{
			{Name: "SPU/3/regs", FileOffset: 0, Size: 8},
			{Name: "SPU/7/regs", FileOffset: 8, Size: 8},
			{Name: "SPU/3/mem", FileOffset: 16, Size: 8},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 8)
	res := h.sess.Xfer(corefile.ObjectSpu, "", buf, 0)
	if res.Err != nil || !res.Ok || res.N != 8 {
		t.Fatalf("Xfer(Spu) = %+v", res)
	}
	want := []byte{0, 0, 0, 3, 0, 0, 0, 7}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("Xfer(Spu) buf = %v, want %v", buf, want)
		}
	}
}

func TestOpenCloseOpenRoundTrip(t *testing.T) {
	c := &fakeContainer{
		pid:      42,
		archName: "amd64",
		blob:     make([]byte, 4096),
		sections: []corefile.Section{
			{Name: ".reg", FileOffset: 0, Size: 216},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	first := h.sess.Inferior().PID
	if err := h.sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.sess.IsOpen() {
		t.Errorf("session still open after Close")
	}
	if h.st.Top() != nil {
		t.Errorf("backend still on target stack after Close")
	}
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if h.sess.Inferior().PID != first {
		t.Errorf("reopen pid = %d, want %d", h.sess.Inferior().PID, first)
	}
}

func TestDetachRejectsArgs(t *testing.T) {
	c := &fakeContainer{pid: 1, blob: make([]byte, 8)}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := h.sess.Detach([]string{"extra"}, false); err == nil {
		t.Fatalf("Detach with args succeeded, want UsageError")
	}
	notice, err := h.sess.Detach(nil, true)
	if err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if notice != "No core file now." {
		t.Errorf("Detach notice = %q", notice)
	}
	if h.sess.IsOpen() {
		t.Errorf("session still open after Detach")
	}
}

func TestReadMemoryClipsToSection(t *testing.T) {
	blob := make([]byte, 4096)
	for i := range blob[0x1000 : 0x1000+16] {
		blob[0x1000+i] = byte(i)
	}
	c := &fakeContainer{
		pid:  1,
		blob: blob,
		sections: []corefile.Section{
			{Name: "load@0x400000", VMA: 0x400000, Size: 16, FileOffset: 0x1000, Flags: corefile.SectionLoad},
		},
	}
	h := newHarness(c)
	if err := h.sess.Open("core", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 32)
	res := h.sess.ReadMemory(0x400000+8, buf)
	if res.Err != nil || !res.Ok || res.N != 8 {
		t.Fatalf("ReadMemory = %+v, want a clipped 8-byte read", res)
	}
	for i := 0; i < 8; i++ {
		if buf[i] != byte(8+i) {
			t.Fatalf("ReadMemory bytes = %v", buf[:8])
		}
	}
	res = h.sess.ReadMemory(0x500000, buf)
	if !res.EOF {
		t.Fatalf("ReadMemory outside any section = %+v, want EOF", res)
	}
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command coredump inspects an ELF core dump file the way a debugger's
// core-file backend would: it opens the core, prints its pid, command,
// terminating signal and threads, and can summarize or visualize the
// section layout.
//
// Usage:
//
//	coredump -i core [-e exe] [-sizes] [-memmap-png out.png] [-syms]
//	coredump detach
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aclements/corefile"
	"github.com/aclements/corefile/elfcore"
	"github.com/aclements/corefile/render"
	"github.com/aclements/corefile/scale"
	"github.com/aclements/corefile/session"
	"github.com/aclements/corefile/target"
)

func main() {
	var (
		flagInput    = flag.String("i", "", "inspect core `file`")
		flagExe      = flag.String("e", "", "read symbols from executable `file`")
		flagSizes    = flag.Bool("sizes", false, "print a histogram of section sizes")
		flagMemmap   = flag.String("memmap-png", "", "render the section layout to `file` as a PNG")
		flagSyms     = flag.Bool("syms", false, "list demangled symbols from the executable given by -e")
		flagWritable = flag.Bool("w", false, "open the core file for writing")
	)
	flag.Parse()

	if flag.NArg() == 1 && flag.Arg(0) == "detach" {
		doDetach()
		return
	}
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}
	if *flagInput == "" {
		fmt.Fprintln(os.Stderr, "coredump: -i is required")
		flag.Usage()
		os.Exit(1)
	}

	collab := session.Collaborators{
		Stack:     target.NewMemStack(),
		Frames:    new(nopFrameCache),
		Inferiors: target.NewMemRegistry(),
		Threads:   target.NewMemRegistry(),
	}
	sess := session.New(collab)

	if err := sess.Open(*flagInput, *flagWritable); err != nil {
		log.Fatalf("opening %s: %v", *flagInput, err)
	}
	defer sess.Close()

	for _, w := range sess.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	printSummary(sess)

	if *flagSizes {
		printSizes(sess)
	}
	if *flagMemmap != "" {
		if err := writeMemmap(sess, *flagMemmap); err != nil {
			log.Fatalf("rendering memory map: %v", err)
		}
	}
	if *flagSyms {
		if *flagExe == "" {
			if bid, ok := buildID(sess); ok {
				fmt.Fprintf(os.Stderr, "no -e given; core reports build-id %s, pass it to -e's owner\n", bid)
			}
			log.Fatal("-syms requires -e")
		}
		if err := printSyms(*flagExe); err != nil {
			log.Fatalf("listing symbols: %v", err)
		}
	}
}

// buildID reports the build-id the core file itself recorded for its
// main executable, if the container format exposes one. This is the
// auto-locate-the-executable hint corelow.c's build_id_core_loadfunc
// provides; here it's surfaced as a diagnostic rather than used to
// search a build-id-indexed debug store, since this module has no such
// store to search.
func buildID(sess *session.Session) (corefile.BuildID, bool) {
	c, ok := sess.Container().(*elfcore.Container)
	if !ok {
		return nil, false
	}
	return elfcore.BuildID(c)
}

// nopFrameCache is a FrameCache that discards resets; a standalone CLI
// has no unwinder to invalidate.
type nopFrameCache struct{}

func (*nopFrameCache) Reset() {}

func printSummary(sess *session.Session) {
	inf := sess.Inferior()
	if inf == nil {
		fmt.Println("no inferior")
		return
	}
	pid := fmt.Sprintf("%d", inf.PID)
	if inf.FakePID {
		pid += " (synthesized)"
	}
	fmt.Printf("pid: %s\n", pid)
	if cmd, ok := sess.Command(); ok {
		fmt.Printf("command: %s\n", cmd)
	}
	if sig, ok := sess.ExitSignal(); ok {
		fmt.Printf("terminating signal: %d\n", sig)
	}
	fmt.Printf("threads:\n")
	for _, tid := range sess.Threads() {
		fmt.Printf("  %s\n", tid)
	}
}

func printSizes(sess *session.Session) {
	table := sess.Sections()
	if table == nil {
		return
	}
	var sizes []int64
	for _, s := range table.All() {
		sizes = append(sizes, int64(s.Size))
	}
	if len(sizes) == 0 {
		fmt.Println("(no sections)")
		return
	}
	hist := scale.NewSizeHistogram(sizes, 10)
	fmt.Print(hist)
}

func writeMemmap(sess *session.Session, path string) error {
	table := sess.Sections()
	if table == nil {
		return fmt.Errorf("no section table (core not open)")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render.Render(table, render.DefaultOptions(), f)
}

func printSyms(exePath string) error {
	syms, err := elfcore.Symbols(exePath)
	if err != nil {
		return err
	}
	for _, sym := range syms {
		fmt.Printf("%#016x %8d %s\n", sym.Value, sym.Size, sym.Name)
	}
	return nil
}

func doDetach() {
	collab := session.Collaborators{
		Stack:     target.NewMemStack(),
		Frames:    new(nopFrameCache),
		Inferiors: target.NewMemRegistry(),
		Threads:   target.NewMemRegistry(),
	}
	sess := session.New(collab)
	notice, err := sess.Detach(nil, true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(notice)
}

// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfcore

import (
	"debug/elf"

	"github.com/ianlancetaylor/demangle"
)

// A Symbol is one entry from an ELF symbol table, with C++ name
// mangling resolved for display.
type Symbol struct {
	Name          string // demangled, or the raw name if not mangled
	MangledName   string
	Value         uint64
	Size          uint64
}

// Symbols reads the symbol table of the ELF file at path (typically
// the executable a core file's NT_PRPSINFO or NT_FILE notes name) and
// demangles C++ names. It falls back to the dynamic symbol table when
// the file carries no static one, which is the common case for a
// stripped executable.
func Symbols(path string) ([]Symbol, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := f.Symbols()
	if err != nil {
		raw, err = f.DynamicSymbols()
		if err != nil {
			return nil, err
		}
	}
	return demangleSymbols(raw), nil
}

// demangleSymbols converts raw ELF symbol-table entries to Symbols,
// demangling names and dropping unnamed entries. Split out from
// Symbols so it's testable without a real ELF file on disk.
func demangleSymbols(raw []elf.Symbol) []Symbol {
	out := make([]Symbol, 0, len(raw))
	for _, s := range raw {
		if s.Name == "" {
			continue
		}
		out = append(out, Symbol{
			Name:        demangle.Filter(s.Name),
			MangledName: s.Name,
			Value:       s.Value,
			Size:        s.Size,
		})
	}
	return out
}

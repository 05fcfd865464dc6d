// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corefile

import "sort"

// SectionFlags describes the load-bearing properties of a Section.
type SectionFlags uint8

const (
	// SectionLoad marks a section as contributing to the inferior's
	// memory image (readable via the Memory Service).
	SectionLoad SectionFlags = 1 << iota

	// SectionWrite marks a loaded section as having been writeable
	// in the inferior.
	SectionWrite

	// SectionExec marks a loaded section as having been executable
	// in the inferior.
	SectionExec
)

// A Section is a named, sized, file-resident blob copied out of the
// container. Sections are value types: the session's SectionTable
// holds these records directly rather than back-pointers into the
// container, so the table outlives any one parse of the underlying
// file and there is nothing to invalidate on close beyond dropping the
// table itself. See DESIGN.md's note on cyclic structures.
type Section struct {
	Name       string
	VMA        Address
	Size       uint64
	FileOffset int64
	Flags      SectionFlags
}

func (s Section) end() Address { return s.VMA.Add(int64(s.Size)) }

// overlaps reports whether the VMA range [vma, vma+n) intersects s's
// range. Non-loadable sections (Flags&SectionLoad == 0) have no VMA
// range to overlap; this function only makes sense for those that do.
func (s Section) overlaps(vma Address, n int64) bool {
	return s.VMA < vma.Add(n) && vma < s.end()
}

// A SectionTable is an ordered sequence of sections with efficient
// lookup by name and by containing VMA range.
type SectionTable struct {
	all     []Section
	byName  map[string][]int // index into all, in insertion order
	byVMA   []int            // index into all, sorted by VMA; only entries with SectionLoad
}

// NewSectionTable builds a SectionTable from an unordered slice of
// sections, as produced by a container parser's section iterator.
func NewSectionTable(sections []Section) *SectionTable {
	t := &SectionTable{
		all:    append([]Section(nil), sections...),
		byName: make(map[string][]int, len(sections)),
	}
	for i, s := range t.all {
		t.byName[s.Name] = append(t.byName[s.Name], i)
		if s.Flags&SectionLoad != 0 {
			t.byVMA = append(t.byVMA, i)
		}
	}
	sort.Slice(t.byVMA, func(i, j int) bool {
		return t.all[t.byVMA[i]].VMA < t.all[t.byVMA[j]].VMA
	})
	return t
}

// All returns every section in the table, in container order.
func (t *SectionTable) All() []Section {
	return t.all
}

// ByName returns the exact-name match for name, if any. When a
// container somehow contains more than one section with the same
// name, the first is returned.
func (t *SectionTable) ByName(name string) (Section, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Section{}, false
	}
	return t.all[idx[0]], true
}

// HasPrefix returns every section whose name begins with prefix and
// is longer than it, in container order; a section named exactly
// prefix is not included.
func (t *SectionTable) HasPrefix(prefix string) []Section {
	var out []Section
	for _, s := range t.all {
		if len(s.Name) > len(prefix) && s.Name[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out
}

// AtVMA returns the loadable section, if any, whose range covers
// address a.
func (t *SectionTable) AtVMA(a Address) (Section, bool) {
	// Binary search for the rightmost section with VMA <= a.
	i := sort.Search(len(t.byVMA), func(i int) bool {
		return t.all[t.byVMA[i]].VMA > a
	})
	if i == 0 {
		return Section{}, false
	}
	s := t.all[t.byVMA[i-1]]
	if a < s.end() {
		return s, true
	}
	return Section{}, false
}

// Overlapping returns every loadable section overlapping [vma, vma+n),
// in ascending VMA order.
func (t *SectionTable) Overlapping(vma Address, n int64) []Section {
	var out []Section
	// byVMA is sorted by VMA; walk forward from the first candidate.
	i := sort.Search(len(t.byVMA), func(i int) bool {
		return t.all[t.byVMA[i]].end() > vma
	})
	for ; i < len(t.byVMA); i++ {
		s := t.all[t.byVMA[i]]
		if s.VMA >= vma.Add(n) {
			break
		}
		if s.overlaps(vma, n) {
			out = append(out, s)
		}
	}
	return out
}

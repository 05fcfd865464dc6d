// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scale buckets a core file's section sizes into a
// logarithmic histogram for `cmd/coredump -sizes`.
package scale

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
)

// SizeHistogram buckets a set of section sizes logarithmically and
// reports summary statistics, feeding `cmd/coredump -sizes`.
type SizeHistogram struct {
	Sample  stats.Sample
	buckets []float64
	counts  []int
}

// NewSizeHistogram builds a histogram over sizes. Sizes that are not
// strictly positive are dropped before bucketing, since a log scale
// can't include zero; if none remain (or sizes is empty) the
// histogram has no buckets.
func NewSizeHistogram(sizes []int64, nbuckets int) *SizeHistogram {
	xs := make([]float64, 0, len(sizes))
	for _, sz := range sizes {
		if sz > 0 {
			xs = append(xs, float64(sz))
		}
	}
	h := &SizeHistogram{Sample: stats.Sample{Xs: xs}}
	if len(xs) == 0 {
		return h
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	h.Sample.Sorted = true
	h.Sample.Xs = sorted

	if nbuckets < 1 {
		nbuckets = 1
	}
	if sorted[0] == sorted[len(sorted)-1] {
		// A single distinct size: one bucket, no log scale needed.
		h.buckets = []float64{sorted[0], sorted[0]}
		h.counts = []int{len(sorted)}
		return h
	}

	h.buckets = logBuckets(sorted[0], sorted[len(sorted)-1], nbuckets)
	h.counts = make([]int, nbuckets)
	for _, x := range sorted {
		i := sort.SearchFloat64s(h.buckets[1:], x)
		if i >= nbuckets {
			i = nbuckets - 1
		}
		h.counts[i]++
	}
	return h
}

// logBuckets returns n+1 log-spaced boundaries spanning [min, max].
// NewSizeHistogram counts a value in bucket i when it lies in
// (boundary[i], boundary[i+1]]; the first bucket also holds min.
// min and max must be distinct and strictly positive.
func logBuckets(min, max float64, n int) []float64 {
	logMin, logMax := math.Log(min), math.Log(max)
	step := (logMax - logMin) / float64(n)
	out := make([]float64, n+1)
	for i := range out {
		out[i] = math.Exp(logMin + float64(i)*step)
	}
	return out
}

// Buckets returns the bucket boundaries and per-bucket counts.
func (h *SizeHistogram) Buckets() (boundaries []float64, counts []int) {
	return h.buckets, h.counts
}

// String renders an ASCII-art bar chart of the histogram, in the
// style of the teacher's command-line summaries.
func (h *SizeHistogram) String() string {
	if len(h.counts) == 0 {
		return "(no sections)"
	}
	max := 0
	for _, c := range h.counts {
		if c > max {
			max = c
		}
	}
	var b strings.Builder
	for i, c := range h.counts {
		width := 0
		if max > 0 {
			width = c * 40 / max
		}
		fmt.Fprintf(&b, "%10d - %-10d | %s %d\n",
			int64(h.buckets[i]), int64(h.buckets[i+1]), strings.Repeat("#", width), c)
	}
	fmt.Fprintf(&b, "mean=%.0f stddev=%.0f\n", h.Sample.Mean(), h.Sample.StdDev())
	return b.String()
}

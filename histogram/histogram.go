// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package histogram implements an integer-valued frequency histogram,
// grounded on Common/Histogram.h: k-mer coverage is aggregated into one of
// these (C7) and used to pick default erosion/coverage cutoffs.
package histogram

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// smoothing is the number of consecutive bins above the current minimum
// that FirstLocalMinimum requires before accepting that minimum, matching
// Histogram.h's SMOOTHING constant.
const smoothing = 4

// Histogram counts occurrences of integer values.
type Histogram struct {
	counts map[int]uint64
}

// New returns an empty histogram.
func New() *Histogram {
	return &Histogram{counts: make(map[int]uint64)}
}

// Insert adds one occurrence of value.
func (h *Histogram) Insert(value int) { h.InsertN(value, 1) }

// InsertN adds n occurrences of value, merging another histogram's bin
// when n came from Merge.
func (h *Histogram) InsertN(value int, n uint64) {
	if h.counts == nil {
		h.counts = make(map[int]uint64)
	}
	h.counts[value] += n
}

// Merge folds other's bins into h.
func (h *Histogram) Merge(other *Histogram) {
	for v, n := range other.counts {
		h.InsertN(v, n)
	}
}

// Count returns the number of occurrences recorded for value.
func (h *Histogram) Count(value int) uint64 { return h.counts[value] }

// Empty reports whether no values have been inserted.
func (h *Histogram) Empty() bool { return len(h.counts) == 0 }

func (h *Histogram) sortedKeys() []int {
	keys := make([]int, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Min returns the smallest recorded value, or 0 if empty.
func (h *Histogram) Min() int {
	keys := h.sortedKeys()
	if len(keys) == 0 {
		return 0
	}
	return keys[0]
}

// Max returns the largest recorded value, or 0 if empty.
func (h *Histogram) Max() int {
	keys := h.sortedKeys()
	if len(keys) == 0 {
		return 0
	}
	return keys[len(keys)-1]
}

// Size returns the total number of observations recorded.
func (h *Histogram) Size() uint64 {
	var n uint64
	for _, c := range h.counts {
		n += c
	}
	return n
}

// Mean returns the arithmetic mean of all recorded observations.
func (h *Histogram) Mean() float64 {
	var n, total uint64
	for v, c := range h.counts {
		n += c
		total += uint64(v) * c
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// Variance returns the population variance of the recorded observations.
func (h *Histogram) Variance() float64 {
	var n, total, squares uint64
	for v, c := range h.counts {
		n += c
		total += uint64(v) * c
		squares += uint64(v*v) * c
	}
	if n == 0 {
		return 0
	}
	return (float64(squares) - float64(total)*float64(total)/float64(n)) / float64(n)
}

// StdDev returns the population standard deviation.
func (h *Histogram) StdDev() float64 { return math.Sqrt(h.Variance()) }

// FirstLocalMinimum scans values in ascending order and returns the first
// one whose bin count is followed by `smoothing` consecutive bins with a
// strictly larger count (a later bin with an equal or smaller count
// becomes the new candidate) — the heuristic ABySS uses to separate
// erroneous low-coverage k-mer from true genomic coverage. Returns 0 if
// the histogram is empty. Grounded on Histogram::firstLocalMinimum.
func (h *Histogram) FirstLocalMinimum() int {
	keys := h.sortedKeys()
	if len(keys) == 0 {
		return 0
	}
	minKey := keys[0]
	minCount := h.counts[minKey]
	run := 0
	for _, k := range keys {
		c := h.counts[k]
		if c <= minCount {
			minKey, minCount = k, c
			run = 0
		} else {
			run++
			if run >= smoothing {
				break
			}
		}
	}
	return minKey
}

// WriteTo writes the histogram as tab-separated "value\tcount" lines in
// ascending value order, matching Histogram.h's operator<<.
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range h.sortedKeys() {
		n, err := fmt.Fprintf(w, "%d\t%d\n", k, h.counts[k])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

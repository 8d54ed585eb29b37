//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package annot

import (
	"sort"

	"github.com/biogo/store/interval"

	"github.com/functionalgenomics/gDNAx/lib/ebam"
)

// Region is one annotated genomic interval, 0-based half-open [Start,End).
// Strand 0 marks a strandless region (e.g. intergenic space).
type Region struct {
	Chrom      string
	Start, End int
	Strand     int8
	Gene       string
}

// Set is an immutable collection of regions, searchable by chromosome and
// strand. Build it once with BuildSet; it is safe for concurrent readers.
type Set struct {
	trees map[string]map[int8]*interval.IntTree
}

// BuildSet builds a set of regions: each region is added to the tree of its
// chromosome and strand. Strandless regions are added to both strand trees
// under a single UID so strand-agnostic queries see them once.
func BuildSet(regions []Region) (s *Set, err error) {
	s = &Set{trees: make(map[string]map[int8]*interval.IntTree)}
	icoord := 0
	for _, reg := range regions {
		// New trees for unseen chromosome
		if _, ok := s.trees[reg.Chrom]; !ok {
			s.trees[reg.Chrom] = make(map[int8]*interval.IntTree)
			s.trees[reg.Chrom][1] = &interval.IntTree{}
			s.trees[reg.Chrom][-1] = &interval.IntTree{}
		}
		iv := IntInterval{Start: reg.Start, End: reg.End, UID: uintptr(icoord), Gene: reg.Gene, TxIdx: -1}
		var strands []int8
		if reg.Strand == 0 {
			strands = []int8{-1, 1}
		} else {
			strands = []int8{reg.Strand}
		}
		for _, strand := range strands {
			err = s.trees[reg.Chrom][strand].Insert(iv, false)
			if err != nil {
				return
			}
		}
		icoord++
	}
	for k := range s.trees {
		s.trees[k][1].AdjustRanges()
		s.trees[k][-1].AdjustRanges()
	}
	return
}

// get returns the set members overlapping [start,end) on any of the
// requested strands, deduplicated and sorted by start coordinate.
func (s *Set) get(chrom string, strands []int8, start, end int) []IntInterval {
	trees, ok := s.trees[chrom]
	if !ok {
		return nil
	}
	probe := IntInterval{Start: start, End: end}
	var ivs []IntInterval
	seen := make(map[uintptr]bool)
	for _, strand := range strands {
		for _, hit := range trees[strand].Get(probe) {
			iv := hit.(IntInterval)
			if seen[iv.UID] {
				continue
			}
			seen[iv.UID] = true
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	return ivs
}

// Overlaps reports whether any set member overlaps [start,end) on any of
// the requested strands.
func (s *Set) Overlaps(chrom string, strands []int8, start, end int) bool {
	trees, ok := s.trees[chrom]
	if !ok {
		return false
	}
	probe := IntInterval{Start: start, End: end}
	for _, strand := range strands {
		if len(trees[strand].Get(probe)) > 0 {
			return true
		}
	}
	return false
}

// covered walks intervals sorted by start and reports whether their union
// covers the whole block. Genomically adjacent members count as one.
func covered(b ebam.Block, ivs []IntInterval) bool {
	pos := b.Start
	for _, iv := range ivs {
		if iv.Start > pos {
			return false
		}
		if iv.End > pos {
			pos = iv.End
		}
		if pos >= b.End {
			return true
		}
	}
	return pos >= b.End
}

// ContainsBlocks reports whether every block lies entirely within a set
// member (or a union of adjacent members). A block straddling a boundary
// into unannotated space is not contained.
func (s *Set) ContainsBlocks(chrom string, strands []int8, blocks []ebam.Block) bool {
	for _, b := range blocks {
		if !covered(b, s.get(chrom, strands, b.Start, b.End)) {
			return false
		}
	}
	return true
}

// CoveringGenes returns the genes whose members fully contain the block,
// merging adjacent members of the same gene.
func (s *Set) CoveringGenes(chrom string, strands []int8, b ebam.Block) []string {
	ivs := s.get(chrom, strands, b.Start, b.End)
	byGene := make(map[string][]IntInterval)
	var order []string
	for _, iv := range ivs {
		if _, ok := byGene[iv.Gene]; !ok {
			order = append(order, iv.Gene)
		}
		byGene[iv.Gene] = append(byGene[iv.Gene], iv)
	}
	var genes []string
	for _, gene := range order {
		if covered(b, byGene[gene]) {
			genes = append(genes, gene)
		}
	}
	return genes
}

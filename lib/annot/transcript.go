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

// Exon is one exon interval, 0-based half-open [Start,End).
type Exon struct {
	Start, End int
}

// Junction is one exon-exon junction: DonorEnd is the end of the upstream
// exon, AcceptorStart the start of the downstream exon (genomic order).
type Junction struct {
	DonorEnd, AcceptorStart int
}

// Transcript is the exon structure of one transcript with its gene identity.
type Transcript struct {
	Name   string
	Gene   string
	Chrom  string
	Strand int8
	Exons  []Exon

	junctions []Junction
	// Exons merged over zero-length introns, for gapless containment tests.
	merged []Exon
}

// NewTranscript builds a transcript model from its exons. Exons are sorted
// by start coordinate; junctions are derived between consecutive exons.
func NewTranscript(name, gene, chrom string, strand int8, exons []Exon) *Transcript {
	t := &Transcript{Name: name, Gene: gene, Chrom: chrom, Strand: strand, Exons: exons}
	sort.Slice(t.Exons, func(i, j int) bool { return t.Exons[i].Start < t.Exons[j].Start })
	for i := 1; i < len(t.Exons); i++ {
		t.junctions = append(t.junctions, Junction{DonorEnd: t.Exons[i-1].End, AcceptorStart: t.Exons[i].Start})
	}
	for _, ex := range t.Exons {
		n := len(t.merged)
		if n > 0 && ex.Start <= t.merged[n-1].End {
			if ex.End > t.merged[n-1].End {
				t.merged[n-1].End = ex.End
			}
		} else {
			t.merged = append(t.merged, ex)
		}
	}
	return t
}

// Junctions returns the derived junction list in genomic order.
func (t *Transcript) Junctions() []Junction {
	return t.junctions
}

// Span returns the outer coordinates of the transcript exons.
func (t *Transcript) Span() (start, end int) {
	return t.Exons[0].Start, t.Exons[len(t.Exons)-1].End
}

// MatchesJunctions reports whether every gap equals a transcript junction
// exactly. Approximate matches are rejected.
func (t *Transcript) MatchesJunctions(gaps []ebam.Gap) bool {
	if len(gaps) == 0 {
		return false
	}
	for _, g := range gaps {
		found := false
		for _, j := range t.junctions {
			if j.DonorEnd == g.Start && j.AcceptorStart == g.End {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// WithinExons reports whether every block lies entirely within a single
// exon of the transcript. Exons joined by a zero-length intron count as one.
func (t *Transcript) WithinExons(blocks []ebam.Block) bool {
	for _, b := range blocks {
		inside := false
		for _, ex := range t.merged {
			if b.Start >= ex.Start && b.End <= ex.End {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

// TxSet indexes transcripts by the genomic span of their exon chain.
// Build it once with BuildTxSet; it is safe for concurrent readers.
type TxSet struct {
	txs   []*Transcript
	trees map[string]map[int8]*interval.IntTree
}

// BuildTxSet builds a searchable set from transcript models.
func BuildTxSet(txs []*Transcript) (ts *TxSet, err error) {
	ts = &TxSet{txs: txs, trees: make(map[string]map[int8]*interval.IntTree)}
	for i, t := range txs {
		if _, ok := ts.trees[t.Chrom]; !ok {
			ts.trees[t.Chrom] = make(map[int8]*interval.IntTree)
			ts.trees[t.Chrom][1] = &interval.IntTree{}
			ts.trees[t.Chrom][-1] = &interval.IntTree{}
		}
		start, end := t.Span()
		iv := IntInterval{Start: start, End: end, UID: uintptr(i), Gene: t.Gene, TxIdx: i}
		var strands []int8
		if t.Strand == 0 {
			strands = []int8{-1, 1}
		} else {
			strands = []int8{t.Strand}
		}
		for _, strand := range strands {
			err = ts.trees[t.Chrom][strand].Insert(iv, false)
			if err != nil {
				return
			}
		}
	}
	for k := range ts.trees {
		ts.trees[k][1].AdjustRanges()
		ts.trees[k][-1].AdjustRanges()
	}
	return
}

// Overlapping returns the transcripts whose exon span overlaps [start,end)
// on any of the requested strands.
func (ts *TxSet) Overlapping(chrom string, strands []int8, start, end int) []*Transcript {
	trees, ok := ts.trees[chrom]
	if !ok {
		return nil
	}
	probe := IntInterval{Start: start, End: end}
	var txs []*Transcript
	seen := make(map[int]bool)
	for _, strand := range strands {
		for _, hit := range trees[strand].Get(probe) {
			iv := hit.(IntInterval)
			if seen[iv.TxIdx] {
				continue
			}
			seen[iv.TxIdx] = true
			txs = append(txs, ts.txs[iv.TxIdx])
		}
	}
	return txs
}

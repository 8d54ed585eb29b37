//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package classify

import (
	"github.com/functionalgenomics/gDNAx/lib/ebam"
)

// spliceCompat evaluates splice compatibility of a read or mate pair
// against every transcript overlapping its span.
//
// A mate with internal gaps is junction-compatible with a transcript when
// every gap equals a transcript junction exactly; the pair is SCJ when any
// mate is junction-compatible with any transcript. A gapless mate is
// exonic-compatible when every block lies within a single exon; the pair
// is SCE when no mate is SCJ and all mates are exonic-compatible with
// transcripts of one consistent gene. Compatibility with any transcript of
// any gene marks the bit (union policy); multiple transcripts of one gene
// count once.
func (c *Classifier) spliceCompat(chrom string, strands []int8, blocksPerRead [][]ebam.Block) (scj, sce bool) {
	var allBlocks []ebam.Block
	for _, blocks := range blocksPerRead {
		allBlocks = append(allBlocks, blocks...)
	}
	start, end := ebam.Span(allBlocks)
	candidates := c.txs.Overlapping(chrom, strands, start, end)
	if len(candidates) == 0 {
		return false, false
	}

	fullMates := 0
	for i := range blocksPerRead {
		fullMates |= 1 << i
	}
	// Gene -> bitmask of exonic-compatible mates.
	exonicMates := make(map[string]int)
	for _, t := range candidates {
		for i, blocks := range blocksPerRead {
			gaps := ebam.Gaps(blocks)
			if len(gaps) > 0 {
				if t.MatchesJunctions(gaps) {
					scj = true
				}
			} else if t.WithinExons(blocks) {
				exonicMates[t.Gene] |= 1 << i
			}
		}
	}
	if !scj {
		for _, mates := range exonicMates {
			if mates == fullMates {
				sce = true
				break
			}
		}
	}
	return scj, sce
}

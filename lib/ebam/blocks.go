//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package ebam

import (
	"fmt"

	"github.com/biogo/hts/sam"
)

// Block is one contiguous aligned segment of a read on the reference,
// 0-based half-open [Start,End).
type Block struct {
	Start, End int
}

// Gap is the reference region skipped between two consecutive blocks,
// 0-based half-open [Start,End). For a spliced read, Start is the donor
// end and End is the acceptor start of the intron implied by the read.
type Gap struct {
	Start, End int
}

// Blocks reconstructs the aligned blocks of the record from its CIGAR.
// Consecutive blocks are separated by skipped regions (CIGAR N operations).
// Deletions and matches extend the current block; insertions and clips do not.
func Blocks(r *sam.Record) []Block {
	blocks := make([]Block, 0, 2)
	start := r.Pos
	end := r.Pos
	for _, co := range r.Cigar {
		t := co.Type()
		if t == sam.CigarSkipped {
			blocks = append(blocks, Block{Start: start, End: end})
			start = end + co.Len()
			end = start
			continue
		}
		con := t.Consumes()
		end += co.Len() * con.Reference
	}
	blocks = append(blocks, Block{Start: start, End: end})
	return blocks
}

// Gaps returns the skipped regions between consecutive blocks.
func Gaps(blocks []Block) []Gap {
	if len(blocks) < 2 {
		return nil
	}
	gaps := make([]Gap, 0, len(blocks)-1)
	for i := 1; i < len(blocks); i++ {
		gaps = append(gaps, Gap{Start: blocks[i-1].End, End: blocks[i].Start})
	}
	return gaps
}

// Span returns the outer coordinates covered by blocks.
func Span(blocks []Block) (start, end int) {
	start = blocks[0].Start
	end = blocks[len(blocks)-1].End
	for _, b := range blocks {
		if b.Start < start {
			start = b.Start
		}
		if b.End > end {
			end = b.End
		}
	}
	return start, end
}

// CheckBlocks verifies that the number of reconstructed blocks matches the
// number of skipped operations in the record CIGAR. A mismatch indicates a
// reconstruction bug, not recoverable input.
func CheckBlocks(r *sam.Record, blocks []Block) error {
	var nSkip int
	for _, co := range r.Cigar {
		if co.Type() == sam.CigarSkipped {
			nSkip++
		}
	}
	if len(blocks) != nSkip+1 {
		return fmt.Errorf("ebam: %s: %d block(s) reconstructed from %d skip(s)", r.Name, len(blocks), nSkip)
	}
	return nil
}

// FragmentLength estimates the fragment length as the distance spanned by
// the outer coordinates of the read(s) blocks. All reads must be on the
// same reference.
func FragmentLength(blocksPerRead [][]Block) int {
	var start, end int
	for i, blocks := range blocksPerRead {
		s, e := Span(blocks)
		if i == 0 || s < start {
			start = s
		}
		if i == 0 || e > end {
			end = e
		}
	}
	return end - start
}

//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package classify

import (
	"errors"

	"github.com/biogo/hts/sam"
	"gopkg.in/fatih/set.v0"

	"github.com/functionalgenomics/gDNAx/lib/annot"
	"github.com/functionalgenomics/gDNAx/lib/ebam"
)

// Config selects the requested categories and the library geometry.
type Config struct {
	// Categories to evaluate; at least one must be set.
	Categories Category
	// Pair-end sequencing.
	Paired bool
	// Strand of read 1: +1, -1, or 0 for an unstranded library.
	LibraryR1Strand int8
	// Allow-list of standard chromosomes; nil disables the restriction.
	StandardChroms set.Interface
}

// Result is the outcome of classifying one alignment or mate pair.
type Result struct {
	Mask Category
	// Distance spanned by the outer block coordinates of the fragment.
	FragmentLength int
	// Alignment on a chromosome outside the allow-list; no category
	// evaluated.
	NonStandardChrom bool
}

// Classifier decides the category bitmask of alignments against an
// annotation. It is read-only after construction and safe for concurrent
// use.
type Classifier struct {
	cfg        Config
	intergenic *annot.Set
	intronic   *annot.Set
	txs        *annot.TxSet
}

// New returns a classifier for the given annotation tables. Requesting no
// category is a configuration error.
func New(cfg Config, intergenic, intronic *annot.Set, txs *annot.TxSet) (*Classifier, error) {
	if cfg.Categories == 0 {
		return nil, errors.New("classify: no category requested")
	}
	return &Classifier{cfg: cfg, intergenic: intergenic, intronic: intronic, txs: txs}, nil
}

// Categories returns the requested category bitmask.
func (c *Classifier) Categories() Category {
	return c.cfg.Categories
}

// readStrands returns the annotation strands compatible with a read pair,
// corrected for library strand. Read strand is the strand of read 1.
func readStrands(libraryR1Strand, apairR1Strand int8) []int8 {
	if libraryR1Strand == 0 {
		return []int8{-1, 1}
	} else if libraryR1Strand == 1 {
		return []int8{apairR1Strand}
	}
	return []int8{apairR1Strand * -1}
}

var bothStrands = []int8{-1, 1}

// Classify evaluates every requested category on one alignment (or mate
// pair, read 1 first) and returns the category bitmask and fragment length
// estimate. Classification is a pure function of its inputs.
func (c *Classifier) Classify(areads []*sam.Record) (res Result, err error) {
	chrom := areads[0].Ref.Name()
	if c.cfg.StandardChroms != nil && !c.cfg.StandardChroms.Has(chrom) {
		res.NonStandardChrom = true
		return
	}

	blocksPerRead := make([][]ebam.Block, len(areads))
	var allBlocks []ebam.Block
	var nGap int
	for i, aread := range areads {
		blocks := ebam.Blocks(aread)
		if err = ebam.CheckBlocks(aread, blocks); err != nil {
			return
		}
		blocksPerRead[i] = blocks
		allBlocks = append(allBlocks, blocks...)
		nGap += len(blocks) - 1
	}
	res.FragmentLength = ebam.FragmentLength(blocksPerRead)

	strands := readStrands(c.cfg.LibraryR1Strand, areads[0].Strand())

	// Categories are independent: every requested one is evaluated.
	if c.cfg.Categories.Has(Intergenic) {
		// Intergenic space is strandless.
		if c.intergenic.ContainsBlocks(chrom, bothStrands, allBlocks) {
			res.Mask |= Intergenic
		}
	}
	if c.cfg.Categories.Has(Intronic) && nGap == 0 {
		// Spliced reads are routed to the splice classifiers instead.
		if c.intronicConsistent(chrom, strands, allBlocks) {
			res.Mask |= Intronic
		}
	}
	if c.cfg.Categories&(SpliceCompatibleJunction|SpliceCompatibleExonic) != 0 {
		scj, sce := c.spliceCompat(chrom, strands, blocksPerRead)
		if c.cfg.Categories.Has(SpliceCompatibleJunction) && scj {
			res.Mask |= SpliceCompatibleJunction
		}
		if c.cfg.Categories.Has(SpliceCompatibleExonic) && sce {
			res.Mask |= SpliceCompatibleExonic
		}
	}
	return
}

// intronicConsistent reports whether every block is contained in intronic
// intervals of one consistent gene.
func (c *Classifier) intronicConsistent(chrom string, strands []int8, blocks []ebam.Block) bool {
	var common map[string]bool
	for i, b := range blocks {
		genes := c.intronic.CoveringGenes(chrom, strands, b)
		if len(genes) == 0 {
			return false
		}
		if i == 0 {
			common = make(map[string]bool, len(genes))
			for _, g := range genes {
				common[g] = true
			}
			continue
		}
		next := make(map[string]bool, len(genes))
		for _, g := range genes {
			if common[g] {
				next[g] = true
			}
		}
		common = next
		if len(common) == 0 {
			return false
		}
	}
	return len(common) > 0
}

//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package classify

import (
	"testing"

	"github.com/biogo/hts/sam"
	qt "github.com/frankban/quicktest"
	"gopkg.in/fatih/set.v0"

	"github.com/functionalgenomics/gDNAx/lib/annot"
)

const allCategories = Intergenic | Intronic | SpliceCompatibleJunction | SpliceCompatibleExonic

var (
	testChr1, _ = sam.NewReference("chr1", "", "", 1000000, nil, nil)
	testChrU, _ = sam.NewReference("chrU_random", "", "", 1000, nil, nil)
)

// testAnnot builds the fixture annotation:
//
//	t1/g1 +: exon [900,1100)
//	t2/g2 +: exons [1000,1050) [1200,1300), junction (1050,1200)
//	t3/g3 -: exon [1600,1700)
//	introns: g2 [1050,1200) +, g4 [2000,3000) +
//	intergenic: [5000,6000)
func testAnnot(c *qt.C) (*annot.Set, *annot.Set, *annot.TxSet) {
	txs, err := annot.BuildTxSet([]*annot.Transcript{
		annot.NewTranscript("t1", "g1", "chr1", 1, []annot.Exon{{Start: 900, End: 1100}}),
		annot.NewTranscript("t2", "g2", "chr1", 1, []annot.Exon{{Start: 1000, End: 1050}, {Start: 1200, End: 1300}}),
		annot.NewTranscript("t3", "g3", "chr1", -1, []annot.Exon{{Start: 1600, End: 1700}}),
	})
	c.Assert(err, qt.IsNil)
	introns, err := annot.BuildSet([]annot.Region{
		{Chrom: "chr1", Start: 1050, End: 1200, Strand: 1, Gene: "g2"},
		{Chrom: "chr1", Start: 2000, End: 3000, Strand: 1, Gene: "g4"},
	})
	c.Assert(err, qt.IsNil)
	intergenic, err := annot.BuildSet([]annot.Region{
		{Chrom: "chr1", Start: 5000, End: 6000},
	})
	c.Assert(err, qt.IsNil)
	return intergenic, introns, txs
}

func newTestClassifier(c *qt.C, cfg Config) *Classifier {
	intergenic, introns, txs := testAnnot(c)
	clf, err := New(cfg, intergenic, introns, txs)
	c.Assert(err, qt.IsNil)
	return clf
}

func aread(ref *sam.Reference, pos int, flags sam.Flags, cigar ...sam.CigarOp) *sam.Record {
	return &sam.Record{Name: "read", Ref: ref, Pos: pos, Flags: flags, Cigar: cigar}
}

func TestNoCategoryIsConfigError(t *testing.T) {
	c := qt.New(t)
	intergenic, introns, txs := testAnnot(c)
	_, err := New(Config{}, intergenic, introns, txs)
	c.Assert(err, qt.ErrorMatches, "classify: no category requested")
}

func TestClassifyExonic(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	// Single block [1000,1100) inside the single exon of t1.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 1000, 0, sam.NewCigarOp(sam.CigarMatch, 100))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleExonic)
	c.Assert(res.FragmentLength, qt.Equals, 100)
}

func TestClassifyJunction(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	// Gap (1050,1200) matches the t2 junction exactly.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 1000, 0,
		sam.NewCigarOp(sam.CigarMatch, 50),
		sam.NewCigarOp(sam.CigarSkipped, 150),
		sam.NewCigarOp(sam.CigarMatch, 50))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleJunction)
}

func TestClassifyJunctionApproximateRejected(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	// Gap (1051,1200) is one base off the t2 junction.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 1000, 0,
		sam.NewCigarOp(sam.CigarMatch, 51),
		sam.NewCigarOp(sam.CigarSkipped, 149),
		sam.NewCigarOp(sam.CigarMatch, 50))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestClassifyIntronic(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 2100, 0, sam.NewCigarOp(sam.CigarMatch, 50))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Intronic)
}

func TestClassifyIntronicRejectsSplicedRead(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	// Both blocks inside the g4 intron, but the splice gap routes the
	// read away from the intronic category.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 2100, 0,
		sam.NewCigarOp(sam.CigarMatch, 50),
		sam.NewCigarOp(sam.CigarSkipped, 100),
		sam.NewCigarOp(sam.CigarMatch, 50))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestClassifyIntergenic(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 5500, 0, sam.NewCigarOp(sam.CigarMatch, 100))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Intergenic)
}

func TestClassifyIntergenicInclusiveBoundary(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	// Block end equals the intergenic region end: contained.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 5900, 0, sam.NewCigarOp(sam.CigarMatch, 100))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Intergenic)
	// One base further: not contained.
	res, err = clf.Classify([]*sam.Record{aread(testChr1, 5901, 0, sam.NewCigarOp(sam.CigarMatch, 100))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestClassifyStrandMode(t *testing.T) {
	c := qt.New(t)
	forward := aread(testChr1, 1000, 0, sam.NewCigarOp(sam.CigarMatch, 100))
	reverse := aread(testChr1, 1000, sam.Reverse, sam.NewCigarOp(sam.CigarMatch, 100))

	// Stranded, read 1 on the coding strand: only the forward read is
	// compatible with t1 (+).
	clf := newTestClassifier(c, Config{Categories: allCategories, LibraryR1Strand: 1})
	res, err := clf.Classify([]*sam.Record{forward})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleExonic)
	res, err = clf.Classify([]*sam.Record{reverse})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))

	// Reverse library orientation flips the compatible strand.
	clf = newTestClassifier(c, Config{Categories: allCategories, LibraryR1Strand: -1})
	res, err = clf.Classify([]*sam.Record{reverse})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleExonic)

	// Unstranded: strand never rejects compatibility.
	clf = newTestClassifier(c, Config{Categories: allCategories})
	res, err = clf.Classify([]*sam.Record{reverse})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleExonic)
}

func TestClassifyPairedExonic(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories, Paired: true})
	r1 := aread(testChr1, 950, sam.Paired|sam.Read1, sam.NewCigarOp(sam.CigarMatch, 50))
	r2 := aread(testChr1, 1020, sam.Paired|sam.Read2|sam.Reverse, sam.NewCigarOp(sam.CigarMatch, 50))
	res, err := clf.Classify([]*sam.Record{r1, r2})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleExonic)
	// Outer coordinates of the pair.
	c.Assert(res.FragmentLength, qt.Equals, 120)
}

func TestClassifyPairedJunctionWins(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories, Paired: true})
	// Read 1 crosses the t2 junction, read 2 is exonic in t2.
	r1 := aread(testChr1, 1000, sam.Paired|sam.Read1,
		sam.NewCigarOp(sam.CigarMatch, 50),
		sam.NewCigarOp(sam.CigarSkipped, 150),
		sam.NewCigarOp(sam.CigarMatch, 50))
	r2 := aread(testChr1, 1210, sam.Paired|sam.Read2|sam.Reverse, sam.NewCigarOp(sam.CigarMatch, 50))
	res, err := clf.Classify([]*sam.Record{r1, r2})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, SpliceCompatibleJunction)
}

func TestClassifyPairedGeneConsistency(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories, Paired: true})
	// Mates exonic in transcripts of different genes (g1 and g3): no SCE.
	r1 := aread(testChr1, 950, sam.Paired|sam.Read1, sam.NewCigarOp(sam.CigarMatch, 50))
	r2 := aread(testChr1, 1620, sam.Paired|sam.Read2|sam.Reverse, sam.NewCigarOp(sam.CigarMatch, 50))
	res, err := clf.Classify([]*sam.Record{r1, r2})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestClassifyNonStandardChrom(t *testing.T) {
	c := qt.New(t)
	standard := set.New(set.NonThreadSafe)
	standard.Add("chr1")
	clf := newTestClassifier(c, Config{Categories: allCategories, StandardChroms: standard})
	res, err := clf.Classify([]*sam.Record{aread(testChrU, 100, 0, sam.NewCigarOp(sam.CigarMatch, 50))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.NonStandardChrom, qt.IsTrue)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestClassifyIdempotent(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: allCategories})
	r := aread(testChr1, 1000, 0,
		sam.NewCigarOp(sam.CigarMatch, 50),
		sam.NewCigarOp(sam.CigarSkipped, 150),
		sam.NewCigarOp(sam.CigarMatch, 50))
	res1, err := clf.Classify([]*sam.Record{r})
	c.Assert(err, qt.IsNil)
	res2, err := clf.Classify([]*sam.Record{r})
	c.Assert(err, qt.IsNil)
	c.Assert(res1, qt.Equals, res2)
}

func TestClassifyOnlyRequestedCategories(t *testing.T) {
	c := qt.New(t)
	clf := newTestClassifier(c, Config{Categories: Intergenic})
	// An exonic read gains no bit when only intergenic is requested.
	res, err := clf.Classify([]*sam.Record{aread(testChr1, 1000, 0, sam.NewCigarOp(sam.CigarMatch, 100))})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Mask, qt.Equals, Category(0))
}

func TestCategoryCodes(t *testing.T) {
	c := qt.New(t)
	c.Assert((Intergenic | SpliceCompatibleJunction).Codes(), qt.Equals, "IGCSCJ")
	c.Assert(allCategories.Codes(), qt.Equals, "IGCINTSCJSCE")
	c.Assert(Category(0).Codes(), qt.Equals, "")
	c.Assert(allCategories.Has(Intronic), qt.IsTrue)
	c.Assert(Intergenic.Has(Intronic), qt.IsFalse)

	cat, err := ParseCategory("SCE")
	c.Assert(err, qt.IsNil)
	c.Assert(cat, qt.Equals, SpliceCompatibleExonic)
	_, err = ParseCategory("XXX")
	c.Assert(err, qt.ErrorMatches, `classify: unknown category "XXX"`)
}

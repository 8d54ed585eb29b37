//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package filterbam

import (
	"github.com/functionalgenomics/gDNAx/lib/classify"
)

// Stats is the per-file running accumulator. Each driver owns exactly one
// Stats value; rows from several files merge with Merge.
type Stats struct {
	Path string
	// Total alignments classified.
	NAln uint64
	// Per-category counts.
	NIGC, NINT, NSCJ, NSCE uint64
	// Alignments discarded for a non-standard chromosome.
	NNCH uint64

	fragLenSum uint64
	fragLenN   uint64
}

// Add records one classification result.
func (s *Stats) Add(res classify.Result) {
	if res.NonStandardChrom {
		s.NNCH++
		return
	}
	s.NAln++
	if res.Mask.Has(classify.Intergenic) {
		s.NIGC++
	}
	if res.Mask.Has(classify.Intronic) {
		s.NINT++
	}
	if res.Mask.Has(classify.SpliceCompatibleJunction) {
		s.NSCJ++
	}
	if res.Mask.Has(classify.SpliceCompatibleExonic) {
		s.NSCE++
	}
	if res.Mask != 0 && res.FragmentLength > 0 {
		s.fragLenSum += uint64(res.FragmentLength)
		s.fragLenN++
	}
}

// Merge folds another row into s. The path of the merged row is kept only
// when s has none.
func (s *Stats) Merge(o Stats) {
	if s.Path == "" {
		s.Path = o.Path
	}
	s.NAln += o.NAln
	s.NIGC += o.NIGC
	s.NINT += o.NINT
	s.NSCJ += o.NSCJ
	s.NSCE += o.NSCE
	s.NNCH += o.NNCH
	s.fragLenSum += o.fragLenSum
	s.fragLenN += o.fragLenN
}

// MeanFragmentLength returns the mean fragment length estimate of the
// classified alignments, or 0 when none was recorded.
func (s *Stats) MeanFragmentLength() float64 {
	if s.fragLenN == 0 {
		return 0
	}
	return float64(s.fragLenSum) / float64(s.fragLenN)
}

//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/functionalgenomics/gDNAx/lib/classify"
	"github.com/functionalgenomics/gDNAx/lib/filterbam"
)

// countCell formats a per-category count, with NA for categories that were
// not requested.
func countCell(n uint64, cat, requested classify.Category) string {
	if !requested.Has(cat) {
		return "NA"
	}
	return strconv.FormatUint(n, 10)
}

// WriteCounts writes one tabulated row per input file with the total,
// per-category and non-standard-chromosome counts.
func WriteCounts(pathCounts string, results []filterbam.FileResult, requested classify.Category) (err error) {
	f, err := os.Create(pathCounts)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "file\tNALN\tNIGC\tNINT\tNSCJ\tNSCE\tNNCH")
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		s := res.Stats
		if _, err = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%d\n", s.Path, s.NAln,
			countCell(s.NIGC, classify.Intergenic, requested),
			countCell(s.NINT, classify.Intronic, requested),
			countCell(s.NSCJ, classify.SpliceCompatibleJunction, requested),
			countCell(s.NSCE, classify.SpliceCompatibleExonic, requested),
			s.NNCH); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteReport writes a JSON report of the batch (stdout with "-").
func WriteReport(pathReport string, results []filterbam.FileResult, requested classify.Category) (err error) {
	type fileReport struct {
		File     string  `json:"file"`
		NAln     uint64  `json:"NALN"`
		NIGC     *uint64 `json:"NIGC"`
		NINT     *uint64 `json:"NINT"`
		NSCJ     *uint64 `json:"NSCJ"`
		NSCE     *uint64 `json:"NSCE"`
		NNCH     uint64  `json:"NNCH"`
		FragMean float64 `json:"fragment_length_mean"`
		Error    string  `json:"error,omitempty"`
	}
	cell := func(n uint64, cat classify.Category) *uint64 {
		if !requested.Has(cat) {
			return nil
		}
		return &n
	}
	var report []fileReport
	for _, res := range results {
		s := res.Stats
		fr := fileReport{
			File:     s.Path,
			NAln:     s.NAln,
			NIGC:     cell(s.NIGC, classify.Intergenic),
			NINT:     cell(s.NINT, classify.Intronic),
			NSCJ:     cell(s.NSCJ, classify.SpliceCompatibleJunction),
			NSCE:     cell(s.NSCE, classify.SpliceCompatibleExonic),
			NNCH:     s.NNCH,
			FragMean: s.MeanFragmentLength(),
		}
		if res.Err != nil {
			fr.Error = res.Err.Error()
		}
		report = append(report, fr)
	}
	raw, _ := json.MarshalIndent(report, "", "  ")
	if pathReport != "-" {
		if f, err := os.Create(pathReport); err != nil {
			return err
		} else {
			f.Write(raw)
			f.Close()
		}
	} else {
		fmt.Println(string(raw))
	}
	return nil
}

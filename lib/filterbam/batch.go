//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package filterbam

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/functionalgenomics/gDNAx/lib/classify"
	"github.com/functionalgenomics/gDNAx/lib/ebam"
)

// FileResult is the outcome of filtering one input file.
type FileResult struct {
	Stats Stats
	Err   error
}

// RunBatch filters every input file with its own driver, dispatching up to
// nWorker files in parallel. The classifier and its annotation are shared
// read-only. A failing file does not abort its siblings; its error is
// reported in its result. The returned error covers batch-level
// configuration problems only, detected before any file is opened.
func RunBatch(clf *classify.Classifier, pathBAMs []ebam.PathBAM, opts Options, nWorker int) ([]FileResult, error) {
	if len(pathBAMs) == 0 {
		return nil, fmt.Errorf("filterbam: no BAM input")
	}
	if info, err := os.Stat(opts.OutDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("filterbam: output directory %s not found", opts.OutDir)
	}
	if nWorker < 1 {
		nWorker = 1
	}
	if opts.Progress == nil {
		var progress uint64
		opts.Progress = &progress
	}

	results := make([]FileResult, len(pathBAMs))
	var g errgroup.Group
	g.SetLimit(nWorker)
	for i, pathBAM := range pathBAMs {
		i, pathBAM := i, pathBAM
		g.Go(func() error {
			stats, err := Filter(clf, pathBAM, opts)
			results[i] = FileResult{Stats: stats, Err: err}
			return nil
		})
	}
	g.Wait()
	return results, nil
}

// MergeStats folds all successful per-file rows into a single row.
func MergeStats(results []FileResult) Stats {
	var merged Stats
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		merged.Merge(res.Stats)
	}
	return merged
}

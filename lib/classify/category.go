//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package classify

import (
	"fmt"
	"strings"
)

// Category is a bitmask of alignment categories. Bits are independent: an
// alignment may satisfy several category predicates at once.
type Category uint8

const (
	Intergenic Category = 1 << iota
	Intronic
	SpliceCompatibleJunction
	SpliceCompatibleExonic
)

// categoryOrder fixes the evaluation and output order of categories.
var categoryOrder = []struct {
	cat  Category
	code string
}{
	{Intergenic, "IGC"},
	{Intronic, "INT"},
	{SpliceCompatibleJunction, "SCJ"},
	{SpliceCompatibleExonic, "SCE"},
}

// Has reports whether flag is set in the bitmask.
func (c Category) Has(flag Category) bool {
	return c&flag != 0
}

// Codes returns the short codes of the set bits concatenated in fixed
// category order, e.g. "IGCSCJ".
func (c Category) Codes() string {
	var b strings.Builder
	for _, co := range categoryOrder {
		if c.Has(co.cat) {
			b.WriteString(co.code)
		}
	}
	return b.String()
}

func (c Category) String() string {
	if c == 0 {
		return "none"
	}
	var codes []string
	for _, co := range categoryOrder {
		if c.Has(co.cat) {
			codes = append(codes, co.code)
		}
	}
	return strings.Join(codes, ",")
}

// ParseCategory returns the category named by a short code.
func ParseCategory(code string) (Category, error) {
	for _, co := range categoryOrder {
		if co.code == code {
			return co.cat, nil
		}
	}
	return 0, fmt.Errorf("classify: unknown category %q", code)
}

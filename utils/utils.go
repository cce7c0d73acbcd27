// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/onsi/ginkgo/v2/formatter"
)

// Outf prints a colorized line to stdout. Color tags follow ginkgo's
// formatter ("{{green}}ok{{/}}").
func Outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}

// FormatBalance renders a raw base-unit amount with the given number of
// decimals, trimming trailing zeros ("1.5" rather than "1.500000000").
func FormatBalance(raw uint64, decimals uint8) string {
	return FormatBigBalance(new(big.Int).SetUint64(raw), decimals)
}

func FormatBigBalance(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, div, new(big.Int))
	out := whole.String()
	if decimals > 0 && frac.Sign() != 0 {
		fs := fmt.Sprintf("%0*s", int(decimals), frac.String())
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseBalance is the inverse of FormatBalance. It rejects more fractional
// digits than decimals allows.
func ParseBalance(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("%q has more than %d decimals", s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("invalid balance %q", s)
	}
	return v.Uint64(), nil
}

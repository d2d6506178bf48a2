// Package normalize turns raw identity, amount, and time fields into the
// canonical forms the matching engine compares.
//
// Every function here is total: unparseable input yields a sentinel (empty
// string or ok=false), never a panic or an error. All downstream comparisons
// are done on normalized forms only.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// accentFold maps the accented Latin vowels (and ñ/ü) that show up in
// Argentine payer names to their unaccented ASCII forms.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
	'ñ': 'n', 'ü': 'u',
}

// Name canonicalizes a person name for comparison: lowercase, accents
// folded to ASCII, everything that is not a lowercase letter or space
// replaced by a space, whitespace runs collapsed, trimmed. Empty input
// yields the empty string.
func Name(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TaxID strips every non-digit from a CUIL/CUIT. Empty or absent input
// yields the empty string, which callers must never treat as a valid match
// key (guard with a minimum length before comparing for equality).
func TaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Amount parses a raw amount string, tolerating the comma decimal separator
// wallet exports use, and applies the per-feed scale factor when it differs
// from 1. Returns ok=false on empty or non-finite input.
func Amount(raw string, factor float64) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if factor != 0 && factor != 1 {
		n *= factor
	}
	return n, true
}

// WalletID cleans a wallet movement identifier from the import feed.
// Spreadsheet round-trips leave trailing ".0" noise on numeric ids, and
// some feeds report ids at the wrong scale; both are corrected here.
func WalletID(raw string, factor float64) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = trimTrailingPointZeros(s)

	if factor != 0 && factor != 1 {
		if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(math.Round(n*factor)), 10)
		}
	}
	return s
}

// trimTrailingPointZeros removes a ".0", ".00", ... suffix, leaving other
// decimal parts intact.
func trimTrailingPointZeros(s string) string {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return s
	}
	for _, r := range s[dot+1:] {
		if r != '0' {
			return s
		}
	}
	return s[:dot]
}

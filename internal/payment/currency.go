package payment

import (
	"sort"
	"strings"
)

// CurrencySet is the set of upper-cased currency codes an instruction may name.
type CurrencySet map[string]struct{}

// DefaultCurrencies returns NGN, USD, GBP and GHS.
func DefaultCurrencies() CurrencySet {
	return NewCurrencySet("NGN", "USD", "GBP", "GHS")
}

func NewCurrencySet(codes ...string) CurrencySet {
	set := make(CurrencySet, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// Supports matches case-insensitively.
func (s CurrencySet) Supports(code string) bool {
	_, ok := s[strings.ToUpper(code)]
	return ok
}

// Known codes render in catalog order, unknown ones alphabetically after them.
func (s CurrencySet) unsupportedReason() string {
	codes := s.sorted()
	var list string
	switch len(codes) {
	case 0:
		return "Unsupported currency"
	case 1:
		return "Unsupported currency. Only " + codes[0] + " is supported"
	default:
		list = strings.Join(codes[:len(codes)-1], ", ") + ", and " + codes[len(codes)-1]
	}
	return "Unsupported currency. Only " + list + " are supported"
}

var displayOrder = []string{"NGN", "USD", "GBP", "GHS"}

func (s CurrencySet) sorted() []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, c := range displayOrder {
		if _, ok := s[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var rest []string
	for c := range s {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Package query implements the filter mini-language used to list and search
// packages. A query maps decorated key strings to filter values; the same
// query shape is either evaluated in memory against a record or translated
// into an equivalent database filter by the storage layer.
package query

import "strings"

// Query maps decorated key strings to filter values.
//
// Valid examples:
//
//	{"package.time_freeze": true}                     equality
//	{"package.codes": ["*"]}                          stored array contains every element
//	{"$package.name": "te"}                           case-insensitive substring
//	{"^package.id": "dev.alice."}                     case-insensitive prefix
//	{"!package.category": "card"}                     negation (stacks, parity applies)
//	{"$package.name | $package.long_name": "te"}      OR across branches
//	{"?package.recipes": true}                        existence test
type Query map[string]any

// Mode selects how a key's value is compared against the stored field.
type Mode int

const (
	// ModeEq is plain equality, with the array special case: when both the
	// stored field and the query value are arrays, the stored array must
	// contain every element of the query array.
	ModeEq Mode = iota
	// ModeSubstring is a case-insensitive substring match over string fields.
	ModeSubstring
	// ModePrefix is a case-insensitive prefix match over string fields.
	ModePrefix
	// ModeExists tests field presence; the query value only contributes its
	// truthiness (truthy = field must be non-null).
	ModeExists
)

// branchSeparator splits a key into OR branches.
const branchSeparator = " | "

// Key is the parsed form of a single decorated key branch. Decorations are
// parsed exactly once at the boundary; everything downstream branches on
// this structure, never on raw strings.
type Key struct {
	Negate bool
	Mode   Mode
	Path   string
}

// ParseKey strips leading decorations off a raw key branch. '!' may stack
// (parity of the count applies); the first of '$', '^', or '?' fixes the
// mode and ends decoration parsing.
func ParseKey(raw string) Key {
	k := Key{Mode: ModeEq, Path: raw}

	for k.Path != "" {
		switch k.Path[0] {
		case '!':
			k.Negate = !k.Negate
			k.Path = k.Path[1:]
			continue
		case '$':
			k.Mode = ModeSubstring
			k.Path = k.Path[1:]
		case '^':
			k.Mode = ModePrefix
			k.Path = k.Path[1:]
		case '?':
			k.Mode = ModeExists
			k.Path = k.Path[1:]
		}
		break
	}

	return k
}

// Branches splits a raw key into its OR branches.
func Branches(rawKey string) []string {
	return strings.Split(rawKey, branchSeparator)
}

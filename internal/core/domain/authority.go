package domain

import (
	"errors"
	"strings"
)

var ErrNamespaceConflict = errors.New("conflicts with existing namespace")

// IsSymbol reports whether r is a symbol character: anything outside
// [A-Za-z0-9]. Namespace prefixes must end with one, which is what keeps
// prefix-splitting well-defined.
func IsSymbol(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return false
	case r >= 'A' && r <= 'Z':
		return false
	case r >= '0' && r <= '9':
		return false
	}
	return true
}

// ValidPrefix reports whether prefix is non-empty and ends with a symbol.
func ValidPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	runes := []rune(prefix)
	return IsSymbol(runes[len(runes)-1])
}

// HasSymbol reports whether s contains at least one symbol character. A
// package id without one cannot fall under any valid prefix, so callers use
// this to skip namespace searches entirely.
func HasSymbol(s string) bool {
	return strings.ContainsFunc(s, IsSymbol)
}

// prefixRelated reports whether a and b are in a string-prefix relationship
// in either direction, case-insensitively. Both arguments must already be
// lowercased.
func prefixRelated(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// FindConflict decides whether accountID may create a namespace with the
// given prefix. candidates is the materialized set of existing namespaces in
// a prefix relation with prefix (a superset is fine — unrelated entries are
// ignored). It returns the blocking prefix, or "" when creation is allowed.
//
// The rules, in order:
//  1. A duplicate blocks, regardless of caller identity. The check is
//     case-insensitive like every other prefix comparison; otherwise an
//     admin could claim a case variant of their own prefix, and two
//     namespaces with equal-length prefixes of the same id would leave
//     GoverningNamespace without a winner.
//  2. Among strictly shorter related namespaces (ancestors), the longest one
//     is the relevant ancestor. Being its admin delegates authority below it.
//  3. Among all related namespaces where the caller is not an admin, the
//     longest prefix is the conflict.
//  4. Admin of a relevant ancestor deeper than the conflict waives it: an
//     admin of "x.y." may create "x.y.z." past an unrelated claim on "x.".
func FindConflict(candidates []Namespace, accountID AccountID, prefix string) string {
	lower := strings.ToLower(prefix)

	var relevant *Namespace
	var conflict *Namespace

	for i := range candidates {
		ns := &candidates[i]
		nsLower := strings.ToLower(ns.Prefix)
		if nsLower == lower {
			return ns.Prefix
		}
		if !prefixRelated(lower, nsLower) {
			continue
		}

		if len(ns.Prefix) < len(prefix) && strings.HasPrefix(lower, nsLower) {
			if relevant == nil || len(ns.Prefix) > len(relevant.Prefix) {
				relevant = ns
			}
		}

		if !ns.IsAdmin(accountID) {
			if conflict == nil || len(ns.Prefix) > len(conflict.Prefix) {
				conflict = ns
			}
		}
	}

	if conflict == nil {
		return ""
	}

	if relevant != nil && relevant.IsAdmin(accountID) && len(relevant.Prefix) > len(conflict.Prefix) {
		return ""
	}

	return conflict.Prefix
}

// GoverningNamespace resolves the namespace that governs packageID: the
// registered namespace with the longest case-insensitive prefix of the id.
// candidates may be a superset. Returns nil when no namespace matches, which
// includes ids without any symbol character.
func GoverningNamespace(candidates []Namespace, packageID string) *Namespace {
	if !HasSymbol(packageID) {
		return nil
	}

	lower := strings.ToLower(packageID)

	var best *Namespace
	for i := range candidates {
		ns := &candidates[i]
		if !ns.Registered {
			continue
		}
		if !strings.HasPrefix(lower, strings.ToLower(ns.Prefix)) {
			continue
		}
		if best == nil || len(ns.Prefix) > len(best.Prefix) {
			best = ns
		}
	}
	return best
}

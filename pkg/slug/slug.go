// Package slug derives URL-safe identifiers from display names and disambiguates them
// against the slugs already stored for the same base.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	gosimple "github.com/gosimple/slug"
)

// Make lowercases name and turns whitespace and punctuation into single hyphens.
// Make(Make(s)) == Make(s) for every s.
func Make(name string) string {
	return gosimple.Make(strings.ReplaceAll(name, "_", " "))
}

// Pattern matches base itself and base followed by a hyphen and an optional number,
// ignoring case: base, base-2, base-17, base-.
func Pattern(base string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(base) + `(-[0-9]*)?$`)
}

// Matches reports whether s belongs to the family of base.
func Matches(base, s string) bool {
	return Pattern(base).MatchString(s)
}

// CountMatches returns how many of existing belong to the family of base.
func CountMatches(base string, existing []string) int {
	re := Pattern(base)
	n := 0
	for _, s := range existing {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

// Assign returns the slug for name given the existing slugs of the collection.
// With n members of the base family already present the result is base-(n+1),
// otherwise base. Deleting a family member can make this collide with a survivor;
// Resolve covers that case.
func Assign(name string, existing []string) string {
	base := Make(name)
	if n := CountMatches(base, existing); n > 0 {
		return fmt.Sprintf("%s-%d", base, n+1)
	}
	return base
}

// Resolve starts from Assign and raises the numeric suffix until the slug is not
// among existing.
func Resolve(name string, existing []string) string {
	base := Make(name)
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[strings.ToLower(s)] = struct{}{}
	}

	candidate := Assign(name, existing)
	if _, ok := taken[candidate]; !ok {
		return candidate
	}

	for k := CountMatches(base, existing) + 2; ; k++ {
		candidate = fmt.Sprintf("%s-%d", base, k)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

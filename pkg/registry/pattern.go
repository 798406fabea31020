package registry

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// trailingDigits captures the numeric run at the end of a matched tag prefix.
var trailingDigits = regexp.MustCompile(`([0-9]+)$`)

// TagPattern describes which tags are release candidates.
//
// Matching is anchored at the start of the tag only, so "master-12" and
// "master-12-rc" both match the "master-" prefix pattern.
type TagPattern struct {
	expr *regexp.Regexp
}

// NewPrefixPattern builds a pattern matching prefix followed by one or more digits.
//
// Parameters:
//   - prefix: Literal tag prefix, e.g. "master-".
//
// Returns:
//   - *TagPattern: Compiled pattern.
//   - error: Non-nil if prefix is empty.
func NewPrefixPattern(prefix string) (*TagPattern, error) {
	if prefix == "" {
		return nil, errEmptyPattern
	}

	return &TagPattern{expr: regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + "([0-9]+)")}, nil
}

// NewTagPattern compiles a custom release expression, always anchored at the start.
//
// The first capture group, when present, is taken as the build id. Otherwise the
// trailing digits of the matched text are used.
//
// Parameters:
//   - expr: Regular expression in RE2 syntax.
//
// Returns:
//   - *TagPattern: Compiled pattern.
//   - error: Non-nil if expr is empty or does not compile.
func NewTagPattern(expr string) (*TagPattern, error) {
	if expr == "" {
		return nil, errEmptyPattern
	}

	compiled, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errInvalidPattern, expr, err)
	}

	return &TagPattern{expr: compiled}, nil
}

// Match reports whether tag is a release tag.
func (p *TagPattern) Match(tag types.ImageTag) bool {
	return p.expr.MatchString(string(tag))
}

// BuildNumber extracts the numeric build id of a matching tag.
//
// Returns:
//   - uint64: Build id.
//   - bool: False if tag does not match or carries no parsable build id.
func (p *TagPattern) BuildNumber(tag types.ImageTag) (uint64, bool) {
	groups := p.expr.FindStringSubmatch(string(tag))
	if groups == nil {
		return 0, false
	}

	digits := ""
	if len(groups) > 1 && groups[1] != "" {
		digits = groups[1]
	} else if m := trailingDigits.FindString(groups[0]); m != "" {
		digits = m
	}

	if digits == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// String returns the compiled expression.
func (p *TagPattern) String() string {
	return p.expr.String()
}

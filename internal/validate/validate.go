// Package validate holds the pure predicates and parsers for group names,
// code strings and bulk code text.
package validate

import "regexp"

var (
	groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	codePattern      = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

	// bulkSeparatorPattern matches a maximal run of characters that can
	// not be part of a code token. Unicode letters and digits are kept
	// inside tokens so a bad token surfaces as a validation error instead
	// of being silently split apart.
	bulkSeparatorPattern = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)
)

// GroupName reports whether name is a valid group name: letters, digits,
// dash and underscore, at least one character.
func GroupName(name string) bool {
	return groupNamePattern.MatchString(name)
}

// Code reports whether code is a valid promo code: letters, digits and
// dash, at least one character. Underscore is not allowed, unlike group
// names.
func Code(code string) bool {
	return codePattern.MatchString(code)
}

// CodesInBulk splits text on any run of separator characters and returns
// the non-empty tokens in original order. Tokens are not deduplicated and
// not validated against Code; that is the caller's decision.
func CodesInBulk(text string) []string {
	parts := bulkSeparatorPattern.Split(text, -1)

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}

	return tokens
}

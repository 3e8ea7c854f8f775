package runtimesym

import "strings"

// LikePrefix implements the "pattern%" case: pattern (with its trailing %
// already stripped by the caller) must prefix text.
func LikePrefix(text, pattern string) bool {
	return strings.HasPrefix(text, pattern)
}

// LikeSuffix implements the "%pattern" case: pattern (with its leading %
// already stripped by the caller) must suffix text.
func LikeSuffix(text, pattern string) bool {
	return strings.HasSuffix(text, pattern)
}

// Like implements the "%pattern%" (contains) case.
func Like(text, pattern string) bool {
	return strings.Contains(text, pattern)
}

// StringEq, StringLt, StringGt back the only three comparisons strings
// support (spec §4.A).
func StringEq(a, b string) bool { return a == b }
func StringLt(a, b string) bool { return a < b }
func StringGt(a, b string) bool { return a > b }

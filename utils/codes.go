package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// BadgeDisplayName turns a badge code like "LOGIN_STREAK_7" into
// "Login Streak 7".
func BadgeDisplayName(code string) string {
	words := strings.Fields(strings.ReplaceAll(code, "_", " "))
	return titleCaser.String(strings.ToLower(strings.Join(words, " ")))
}

// DiscountCode builds a redeemable code from the category and the
// recommendation id, e.g. "GROCERIES-1A2B3C4D".
func DiscountCode(category, recommendationID string) string {
	prefix := slug.Make(category)
	if prefix == "" {
		prefix = "vpay"
	}
	suffix := strings.ReplaceAll(recommendationID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return strings.ToUpper(prefix + "-" + suffix)
}

package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NameKey canonicalizes a player name for duplicate detection: accents
// stripped, case folded, whitespace collapsed. "José  R." and "jose r"
// collide on purpose.
func NameKey(name string) string {
	return slug.Make(name)
}

// DisplayName trims and title-cases a raw player name for the kiosk screen.
func DisplayName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// JoinCode builds a human-shareable table code from the venue's table name
// plus a short random suffix, e.g. "corner-table-3f2a".
func JoinCode(tableName, suffix string) string {
	base := slug.Make(tableName)
	if base == "" {
		base = "table"
	}
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return base + "-" + strings.ToLower(suffix)
}

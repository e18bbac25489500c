// Package wikitext digs useful bits out of revision bodies written in
// wiki markup: coordinates, links and file references.
package wikitext

import (
	"regexp"
)

var (
	nowikiRE  = regexp.MustCompile(`(?ms)<nowiki>.*?</nowiki>`)
	commentRE = regexp.MustCompile(`(?ms)<!--.*?-->`)
)

func stripNowiki(text string) string {
	return nowikiRE.ReplaceAllString(text, "")
}

// Clean removes comments and <nowiki> sections, neither of which
// renders as markup.
func Clean(text string) string {
	return stripNowiki(commentRE.ReplaceAllString(text, ""))
}

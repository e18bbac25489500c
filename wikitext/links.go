package wikitext

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

var (
	linkRE = regexp.MustCompile(`\[\[([^\|\]]+)`)
	fileRE = regexp.MustCompile(`(?i)\[\[\s*(?:File|Image):([^\|\]]+)`)
)

// FindLinks finds the targets of all the links within an article
// body, in order of appearance.
func FindLinks(text string) []string {
	matches := linkRE.FindAllStringSubmatch(Clean(text), -1)
	rv := make([]string, 0, len(matches))
	for _, m := range matches {
		rv = append(rv, strings.TrimSpace(m[1]))
	}
	return rv
}

// FindFiles finds all the File references within an article body.
//
// Commented out references are included; plenty of them are only
// temporarily hidden.
func FindFiles(text string) []string {
	matches := fileRE.FindAllStringSubmatch(stripNowiki(text), -1)
	rv := []string{}
	for _, m := range matches {
		rv = append(rv, strings.TrimSpace(m[1]))
	}
	return rv
}

// URLForFile gets the commons upload URL for the given named file.
func URLForFile(name string) string {
	name = strings.Replace(strings.TrimSpace(name), " ", "_", -1)
	sum := md5.Sum([]byte(name))
	h := hex.EncodeToString(sum[:])
	return "https://upload.wikimedia.org/wikipedia/commons/" +
		h[0:1] + "/" + h[0:2] + "/" + url.QueryEscape(name)
}

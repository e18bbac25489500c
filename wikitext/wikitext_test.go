package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, exp string
	}{
		{"plain", "plain"},
		{"a<!-- hidden -->b", "ab"},
		{"a<!-- one -->b<!-- two -->c", "abc"},
		{"a<nowiki>[[x]]</nowiki>b<nowiki>y</nowiki>c", "abc"},
		{"a<!-- multi\nline -->b", "ab"},
		{"<!-- <nowiki> -->[[kept]]", "[[kept]]"},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, Clean(test.in), test.in)
	}
}

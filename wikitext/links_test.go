package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sponge = `{{Automatic taxobox
| name = Sponge
| image_caption =A [[Aplysina archeri|stove-pipe sponge]]
| authority = [[Robert Edmund Grant|Grant]] in [[Robert Bentley Todd|Todd]], 1836
}}
'''Sponges''' are [[animal]]s of the [[phylum]] '''Porifera'''.
[[File:Tide pools sponge.jpg|thumb|left|A sponge in a tide pool]]
<!-- [[Image:Hidden.jpg|thumb]] -->
[[Image:Aphrocallistes vastus.jpg|thumb|A glass sponge]]
<nowiki>[[File:Example.jpg]]</nowiki>
[[ file:Sponges.JPG ]]
[[Category:Sponges| ]]
`

func TestFindLinks(t *testing.T) {
	exp := []string{
		"Aplysina archeri",
		"Robert Edmund Grant",
		"Robert Bentley Todd",
		"animal",
		"phylum",
		"File:Tide pools sponge.jpg",
		"Image:Aphrocallistes vastus.jpg",
		"file:Sponges.JPG",
		"Category:Sponges",
	}
	assert.Equal(t, exp, FindLinks(sponge))
}

func TestFindLinksNone(t *testing.T) {
	assert.Empty(t, FindLinks("no links [here]"))
}

func TestFindFiles(t *testing.T) {
	exp := []string{
		"Tide pools sponge.jpg",
		"Hidden.jpg",
		"Aphrocallistes vastus.jpg",
		"Sponges.JPG",
	}
	assert.Equal(t, exp, FindFiles(sponge))
	assert.Equal(t, []string{}, FindFiles("nothing"))
}

func TestURLForFile(t *testing.T) {
	tests := []struct {
		src string
		exp string
	}{
		{
			"BoredEncrustedShell.JPG",
			"https://upload.wikimedia.org/wikipedia/commons/1/10/BoredEncrustedShell.JPG",
		},
		{
			"AURI B-25.jpg",
			"https://upload.wikimedia.org/wikipedia/commons/9/93/AURI_B-25.jpg",
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, URLForFile(test.src))
	}
}

// Package wikihistory is a library to stream the revisions out of
// MediaWiki XML dumps, in particular the full history dumps.
//
// The dumps are available from the wikimedia group here:
//
//	http://dumps.wikimedia.org/
//
// History dumps are huge, so the parser doesn't use encoding/xml.  It
// reads one element per line in the fixed order the dump generator
// writes them, and fails on anything else.  Archives in .7z format are
// decompressed by running the 7z utility, which has to be in $PATH.
//
// See the example programs under tools/ for an idea of how to make
// use of these things.
package wikihistory

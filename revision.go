package wikihistory

import (
	"fmt"
	"strings"
)

// SiteInfo is the toplevel site info describing basic dump
// properties.
type SiteInfo struct {
	SiteName  string
	DBName    string
	Base      string
	Generator string
	Case      string
	// Namespace id to name.  The default namespace maps to "".
	Namespaces map[int]string
}

// NamespaceName looks up the name of a namespace id.
func (s *SiteInfo) NamespaceName(id int) (string, bool) {
	name, ok := s.Namespaces[id]
	return name, ok
}

// Clone returns a deep copy, for sinks that want to hold on to the
// site info past Finish.
func (s *SiteInfo) Clone() *SiteInfo {
	rv := *s
	rv.Namespaces = make(map[int]string, len(s.Namespaces))
	for k, v := range s.Namespaces {
		rv.Namespaces[k] = v
	}
	return &rv
}

// A Revision is one historical version of a page, along with the
// page it belongs to.
//
// Pointer fields are nil when the dump proves the value absent:
// redacted, omitted or self-closing.
type Revision struct {
	PrefixedTitle string
	Namespace     int
	PageID        int
	Redirect      *string

	ID            int64
	ParentID      *int64
	Timestamp     string
	Contributor   *string
	ContributorID *int
	Minor         bool
	Comment       *string
	Model         string
	Format        string
	Text          string
	SHA1          *string
}

// Title is the page title without its namespace prefix.
func (r *Revision) Title() string {
	if r.Namespace == 0 {
		return r.PrefixedTitle
	}
	if i := strings.IndexByte(r.PrefixedTitle, ':'); i >= 0 {
		return r.PrefixedTitle[i+1:]
	}
	return r.PrefixedTitle
}

// HasRegisteredContributor is true for revisions made by a logged in
// user whose info wasn't redacted.
func (r *Revision) HasRegisteredContributor() bool {
	return r.ContributorID != nil
}

// IsRedirect reports whether the page declared a redirect.
func (r *Revision) IsRedirect() bool {
	return r.Redirect != nil
}

func (r *Revision) String() string {
	return fmt.Sprintf("%v@%v (page %v, %v)",
		r.PrefixedTitle, r.ID, r.PageID, r.Timestamp)
}

// page is the context shared by every revision of one page block.
type page struct {
	title     string
	namespace int
	id        int
	redirect  *string
}

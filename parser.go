package wikihistory

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The parser doesn't use an XML library.  It relies on the dump
// putting every element on its own line and on the exact order of
// elements within a page and revision, which makes it much faster
// but means it must be updated by hand when the dump format changes.
// Anything unexpected is an error.

type state int

const (
	expectDocumentStart state = iota
	expectSiteInfo
	expectPageOrDocumentEnd
	expectRevisionOrPageEnd
	expectDocumentEnd
	done
	failed
)

// A Parser pulls revisions out of a dump stream.
type Parser struct {
	lr    *LineReader
	site  *SiteInfo
	state state
	err   error

	page          *page
	pageRevisions int
	pending       string
	hasPending    bool

	// Streams of a multistream dump hold bare <page> blocks, and only
	// the final one may close the document.
	fragment bool
	final    bool

	pages, revisions int64
}

// NewParser gets a dump parser reading from the given reader.  It
// consumes the document header and site info before returning.
func NewParser(r io.Reader) (*Parser, error) {
	p := &Parser{lr: NewLineReader(r)}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

func newFragmentParser(r io.Reader, site *SiteInfo, final bool) *Parser {
	return &Parser{
		lr:       NewLineReader(r),
		site:     site,
		state:    expectPageOrDocumentEnd,
		fragment: true,
		final:    final,
	}
}

func (p *Parser) readHeader() error {
	line, err := next(p.lr, "<mediawiki>")
	if err != nil {
		return err
	}
	if err := requireOpeningTag(p.lr, line, "mediawiki"); err != nil {
		return err
	}
	p.state = expectSiteInfo

	line, err = next(p.lr, "<siteinfo>")
	if err != nil {
		return err
	}
	if err := requireOpeningTag(p.lr, line, "siteinfo"); err != nil {
		return err
	}
	si, err := parseSiteInfo(p.lr)
	if err != nil {
		return err
	}
	p.site = si
	p.state = expectPageOrDocumentEnd
	return nil
}

// SiteInfo is the dump's site info.  It must not be modified.
func (p *Parser) SiteInfo() *SiteInfo {
	return p.site
}

// Pages is the number of page blocks entered so far.
func (p *Parser) Pages() int64 {
	return p.pages
}

// Revisions is the number of revisions parsed so far.
func (p *Parser) Revisions() int64 {
	return p.revisions
}

// Next gets the next revision from the parser.
//
// It returns io.EOF once </mediawiki> has been read; call ExpectEnd
// afterwards to make sure nothing follows it.  Any other error is
// final and will be returned by every later call.
func (p *Parser) Next() (*Revision, error) {
	if p.state == failed {
		return nil, p.err
	}
	rev, err := p.advance()
	if err != nil && err != io.EOF {
		p.fail(err)
	}
	return rev, err
}

func (p *Parser) fail(err error) {
	p.state = failed
	p.err = err
}

func (p *Parser) advance() (*Revision, error) {
	for {
		switch p.state {
		case expectPageOrDocumentEnd:
			line, err := p.lr.Next()
			if err == io.EOF && p.fragment {
				p.state = done
				return nil, io.EOF
			}
			if err != nil {
				return nil, eofAs(p.lr, err, "<page> or </mediawiki>")
			}
			if p.fragment && strings.TrimSpace(line) == "" {
				continue
			}
			if isClosingTag(line, "mediawiki") {
				if p.fragment && !p.final {
					return nil, malformed(p.lr, "<page> before the final stream", line)
				}
				p.state = expectDocumentEnd
				return nil, io.EOF
			}
			if err := requireOpeningTag(p.lr, line, "page"); err != nil {
				return nil, err
			}
			if err := p.parsePageHeader(); err != nil {
				return nil, err
			}
			p.pages++
			p.state = expectRevisionOrPageEnd

		case expectRevisionOrPageEnd:
			line, err := p.nextLine("<revision> or </page>")
			if err != nil {
				return nil, err
			}
			if isClosingTag(line, "page") && p.pageRevisions > 0 {
				p.page = nil
				p.state = expectPageOrDocumentEnd
				continue
			}
			if err := requireOpeningTag(p.lr, line, "revision"); err != nil {
				return nil, err
			}
			rev, err := p.parseRevision()
			if err != nil {
				return nil, err
			}
			p.pageRevisions++
			p.revisions++
			return rev, nil

		case expectDocumentEnd, done:
			return nil, io.EOF

		default:
			return nil, errors.Errorf("parser can't continue from state %d", p.state)
		}
	}
}

// ExpectEnd verifies nothing but blank lines follow </mediawiki>.
func (p *Parser) ExpectEnd() error {
	switch p.state {
	case failed:
		return p.err
	case done:
		return nil
	case expectDocumentEnd:
	default:
		return errors.New("end of dump document not reached")
	}
	for {
		line, err := p.lr.Next()
		if err == io.EOF {
			p.state = done
			return nil
		}
		if err != nil {
			err = errors.Wrap(err, "reading dump")
			p.fail(err)
			return err
		}
		if strings.TrimSpace(line) != "" {
			err := &TrailingDataError{Line: p.lr.Line(), Actual: clip(line)}
			p.fail(err)
			return err
		}
	}
}

// Process feeds every remaining revision to sink: Start once,
// Revision in document order, then Finish once everything parsed.
func (p *Parser) Process(sink RevisionSink) error {
	if err := sink.Start(p.site); err != nil {
		return errors.Wrap(err, "starting sink")
	}
	if err := p.feed(sink); err != nil {
		return err
	}
	if err := sink.Finish(); err != nil {
		return errors.Wrap(err, "finishing sink")
	}
	return p.ExpectEnd()
}

func (p *Parser) feed(sink RevisionSink) error {
	for {
		rev, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Revision(rev); err != nil {
			return errors.Wrapf(err, "sink failed on revision %d", rev.ID)
		}
	}
}

// Process parses the whole dump read from r into sink.
func Process(r io.Reader, sink RevisionSink) error {
	p, err := NewParser(r)
	if err != nil {
		return err
	}
	return p.Process(sink)
}

func (p *Parser) parsePageHeader() error {
	title, err := p.value("title")
	if err != nil {
		return err
	}
	ns, err := p.intValue("ns")
	if err != nil {
		return err
	}
	id, err := p.intValue("id")
	if err != nil {
		return err
	}

	pg := &page{title: unescapeXML(title), namespace: ns, id: id}

	// <redirect title="Target" />
	line, err := p.nextLine("<redirect> or <revision>")
	if err != nil {
		return err
	}
	if isOpeningTag(line, "redirect") {
		target, ok := attrValue(line, "title")
		if !ok {
			return malformed(p.lr, `<redirect title="..." />`, line)
		}
		target = unescapeXML(target)
		pg.redirect = &target
	} else {
		p.unread(line)
	}

	p.page = pg
	p.pageRevisions = 0
	return nil
}

func (p *Parser) parseRevision() (*Revision, error) {
	rev := &Revision{
		PrefixedTitle: p.page.title,
		Namespace:     p.page.namespace,
		PageID:        p.page.id,
		Redirect:      p.page.redirect,
	}

	var err error
	if rev.ID, err = p.int64Value("id"); err != nil {
		return nil, err
	}

	line, err := p.nextLine("<parentid> or <timestamp>")
	if err != nil {
		return nil, err
	}
	if isOpeningTag(line, "parentid") {
		parent, err := p.parseInt64(line, "parentid")
		if err != nil {
			return nil, err
		}
		rev.ParentID = &parent
		if line, err = p.nextLine("<timestamp>"); err != nil {
			return nil, err
		}
	}
	if rev.Timestamp, err = extractValue(p.lr, line, "timestamp"); err != nil {
		return nil, err
	}

	if err := p.parseContributor(rev); err != nil {
		return nil, err
	}

	if line, err = p.nextLine("<minor>, <comment> or <model>"); err != nil {
		return nil, err
	}
	if isOpeningTag(line, "minor") {
		rev.Minor = true
		if line, err = p.nextLine("<comment> or <model>"); err != nil {
			return nil, err
		}
	}
	if isOpeningTag(line, "comment") {
		comment, err := extractMultiline(p.lr, line, "comment")
		if err != nil {
			return nil, err
		}
		if !isDeleted(line) && !isSelfClosing(line) {
			comment = unescapeXML(comment)
			rev.Comment = &comment
		}
		if line, err = p.nextLine("<model>"); err != nil {
			return nil, err
		}
	}

	if rev.Model, err = extractValue(p.lr, line, "model"); err != nil {
		return nil, err
	}
	if rev.Format, err = p.value("format"); err != nil {
		return nil, err
	}

	if line, err = p.nextLine("<text>"); err != nil {
		return nil, err
	}
	text, err := extractMultiline(p.lr, line, "text")
	if err != nil {
		return nil, err
	}
	rev.Text = unescapeXML(text)

	if line, err = p.nextLine("<sha1>"); err != nil {
		return nil, err
	}
	if err := requireOpeningTag(p.lr, line, "sha1"); err != nil {
		return nil, err
	}
	if !isSelfClosing(line) {
		sha1, err := extractValue(p.lr, line, "sha1")
		if err != nil {
			return nil, err
		}
		rev.SHA1 = &sha1
	}

	if line, err = p.nextLine("</revision>"); err != nil {
		return nil, err
	}
	if err := requireClosingTag(p.lr, line, "revision"); err != nil {
		return nil, err
	}
	return rev, nil
}

// <contributor deleted="deleted" />, or a block holding either <ip>
// or <username> and <id>.
func (p *Parser) parseContributor(rev *Revision) error {
	line, err := p.nextLine("<contributor>")
	if err != nil {
		return err
	}
	if err := requireOpeningTag(p.lr, line, "contributor"); err != nil {
		return err
	}
	if isDeleted(line) {
		return nil
	}

	if line, err = p.nextLine("<ip> or <username>"); err != nil {
		return err
	}
	if isOpeningTag(line, "ip") {
		ip, err := extractValue(p.lr, line, "ip")
		if err != nil {
			return err
		}
		rev.Contributor = &ip
	} else {
		name, err := extractValue(p.lr, line, "username")
		if err != nil {
			return err
		}
		name = unescapeXML(name)
		id, err := p.intValue("id")
		if err != nil {
			return err
		}
		rev.Contributor = &name
		rev.ContributorID = &id
	}

	if line, err = p.nextLine("</contributor>"); err != nil {
		return err
	}
	return requireClosingTag(p.lr, line, "contributor")
}

func (p *Parser) nextLine(expected string) (string, error) {
	if p.hasPending {
		p.hasPending = false
		return p.pending, nil
	}
	return next(p.lr, expected)
}

func (p *Parser) unread(line string) {
	p.pending = line
	p.hasPending = true
}

func (p *Parser) value(name string) (string, error) {
	line, err := p.nextLine("<" + name + ">")
	if err != nil {
		return "", err
	}
	return extractValue(p.lr, line, name)
}

func (p *Parser) intValue(name string) (int, error) {
	line, err := p.nextLine("<" + name + ">")
	if err != nil {
		return 0, err
	}
	s, err := extractValue(p.lr, line, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed(p.lr, "integer <"+name+">", line)
	}
	return v, nil
}

func (p *Parser) int64Value(name string) (int64, error) {
	line, err := p.nextLine("<" + name + ">")
	if err != nil {
		return 0, err
	}
	return p.parseInt64(line, name)
}

func (p *Parser) parseInt64(line, name string) (int64, error) {
	s, err := extractValue(p.lr, line, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, malformed(p.lr, "integer <"+name+">", line)
	}
	return v, nil
}

func next(lr *LineReader, expected string) (string, error) {
	line, err := lr.Next()
	if err != nil {
		return "", eofAs(lr, err, expected)
	}
	return line, nil
}

// eofAs turns io.EOF into ErrUnexpectedEndOfStream; the caller
// still needed expected.
func eofAs(lr *LineReader, err error, expected string) error {
	if err == io.EOF {
		return endOfStream(lr, expected)
	}
	return errors.Wrap(err, "reading dump")
}

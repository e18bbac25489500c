package wikihistory

import (
	"strconv"
)

// parseSiteInfo reads the <siteinfo> block.  The opening tag must
// already have been consumed.
func parseSiteInfo(lr *LineReader) (*SiteInfo, error) {
	si := &SiteInfo{Namespaces: map[int]string{}}

	fields := []struct {
		name string
		dest *string
	}{
		{"sitename", &si.SiteName},
		{"dbname", &si.DBName},
		{"base", &si.Base},
		{"generator", &si.Generator},
		{"case", &si.Case},
	}
	for _, f := range fields {
		line, err := next(lr, "<"+f.name+">")
		if err != nil {
			return nil, err
		}
		if *f.dest, err = extractValue(lr, line, f.name); err != nil {
			return nil, err
		}
		*f.dest = unescapeXML(*f.dest)
	}

	line, err := next(lr, "<namespaces>")
	if err != nil {
		return nil, err
	}
	if err := requireOpeningTag(lr, line, "namespaces"); err != nil {
		return nil, err
	}
	for {
		line, err := next(lr, "<namespace> or </namespaces>")
		if err != nil {
			return nil, err
		}
		if isClosingTag(line, "namespaces") {
			break
		}
		key, name, err := parseNamespace(lr, line)
		if err != nil {
			return nil, err
		}
		if _, dup := si.Namespaces[key]; dup {
			return nil, malformed(lr, "unique namespace key", line)
		}
		si.Namespaces[key] = name
	}

	line, err = next(lr, "</siteinfo>")
	if err != nil {
		return nil, err
	}
	if err := requireClosingTag(lr, line, "siteinfo"); err != nil {
		return nil, err
	}
	return si, nil
}

// <namespace key="1" case="first-letter">Talk</namespace>
// <namespace key="0" case="first-letter" />
func parseNamespace(lr *LineReader, line string) (int, string, error) {
	if err := requireOpeningTag(lr, line, "namespace"); err != nil {
		return 0, "", err
	}
	k, ok := attrValue(line, "key")
	if !ok {
		return 0, "", malformed(lr, `<namespace key="...">`, line)
	}
	key, err := strconv.Atoi(k)
	if err != nil {
		return 0, "", malformed(lr, "numeric namespace key", line)
	}
	if isSelfClosing(line) {
		return key, "", nil
	}
	name, err := extractInline(lr, line, "namespace")
	if err != nil {
		return 0, "", err
	}
	return key, unescapeXML(name), nil
}

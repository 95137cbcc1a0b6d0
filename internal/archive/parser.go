// Package archive splits a raw multi-document filing archive into header
// metadata plus an ordered list of sub-documents.
//
// An archive is SGML-like text: a header block, then a series of
// <DOCUMENT>...</DOCUMENT> blocks. Each document block carries a small header
// (<TYPE>, <SEQUENCE>, <FILENAME>, <DESCRIPTION>) followed by the content
// inside <TEXT>...</TEXT>. Inline-XBRL filings often wrap the semantically
// clean document inside a nested <XBRL> or <XML> section; the parser prefers
// that inner region when present. PDF and uuencoded binary sections are
// skipped entirely.
package archive

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
)

const (
	docOpen   = "<DOCUMENT>"
	docClose  = "</DOCUMENT>"
	textOpen  = "<TEXT>"
	textClose = "</TEXT>"
	pdfOpen   = "<PDF>"
)

// allowedExtensions are the sub-document types that survive filtering.
var allowedExtensions = map[string]bool{
	".htm": true,
	".txt": true,
}

var (
	companyNameRe = regexp.MustCompile(`(?m)^\s*COMPANY CONFORMED NAME:\s*(.+?)\s*$`)
	headerFieldRe = regexp.MustCompile(`(?m)^<(TYPE|SEQUENCE|FILENAME|DESCRIPTION)>(.*)$`)
	nestedOpenRe  = regexp.MustCompile(`<(XBRL|XML)>`)
	uuencodeRe    = regexp.MustCompile(`(?m)^begin \d{3} \S+`)
)

// Filing is the parse result for one archive.
type Filing struct {
	CompanyName string
	Documents   []domain.SubDocument
	Skipped     int // document blocks dropped (unsupported, binary, malformed)
}

// Parser splits raw filing archives into sub-documents.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse splits the raw archive text for one filing.
// Missing header fields and malformed documents are logged and skipped; Parse
// never fails, it returns whatever could be extracted.
func (p *Parser) Parse(accessionNumber, raw string) Filing {
	var filing Filing

	headerEnd := strings.Index(raw, docOpen)
	if headerEnd < 0 {
		p.logger.Warn("no document marker in archive, proceeding with empty header",
			"accession_number", accessionNumber)
		headerEnd = 0
	}
	header := raw[:headerEnd]

	if m := companyNameRe.FindStringSubmatch(header); m != nil {
		filing.CompanyName = m[1]
	} else {
		p.logger.Warn("company name missing from archive header",
			"accession_number", accessionNumber)
	}

	rest := raw[headerEnd:]
	for {
		open := strings.Index(rest, docOpen)
		if open < 0 {
			break
		}
		rest = rest[open+len(docOpen):]

		end := strings.Index(rest, docClose)
		block := rest
		if end >= 0 {
			block = rest[:end]
			rest = rest[end+len(docClose):]
		} else {
			rest = ""
		}

		doc, ok := p.parseDocument(accessionNumber, block)
		if ok {
			filing.Documents = append(filing.Documents, doc)
		} else {
			filing.Skipped++
		}
	}

	return filing
}

// parseDocument decomposes one document block. Returns false when the
// document should be skipped.
func (p *Parser) parseDocument(accessionNumber, block string) (domain.SubDocument, bool) {
	doc := domain.SubDocument{AccessionNumber: accessionNumber}

	headerEnd := strings.Index(block, textOpen)
	header := block
	if headerEnd >= 0 {
		header = block[:headerEnd]
	}

	var rawSequence string
	for _, m := range headerFieldRe.FindAllStringSubmatch(header, -1) {
		value := strings.TrimSpace(m[2])
		switch m[1] {
		case "TYPE":
			doc.Type = value
		case "SEQUENCE":
			rawSequence = value
		case "FILENAME":
			doc.Filename = value
		case "DESCRIPTION":
			doc.Description = value
		}
	}

	doc.Extension = normalizeExtension(doc.Filename)
	if !allowedExtensions[doc.Extension] {
		// Unsupported type: skip silently, this is the common case for
		// graphics, XSD schemas and the like.
		return doc, false
	}

	seq, err := strconv.Atoi(rawSequence)
	if err != nil {
		p.logger.Warn("unparseable document sequence, skipping",
			"accession_number", accessionNumber,
			"filename", doc.Filename,
			"sequence", rawSequence)
		return doc, false
	}
	doc.Sequence = seq

	if headerEnd < 0 {
		p.logger.Warn("document block has no text section, skipping",
			"accession_number", accessionNumber,
			"filename", doc.Filename)
		return doc, false
	}

	content := block[headerEnd+len(textOpen):]
	if end := strings.Index(content, textClose); end >= 0 {
		content = content[:end]
	}

	if isBinarySection(content) {
		p.logger.Info("skipping binary document section",
			"accession_number", accessionNumber,
			"filename", doc.Filename)
		return doc, false
	}

	doc.Body = preferNestedContent(content)
	return doc, true
}

// preferNestedContent returns the decoded inner <XBRL>/<XML> region when the
// content wraps one, otherwise the content itself. The inner region is the
// semantically clean candidate for inline-XBRL filings wrapped in an HTML
// shell.
func preferNestedContent(content string) string {
	m := nestedOpenRe.FindStringSubmatchIndex(content)
	if m == nil {
		return strings.TrimSpace(content)
	}
	tag := content[m[2]:m[3]]
	inner := content[m[1]:]
	if end := strings.Index(inner, "</"+tag+">"); end >= 0 {
		inner = inner[:end]
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return strings.TrimSpace(content)
	}
	return inner
}

// isBinarySection reports whether a content block is a PDF or uuencoded
// payload. These are never normalized.
func isBinarySection(content string) bool {
	head := content
	if len(head) > 2048 {
		head = head[:2048]
	}
	if strings.Contains(head, pdfOpen) {
		return true
	}
	return uuencodeRe.MatchString(head)
}

// normalizeExtension lowercases the filename extension and folds .html onto
// .htm.
func normalizeExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	ext := strings.ToLower(filename[idx:])
	if ext == ".html" {
		ext = ".htm"
	}
	return ext
}

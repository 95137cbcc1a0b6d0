package normalisers

import (
	"html"
	"regexp"
	"strings"
)

var trailingLineSpaceRe = regexp.MustCompile(`[ \t]+\n`)

// NewPlainTextNormaliser builds the light pipeline for .txt sub-documents.
// Plain filings keep their line structure - the page segmentation heuristics
// depend on it - so only line endings, trailing whitespace and entities are
// touched.
func NewPlainTextNormaliser() *Pipeline {
	return NewPipeline("plaintext", []string{".txt"}, 10, []Stage{
		{Name: "line-endings", Apply: func(s string) string {
			s = strings.ReplaceAll(s, "\r\n", "\n")
			return strings.ReplaceAll(s, "\r", "\n")
		}},
		{Name: "trailing-whitespace", Apply: func(s string) string {
			return trailingLineSpaceRe.ReplaceAllString(s, "\n")
		}},
		{Name: "decode-entities", Apply: html.UnescapeString},
	})
}

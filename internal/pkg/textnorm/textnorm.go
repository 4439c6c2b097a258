// Package textnorm normalises the free text that arrives from the CMS: HTML
// fragments in titles and excerpts, encoded punctuation, Irish-language accents
// in saint and county names.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// Fold lowercases s and strips combining marks, so "Bríd" and "BRID" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Slug folds s and replaces runs of whitespace with a single hyphen.
func Slug(s string) string {
	return strings.Join(strings.Fields(Fold(s)), "-")
}

var saintPrefixes = []string{"saint ", "st. ", "st.", "st "}

// SaintKey is the comparison key for saint names: folded, without a leading
// "St."/"Saint" honorific, hyphenated. "St. Colm Cille" -> "colm-cille".
func SaintKey(name string) string {
	f := strings.TrimSpace(Fold(name))
	for _, p := range saintPrefixes {
		if strings.HasPrefix(f, p) {
			f = strings.TrimSpace(f[len(p):])
			break
		}
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(f, "-", " ")), "-")
}

// BareName turns a saint facet value back into the words used in prose:
// "colm-cille" -> "colm cille".
func BareName(value string) string {
	return strings.ReplaceAll(SaintKey(value), "-", " ")
}

// CleanHTML strips tags, decodes entities and collapses whitespace.
func CleanHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return collapse(s)
	}
	return collapse(doc.Find("body").Text())
}

// Truncate shortens s to at most n runes and appends Ellipsis when it cut anything.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n]), unicode.IsSpace) + Ellipsis
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

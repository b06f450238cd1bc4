// Package sanitize restricts highlighter markup to an allow-list.
//
// The only element that survives is <mark>, and the only attribute it keeps
// is class, reduced to plain class tokens. Every other tag is removed, the
// contents of script-like elements are discarded, and all text is re-escaped.
// The output of Sanitize is a fixed point: sanitizing it again returns it
// unchanged.
package sanitize

import (
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// MarkTag is the only element allowed through.
const MarkTag = "mark"

// MaxTokenBytes bounds the size of a single token. Larger tokens make the
// tokenizer fail, which sends callers to the escaped fallback.
const MaxTokenBytes = 1 << 20

// skipElements are elements whose content is dropped along with the tag.
var skipElements = map[string]bool{
	"script":    true,
	"style":     true,
	"noscript":  true,
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
	"template":  true,
	"object":    true,
	"svg":       true,
	"math":      true,
}

var classToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Sanitize returns s reduced to the allow-list. If s cannot be tokenized
// the fully escaped text of s is returned instead.
func Sanitize(s string) string {
	out, err := Clean(s)
	if err != nil {
		return html.EscapeString(s)
	}
	return out
}

// WithFallback sanitizes markup. When markup cannot be processed it returns
// plain, fully escaped, and reports degraded.
func WithFallback(markup, plain string) (out string, degraded bool) {
	out, err := Clean(markup)
	if err != nil {
		return html.EscapeString(strings.ToValidUTF8(plain, "�")), true
	}
	return out, false
}

// Clean is Sanitize with the failure surfaced.
func Clean(s string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("sanitize: %v", r)
		}
	}()

	c := cleaner{z: xhtml.NewTokenizer(strings.NewReader(strings.ToValidUTF8(s, "�")))}
	c.z.SetMaxBuf(MaxTokenBytes)
	return c.run()
}

type cleaner struct {
	z         *xhtml.Tokenizer
	b         strings.Builder
	markDepth int
	skipDepth int
}

func (c *cleaner) run() (string, error) {
	for {
		switch c.z.Next() {
		case xhtml.ErrorToken:
			if err := c.z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("sanitize: tokenize: %w", err)
			}
			for ; c.markDepth > 0; c.markDepth-- {
				c.b.WriteString("</" + MarkTag + ">")
			}
			return c.b.String(), nil

		case xhtml.TextToken:
			if c.skipDepth > 0 {
				continue
			}
			c.b.WriteString(html.EscapeString(string(c.z.Text())))

		case xhtml.StartTagToken:
			name, hasAttr := c.z.TagName()
			switch tag := string(name); {
			case skipElements[tag]:
				c.skipDepth++
			case tag == MarkTag && c.skipDepth == 0:
				c.openMark(hasAttr)
			}

		case xhtml.EndTagToken:
			name, _ := c.z.TagName()
			switch tag := string(name); {
			case skipElements[tag]:
				if c.skipDepth > 0 {
					c.skipDepth--
				}
			case tag == MarkTag && c.skipDepth == 0 && c.markDepth > 0:
				c.markDepth--
				c.b.WriteString("</" + MarkTag + ">")
			}

		default:
			// Self-closing tags, comments and doctypes are dropped.
		}
	}
}

func (c *cleaner) openMark(hasAttr bool) {
	var classes []string
	seenClass := false
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = c.z.TagAttr()
		if string(key) != "class" || seenClass {
			continue
		}
		seenClass = true
		for _, tok := range strings.Fields(string(val)) {
			if classToken.MatchString(tok) {
				classes = append(classes, tok)
			}
		}
	}

	c.markDepth++
	if len(classes) == 0 {
		c.b.WriteString("<" + MarkTag + ">")
		return
	}
	c.b.WriteString(`<` + MarkTag + ` class="` + strings.Join(classes, " ") + `">`)
}

// Package match decides whether a page's HTML contains an anchor matching a
// backlink claim.
package match

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/madx/backlinkd/internal/normalize"
)

// Match is the result of scanning a page for a target link.
type Match struct {
	// Found reports whether any anchor satisfied the claim.
	Found bool
	// Details describes the first matching anchor for operator visibility.
	Details string
}

// FindMatch parses body as HTML and scans its anchors for one that points at
// targetURL with text compatible with anchorText. Relative hrefs are resolved
// against baseURL. An empty anchorText matches any link text. The first
// satisfying anchor wins.
func FindMatch(body []byte, baseURL, targetURL, anchorText string) (Match, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Match{}, fmt.Errorf("parse html: %w", err)
	}

	wantURL := normalize.URL(targetURL)
	wantText := normalize.Text(anchorText)

	var result Match
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return true
		}

		text := strings.TrimSpace(sel.Text())
		resolved := resolveHref(href, baseURL)

		if !urlsMatch(normalize.URL(resolved), wantURL) {
			return true
		}
		if !textMatches(normalize.Text(text), wantText) {
			return true
		}

		result = Match{
			Found:   true,
			Details: fmt.Sprintf("Found link: %q -> %s", text, href),
		}
		return false
	})

	return result, nil
}

// resolveHref converts href to an absolute URL. Root-relative and bare hrefs
// are joined with baseURL's scheme and host; absolute hrefs pass through.
func resolveHref(href, baseURL string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return href
	}

	if strings.HasPrefix(href, "//") {
		return base.Scheme + ":" + href
	}
	if strings.HasPrefix(href, "/") {
		return base.Scheme + "://" + base.Host + href
	}
	return base.Scheme + "://" + base.Host + "/" + href
}

// urlsMatch applies the bidirectional substring rule: either normalized URL
// containing the other counts as pointing at the same target. This tolerates
// trailing-path and differing-specificity claims.
func urlsMatch(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

// textMatches applies the bidirectional substring rule to anchor text. An
// empty expectation matches any text.
func textMatches(got, want string) bool {
	if want == "" {
		return true
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

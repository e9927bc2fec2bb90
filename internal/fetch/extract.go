// Package fetch downloads new frame images from tagged Discourse topics
// and keeps the local image directory within its retention limit.
package fetch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Discourse upload URLs end in a 40-character content hash before the
// file extension, e.g. /uploads/default/original/1X/<sha1>.jpeg.
var uploadHashPattern = regexp.MustCompile(`/(\w{40})\.\w+$`)

// ImageRef is one original-size upload found in a post body.
type ImageRef struct {
	URL  string
	Hash string
}

// extractImages scans cooked post HTML for links and images pointing at
// original-size uploads. Protocol-relative URLs are normalized to https.
// Duplicate hashes within the same post are collapsed.
func extractImages(cookedHTML string) ([]ImageRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cookedHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse post HTML; %w", err)
	}

	var refs []ImageRef
	seen := make(map[string]struct{})

	doc.Find("a, img").Each(func(_ int, sel *goquery.Selection) {
		url, ok := sel.Attr("href")
		if !ok {
			url, ok = sel.Attr("src")
		}
		if !ok || !strings.Contains(url, "/default/original/") {
			return
		}
		if strings.HasPrefix(url, "//") {
			url = "https:" + url
		}

		m := uploadHashPattern.FindStringSubmatch(url)
		if m == nil {
			return
		}
		hash := m[1]
		if _, dup := seen[hash]; dup {
			return
		}
		seen[hash] = struct{}{}
		refs = append(refs, ImageRef{URL: url, Hash: hash})
	})

	return refs, nil
}

// Package embed locates the player iframe inside a stream page.
package embed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dlhd-resolver/pkg/types"
)

// selectors are tried in order; the first element found wins.
var selectors = []string{"iframe#thatframe", "iframe.video", "iframe"}

// IframeSource returns the src attribute of the page's player iframe,
// verbatim. pageURL is only used for the error.
func IframeSource(body, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", &types.NotFoundError{What: "iframe", URL: pageURL}
	}

	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		src, _ := node.Attr("src")
		if src == "" {
			return "", &types.NotFoundError{What: "iframe src", URL: pageURL}
		}
		return src, nil
	}

	return "", &types.NotFoundError{What: "iframe", URL: pageURL}
}

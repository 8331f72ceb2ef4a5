package extract

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/ghostfetch/internal/models"
)

// Extract converts rendered HTML into the artifact returned to callers:
// structured metadata plus a Markdown rendering of the page body.
// It is deterministic and never touches the network.
func Extract(html string) (*models.Artifact, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	metadata := models.Metadata{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Author:      firstMetaContent(doc, "meta[name='author']", "meta[property='article:author']"),
		PublishDate: firstMetaContent(doc, "meta[name='publish-date']", "meta[property='article:published_time']", "meta[name='date']"),
		Images:      extractImages(doc),
	}

	// Strip non-content subtrees before conversion.
	doc.Find("script, style, meta, noscript, svg").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cleaned HTML: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return &models.Artifact{
		Metadata: metadata,
		Markdown: markdown,
	}, nil
}

// firstMetaContent returns the trimmed content attribute of the first
// selector that matches, in the order given.
func firstMetaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, exists := doc.Find(sel).First().Attr("content"); exists {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// extractImages collects absolute image URLs in document order,
// preserving duplicates.
func extractImages(doc *goquery.Document) []string {
	images := []string{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, exists := s.Attr("src"); exists && strings.HasPrefix(src, "http") {
			images = append(images, src)
		}
	})
	return images
}

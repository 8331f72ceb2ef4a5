package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplePage = `<!DOCTYPE html>
<html>
<head>
	<title> Example Domain </title>
	<meta name="author" content=" Jane Writer ">
	<meta property="article:published_time" content="2024-01-15T10:00:00Z">
	<style>body { margin: 0; }</style>
	<script>console.log("tracking");</script>
</head>
<body>
	<h1>Example Domain</h1>
	<p>This domain is for use in <a href="https://www.iana.org/domains/example">illustrative examples</a> in documents.</p>
	<img src="https://example.com/a.png">
	<img src="/relative.png">
	<img src="https://example.com/a.png">
	<noscript>enable javascript</noscript>
	<svg><circle r="1"/></svg>
</body>
</html>`

func TestExtractMetadata(t *testing.T) {
	artifact, err := Extract(examplePage)
	require.NoError(t, err)

	assert.Equal(t, "Example Domain", artifact.Metadata.Title)
	assert.Equal(t, "Jane Writer", artifact.Metadata.Author)
	assert.Equal(t, "2024-01-15T10:00:00Z", artifact.Metadata.PublishDate)
}

func TestExtractImagesAbsoluteOnlyInOrderWithDuplicates(t *testing.T) {
	artifact, err := Extract(examplePage)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/a.png",
		"https://example.com/a.png",
	}, artifact.Metadata.Images)
}

func TestExtractMarkdownStripsNonContent(t *testing.T) {
	artifact, err := Extract(examplePage)
	require.NoError(t, err)

	assert.Contains(t, artifact.Markdown, "Example Domain")
	assert.Contains(t, artifact.Markdown, "https://www.iana.org/domains/example")
	assert.NotContains(t, artifact.Markdown, "tracking")
	assert.NotContains(t, artifact.Markdown, "margin: 0")
	assert.NotContains(t, artifact.Markdown, "enable javascript")
}

func TestAuthorMetaPrecedence(t *testing.T) {
	html := `<html><head>
		<meta property="article:author" content="Property Author">
		<meta name="author" content="Name Author">
	</head><body></body></html>`

	artifact, err := Extract(html)
	require.NoError(t, err)

	// name="author" wins regardless of document order.
	assert.Equal(t, "Name Author", artifact.Metadata.Author)
}

func TestPublishDateFallbackChain(t *testing.T) {
	html := `<html><head><meta name="date" content="2023-05-01"></head><body></body></html>`

	artifact, err := Extract(html)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-01", artifact.Metadata.PublishDate)
}

func TestExtractMissingMetadataIsEmpty(t *testing.T) {
	artifact, err := Extract(`<html><body><p>hello</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "", artifact.Metadata.Title)
	assert.Equal(t, "", artifact.Metadata.Author)
	assert.Equal(t, "", artifact.Metadata.PublishDate)
	assert.Empty(t, artifact.Metadata.Images)
}

func TestExtractIsDeterministic(t *testing.T) {
	first, err := Extract(examplePage)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Extract(examplePage)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

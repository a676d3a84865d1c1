package goquery_test

import (
	"testing"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/goquery"
	"github.com/stretchr/testify/assert"
)

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	t.Run("detects WordPress from meta generator", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta name="generator" content="WordPress 6.4.2"></head><body></body></html>`

		assert.Equal(t, pagegraph.GeneratorWordPress, goquery.NewDetector().Detect(html))
	})

	t.Run("detects Hugo from meta generator", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta name="generator" content="Hugo 0.121.1"></head><body></body></html>`

		assert.Equal(t, pagegraph.GeneratorHugo, goquery.NewDetector().Detect(html))
	})

	t.Run("detects WordPress from asset paths", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
<link rel="stylesheet" href="https://blog.example.com/wp-content/themes/x/style.css">
</head><body><p>Post</p></body></html>`

		assert.Equal(t, pagegraph.GeneratorWordPress, goquery.NewDetector().Detect(html))
	})

	t.Run("detects Next.js from the __next root", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div id="__next"><main>App</main></div>
<script id="__NEXT_DATA__" type="application/json">{}</script></body></html>`

		assert.Equal(t, pagegraph.GeneratorNextJS, goquery.NewDetector().Detect(html))
	})

	t.Run("detects Gatsby from the ___gatsby root", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div id="___gatsby"><div>Site</div></div></body></html>`

		assert.Equal(t, pagegraph.GeneratorGatsby, goquery.NewDetector().Detect(html))
	})

	t.Run("detects Docusaurus from skip link", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a id="__docusaurus_skipToContent_fallback" href="#__docusaurus_skipToContent_fallback">Skip</a>
</body></html>`

		assert.Equal(t, pagegraph.GeneratorDocusaurus, goquery.NewDetector().Detect(html))
	})

	t.Run("detects Drupal from data attributes", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><form data-drupal-selector="search-form"></form></body></html>`

		assert.Equal(t, pagegraph.GeneratorDrupal, goquery.NewDetector().Detect(html))
	})

	t.Run("prefers meta generator over markers", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta name="generator" content="Docusaurus v3"></head>
<body><div id="__next"></div></body></html>`

		assert.Equal(t, pagegraph.GeneratorDocusaurus, goquery.NewDetector().Detect(html))
	})

	t.Run("returns unknown for plain pages", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Plain</title></head><body><p>Hello</p></body></html>`

		assert.Equal(t, pagegraph.GeneratorUnknown, goquery.NewDetector().Detect(html))
	})
}

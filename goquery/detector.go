package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagegraph"
)

// Ensure Detector implements pagegraph.GeneratorDetector at compile time.
var _ pagegraph.GeneratorDetector = (*Detector)(nil)

// Detector identifies the site generator or CMS behind a page.
// It checks the meta generator tag first, then generator-specific
// CSS classes, ids, data attributes and asset paths.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect parses html and returns the identified generator.
// Returns GeneratorUnknown if the generator cannot be determined.
func (d *Detector) Detect(html string) pagegraph.Generator {
	doc, err := Parse(html)
	if err != nil {
		return pagegraph.GeneratorUnknown
	}
	return d.DetectDocument(doc)
}

// DetectDocument is like Detect for an already parsed document.
func (d *Detector) DetectDocument(doc *goquery.Document) pagegraph.Generator {
	if g := d.detectFromMetaGenerator(doc); g != pagegraph.GeneratorUnknown {
		return g
	}

	switch {
	case d.hasSelector(doc, "#__docusaurus_skipToContent_fallback"),
		d.hasSelector(doc, ".theme-doc-sidebar-container"):
		return pagegraph.GeneratorDocusaurus
	case d.hasSelector(doc, "[data-md-component]"),
		d.hasSelector(doc, ".md-nav--primary"):
		return pagegraph.GeneratorMkDocs
	case d.hasSelector(doc, ".wy-nav-side"),
		d.hasSelector(doc, ".sphinxsidebar"):
		return pagegraph.GeneratorSphinx
	case d.hasSelector(doc, "#VPContent"),
		d.hasSelector(doc, ".VPDoc"):
		return pagegraph.GeneratorVitePress
	case d.hasSelector(doc, ".theme-default-content"):
		return pagegraph.GeneratorVuePress
	case d.hasSelector(doc, "#__next"),
		d.hasSelector(doc, "script#__NEXT_DATA__"):
		return pagegraph.GeneratorNextJS
	case d.hasSelector(doc, "#___gatsby"):
		return pagegraph.GeneratorGatsby
	case d.hasAssetPath(doc, "/wp-content/", "/wp-includes/"):
		return pagegraph.GeneratorWordPress
	case d.hasSelector(doc, "[data-drupal-selector]"),
		d.hasAssetPath(doc, "/sites/default/files/"):
		return pagegraph.GeneratorDrupal
	}

	return pagegraph.GeneratorUnknown
}

// detectFromMetaGenerator checks the meta generator tag, which is the most
// reliable signal when present.
func (d *Detector) detectFromMetaGenerator(doc *goquery.Document) pagegraph.Generator {
	generator := ""
	doc.Find("meta[name='generator']").Each(func(_ int, s *goquery.Selection) {
		if content, exists := s.Attr("content"); exists {
			generator = strings.ToLower(content)
		}
	})

	if generator == "" {
		return pagegraph.GeneratorUnknown
	}

	switch {
	case strings.Contains(generator, "wordpress"):
		return pagegraph.GeneratorWordPress
	case strings.Contains(generator, "drupal"):
		return pagegraph.GeneratorDrupal
	case strings.Contains(generator, "hugo"):
		return pagegraph.GeneratorHugo
	case strings.Contains(generator, "gatsby"):
		return pagegraph.GeneratorGatsby
	case strings.Contains(generator, "docusaurus"):
		return pagegraph.GeneratorDocusaurus
	case strings.Contains(generator, "mkdocs"):
		return pagegraph.GeneratorMkDocs
	case strings.Contains(generator, "sphinx"):
		return pagegraph.GeneratorSphinx
	case strings.Contains(generator, "vitepress"):
		return pagegraph.GeneratorVitePress
	case strings.Contains(generator, "vuepress"):
		return pagegraph.GeneratorVuePress
	}

	return pagegraph.GeneratorUnknown
}

// hasSelector checks if the document contains at least one element matching the selector.
func (d *Detector) hasSelector(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

// hasAssetPath checks script and stylesheet URLs for any of the path fragments.
func (d *Detector) hasAssetPath(doc *goquery.Document, fragments ...string) bool {
	found := false
	doc.Find("script[src], link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		ref, ok := s.Attr("src")
		if !ok {
			ref, _ = s.Attr("href")
		}
		for _, f := range fragments {
			if strings.Contains(ref, f) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

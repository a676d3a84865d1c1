package pagegraph

// Generator identifies the site generator or CMS that produced a page.
type Generator string

// Recognized generators.
const (
	GeneratorUnknown    Generator = ""
	GeneratorWordPress  Generator = "wordpress"
	GeneratorDrupal     Generator = "drupal"
	GeneratorNextJS     Generator = "nextjs"
	GeneratorGatsby     Generator = "gatsby"
	GeneratorHugo       Generator = "hugo"
	GeneratorDocusaurus Generator = "docusaurus"
	GeneratorMkDocs     Generator = "mkdocs"
	GeneratorSphinx     Generator = "sphinx"
	GeneratorVuePress   Generator = "vuepress"
	GeneratorVitePress  Generator = "vitepress"
)

// GeneratorDetector identifies site generators from HTML.
type GeneratorDetector interface {
	// Detect analyzes HTML and returns the identified generator.
	// Returns GeneratorUnknown if the generator cannot be determined.
	Detect(html string) Generator
}

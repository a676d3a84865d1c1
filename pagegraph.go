// Package pagegraph analyzes the element structure of a single HTML page.
// It turns a document into a typed object graph, classifies every element,
// infers relationships between elements and derives page-level complexity
// metrics that can be exported as GraphML or schema.org JSON-LD.
//
// This package contains domain types, interfaces and the pure analysis
// steps following Ben Johnson's Standard Package Layout. Implementations
// that depend on a library live in subdirectories named after their
// primary dependency (e.g., goquery/, etree/, sqlite/).
package pagegraph

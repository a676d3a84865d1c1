package pagegraph

import (
	"strings"
)

var tagTypes = map[string]ObjectType{
	"button":   ObjectInteractive,
	"input":    ObjectInteractive,
	"select":   ObjectInteractive,
	"textarea": ObjectInteractive,
	"a":        ObjectInteractive,

	"img":    ObjectMedia,
	"video":  ObjectMedia,
	"audio":  ObjectMedia,
	"canvas": ObjectMedia,
	"svg":    ObjectMedia,

	"div":     ObjectStructural,
	"section": ObjectStructural,
	"article": ObjectStructural,
	"header":  ObjectStructural,
	"footer":  ObjectStructural,
	"nav":     ObjectStructural,
	"main":    ObjectStructural,
	"aside":   ObjectStructural,

	"p":    ObjectContent,
	"span": ObjectContent,
	"h1":   ObjectContent,
	"h2":   ObjectContent,
	"h3":   ObjectContent,
	"h4":   ObjectContent,
	"h5":   ObjectContent,
	"h6":   ObjectContent,
	"li":   ObjectContent,
	"td":   ObjectContent,
	"th":   ObjectContent,

	"table": ObjectData,
	"ul":    ObjectData,
	"ol":    ObjectData,
	"dl":    ObjectData,

	"form":     ObjectForm,
	"fieldset": ObjectForm,
	"legend":   ObjectForm,
	"label":    ObjectForm,
}

// ClassifyTag maps a tag name to its object type.
// Unknown tags are ObjectOther.
func ClassifyTag(tag string) ObjectType {
	if t, ok := tagTypes[strings.ToLower(tag)]; ok {
		return t
	}
	return ObjectOther
}

// Semantic roles produced by InferSemanticRole.
const (
	RoleNavigation  = "navigation"
	RoleMainContent = "main-content"
	RoleDialog      = "dialog"
	RoleCarousel    = "carousel"
	RoleCard        = "card"
	RoleButton      = "button"
	RoleImage       = "image"
)

var tagRoles = map[string]string{
	"header":  "header",
	"nav":     RoleNavigation,
	"main":    RoleMainContent,
	"article": "article",
	"section": "section",
	"aside":   "complementary",
	"footer":  "footer",
	"h1":      "heading-1",
	"h2":      "heading-2",
	"h3":      "heading-3",
	"form":    "form",
	"button":  RoleButton,
	"input":   "input",
	"a":       "link",
	"img":     RoleImage,
	"video":   "media",
	"audio":   "media",
	"table":   "tabular-data",
}

// classRoles is ordered; the first matching rule wins.
var classRoles = []struct {
	needles []string
	role    string
}{
	{[]string{"menu", "nav"}, RoleNavigation},
	{[]string{"modal", "dialog"}, RoleDialog},
	{[]string{"carousel", "slider"}, RoleCarousel},
	{[]string{"card"}, RoleCard},
	{[]string{"button", "btn"}, RoleButton},
}

// InferSemanticRole returns the semantic role of an element, or "" if none applies.
// An explicit role attribute wins, then the tag table, then class name hints.
func InferSemanticRole(tag string, attrs map[string]string) string {
	if role, ok := attrs["role"]; ok && role != "" {
		return role
	}
	if role, ok := tagRoles[strings.ToLower(tag)]; ok {
		return role
	}
	class := strings.ToLower(attrs["class"])
	if class == "" {
		return ""
	}
	for _, rule := range classRoles {
		for _, needle := range rule.needles {
			if strings.Contains(class, needle) {
				return rule.role
			}
		}
	}
	return ""
}

// SchemaTypeFromItemtype returns the last path segment of an itemtype URL,
// e.g. "https://schema.org/Product" yields "Product".
func SchemaTypeFromItemtype(itemtype string) string {
	itemtype = strings.TrimSpace(itemtype)
	// itemtype may list several URLs; the first one names the primary type.
	if fields := strings.Fields(itemtype); len(fields) > 0 {
		itemtype = fields[0]
	}
	itemtype = strings.TrimRight(itemtype, "/")
	if i := strings.LastIndex(itemtype, "/"); i >= 0 {
		return itemtype[i+1:]
	}
	return itemtype
}

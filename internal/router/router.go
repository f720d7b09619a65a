// Package router locates the slice of a document that most likely holds the
// table a given schema extracts. Headings vary wildly across municipalities,
// so routing is keyword scoring, not layout analysis: a page belongs to a
// section when enough distinct keywords hit, and a miss degrades to the full
// document rather than failing.
package router

import "strings"

// Match is the routing result for one schema: the text slice to feed the
// extractor and whether a confident section was found. Text is never empty
// for a non-empty document; Matched=false means the full document was
// returned as fallback.
type Match struct {
	Schema  string
	Text    string
	Matched bool
	Pages   []int
}

// Router scores pages against per-schema keyword sets.
type Router struct {
	keywords map[string][]string
}

// defaultKeywords mirrors the headings observed in Rendición de Cuentas
// reports. Keywords are matched case-insensitively as substrings, so
// truncated stems ("jurisdic", "evoluci") cover accent and casing variants.
var defaultKeywords = map[string][]string{
	"jurisdiccion": {"jurisdic", "programa", "presupuesto"},
	"programas":    {"jurisdic", "programa", "presupuesto"},
	"metas":        {"metas", "evoluci", "principales"},
}

// New builds a router with the default keyword sets.
func New() *Router {
	return NewWithKeywords(defaultKeywords)
}

// NewWithKeywords builds a router with caller-supplied keyword sets,
// keyed by schema name.
func NewWithKeywords(keywords map[string][]string) *Router {
	return &Router{keywords: keywords}
}

// Route scans the document pages for the schema's keywords. Pages where at
// least two distinct keywords appear (or one, for single-keyword sets) form
// the section; their texts are joined in page order. When no page qualifies,
// including schemas with no configured keyword set, the whole document is
// returned with Matched=false. Routing never errors: the full-document
// fallback is the degraded mode.
func (r *Router) Route(pages []string, schema string) Match {
	match := Match{Schema: schema}
	keywords := r.keywords[schema]

	threshold := 2
	if len(keywords) < threshold {
		threshold = len(keywords)
	}

	var chunks []string
	if threshold > 0 {
		for i, page := range pages {
			if scorePage(page, keywords) >= threshold {
				match.Pages = append(match.Pages, i+1)
				chunks = append(chunks, page)
			}
		}
	}

	if len(chunks) > 0 {
		match.Matched = true
		match.Text = strings.Join(chunks, "\n\n")
		return match
	}

	match.Text = strings.Join(pages, "\n\n")
	return match
}

func scorePage(text string, keywords []string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			score++
		}
	}
	return score
}
